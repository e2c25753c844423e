package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReconciler_RelistensWhenSocketMissing(t *testing.T) {
	dir := t.TempDir()
	socket := filepath.Join(dir, "riotile.sock")

	tests := []struct {
		name      string
		create    bool
		failWith  error
		wantCalls int
	}{
		{"socket present", true, nil, 0},
		{"socket removed", false, nil, 1},
		{"relisten fails", false, errors.New("address in use"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Remove(socket)
			if tt.create {
				if err := os.WriteFile(socket, nil, 0600); err != nil {
					t.Fatalf("write: %v", err)
				}
			}
			calls := 0
			r := NewReconciler(ReconcilerConfig{}, func() string { return socket }, func() error {
				calls++
				return tt.failWith
			})
			r.reconcile()
			if calls != tt.wantCalls {
				t.Fatalf("relisten called %d times, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestReconciler_RecoversFromPanic(t *testing.T) {
	r := NewReconciler(ReconcilerConfig{}, func() string { return filepath.Join(t.TempDir(), "gone") }, func() error {
		panic("boom")
	})
	r.reconcile()
}
