package menu

import (
	"errors"
	"os/exec"
	"strings"
	"testing"
)

type fakeRun struct {
	out, stderr string
	err         error

	command string
	args    []string
	input   string
}

func (f *fakeRun) run(command string, args []string, input string) (string, string, error) {
	f.command, f.args, f.input = command, args, input
	return f.out, f.stderr, f.err
}

func exitError(t *testing.T, code string) error {
	t.Helper()
	err := exec.Command("/bin/sh", "-c", "exit "+code).Run()
	if err == nil {
		t.Fatal("expected exit error")
	}
	return err
}

func TestRofiBuildArgs_UsesIndexFormatAndSelectedRow(t *testing.T) {
	b := newRofi()
	args := b.buildArgs("riotile", 2, 5)

	if !containsArgs(args, "-format", "i") {
		t.Fatalf("expected -format i in args, got %v", args)
	}
	if !containsArg(args, "-no-custom") {
		t.Fatalf("expected -no-custom in args, got %v", args)
	}
	if !containsArgs(args, "-selected-row", "2") {
		t.Fatalf("expected -selected-row 2 in args, got %v", args)
	}
	if args := b.buildArgs("", 9, 5); containsArg(args, "-selected-row") {
		t.Fatalf("out of range row passed to rofi: %v", args)
	}
}

func TestShow(t *testing.T) {
	items := []string{"New", "Resize", "a <b>", "a <b>"}
	tests := []struct {
		name    string
		backend *dmenuLike
		run     fakeRun
		want    int
		wantErr error
	}{
		{"rofi index", newRofi(), fakeRun{out: "1\n"}, 1, nil},
		{"fuzzel index", newFuzzel(), fakeRun{out: "3\n"}, 3, nil},
		{"dmenu text", newDmenu(), fakeRun{out: "Resize\n"}, 1, nil},
		{"dmenu duplicate", newDmenu(), fakeRun{out: "a <b> (2)\n"}, 3, nil},
		{"empty output", newDmenu(), fakeRun{out: ""}, -1, ErrCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.backend.run = tt.run.run
			got, err := tt.backend.Show("riotile", items, 0)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Show() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("Show() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestShow_EscapesMarkup(t *testing.T) {
	f := &fakeRun{out: "0"}
	b := newRofi()
	b.run = f.run
	if _, err := b.Show("", []string{"x<y>\nz"}, -1); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if f.input != "x&lt;y&gt; z" {
		t.Fatalf("input = %q", f.input)
	}
}

func TestShow_Failures(t *testing.T) {
	b := newDmenu()

	f := &fakeRun{err: exitError(t, "1")}
	b.run = f.run
	if _, err := b.Show("", []string{"a"}, 0); !errors.Is(err, ErrCancelled) {
		t.Fatalf("exit 1: error = %v, want ErrCancelled", err)
	}

	f = &fakeRun{err: exitError(t, "2"), stderr: "cannot open display\n"}
	b.run = f.run
	if _, err := b.Show("", []string{"a"}, 0); err == nil || !strings.Contains(err.Error(), "cannot open display") {
		t.Fatalf("exit 2: error = %v", err)
	}

	f = &fakeRun{out: "zzz"}
	b.run = f.run
	if _, err := b.Show("", []string{"a"}, 0); err == nil {
		t.Fatal("unknown selection accepted")
	}

	if _, err := b.Show("", nil, 0); err == nil {
		t.Fatal("empty menu accepted")
	}
}

func TestNew_Unknown(t *testing.T) {
	if _, err := New("zenity"); err == nil || !strings.Contains(err.Error(), "unknown menu backend") {
		t.Fatalf("New(zenity) error = %v", err)
	}
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func containsArgs(args []string, a string, b string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == a && args[i+1] == b {
			return true
		}
	}
	return false
}
