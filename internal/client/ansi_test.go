package client

import "testing"

func TestEscFilter(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"plain", []string{"hello"}, "hello"},
		{"csi color", []string{"\x1b[1;31mred\x1b[0m"}, "red"},
		{"osc title bel", []string{"\x1b]0;title\x07$ "}, "$ "},
		{"osc title st", []string{"\x1b]2;t\x1b\\ok"}, "ok"},
		{"charset", []string{"\x1b(Bx"}, "x"},
		{"split sequence", []string{"a\x1b[", "32", "mb"}, "ab"},
		{"two byte", []string{"\x1b=k"}, "k"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f escFilter
			var got []byte
			for _, s := range tt.in {
				got = append(got, f.filter([]byte(s))...)
			}
			if string(got) != tt.want {
				t.Fatalf("filter = %q, want %q", got, tt.want)
			}
		})
	}
}
