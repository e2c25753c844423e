package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/1broseidon/riotile/internal/ipc"
)

// parseRect reads "x,y,width,height".
func parseRect(s string) (ipc.Rect, error) {
	n, err := parseInts(s, 4)
	if err != nil {
		return ipc.Rect{}, fmt.Errorf("rect %q: %w", s, err)
	}
	if n[2] <= 0 || n[3] <= 0 {
		return ipc.Rect{}, fmt.Errorf("rect %q: width and height must be positive", s)
	}
	return ipc.Rect{X: n[0], Y: n[1], Width: n[2], Height: n[3]}, nil
}

func parseInts(s string, want int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("want %d comma-separated numbers", want)
	}
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", p)
		}
		out[i] = v
	}
	return out, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return id, nil
}

func runNew(args []string) int {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	rect := fs.String("r", "", "Window rectangle x,y,width,height (default: chosen by the window manager)")
	hidden := fs.Bool("hide", false, "Create the window hidden")
	scrolling := fs.Bool("s", false, "Follow output as it arrives")
	dir := fs.String("dir", "", "Working directory")
	label := fs.String("label", "", "Window label")
	pid := fs.Int("pid", 0, "Adopt a running process instead of starting one")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: riotile new [options] [cmd args...]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Create a window running cmd (default: the configured shell).")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	p := ipc.NewPayload{
		Hidden:    *hidden,
		Scrolling: *scrolling,
		Pid:       *pid,
		Dir:       *dir,
		Label:     *label,
	}
	if *rect != "" {
		r, err := parseRect(*rect)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		p.Rect = &r
	}
	if fs.NArg() > 0 {
		p.Command = fs.Arg(0)
		p.Args = fs.Args()[1:]
	}
	if p.Dir == "" && p.Pid == 0 {
		if wd, err := os.Getwd(); err == nil {
			p.Dir = wd
		}
	}

	info, err := ipc.NewClient().New(p)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(info.ID)
	return 0
}

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: riotile list [--json]")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	windows, err := ipc.NewClient().List()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(windows); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	width := 0
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
	}
	printWindows(os.Stdout, windows, width)
	return 0
}

// labelColumn is where the label starts in list output.
const labelColumn = 52

// printWindows writes one row per window, truncating labels to fit width
// columns when width is known.
func printWindows(w io.Writer, windows []ipc.WindowInfo, width int) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPID\tRECT\tSTATE\tLABEL")
	for _, win := range windows {
		state := "visible"
		switch {
		case win.Hidden:
			state = "hidden"
		case win.Current:
			state = "current"
		}
		label := win.Label
		if width > labelColumn {
			label = runewidth.Truncate(label, width-labelColumn, "…")
		}
		fmt.Fprintf(tw, "%d\t%d\t%d,%d,%d,%d\t%s\t%s\n",
			win.ID, win.Pid, win.Rect.X, win.Rect.Y, win.Rect.Width, win.Rect.Height, state, label)
	}
	tw.Flush()
}

func runResize(args []string) int {
	if len(args) != 2 || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage: riotile resize ID x,y,width,height")
		return 2
	}
	id, err := parseID(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	r, err := parseRect(args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := ipc.NewClient().Resize(id, r.Image()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runMove(args []string) int {
	if len(args) != 2 || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage: riotile move ID x,y")
		return 2
	}
	id, err := parseID(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	p, err := parseInts(args[1], 2)
	if err != nil {
		fmt.Fprintf(os.Stderr, "point %q: %v\n", args[1], err)
		return 2
	}
	if err := ipc.NewClient().Move(id, image.Pt(p[0], p[1])); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// runWindowCommand builds the handler for a command that takes one id.
func runWindowCommand(name string) func([]string) int {
	return func(args []string) int {
		if len(args) != 1 || args[0] == "-h" || args[0] == "--help" {
			fmt.Fprintf(os.Stderr, "Usage: riotile %s ID\n", name)
			return 2
		}
		id, err := parseID(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		c := ipc.NewClient()
		switch name {
		case "delete":
			err = c.Delete(id)
		case "hide":
			err = c.Hide(id)
		case "unhide":
			err = c.Unhide(id)
		case "top":
			err = c.Top(id)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
}

func runTile(args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "Usage: riotile tile")
		return 2
	}
	if err := ipc.NewClient().Tile(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: riotile status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("screen:         %d,%d,%d,%d\n", status.Screen.X, status.Screen.Y, status.Screen.Width, status.Screen.Height)
	fmt.Printf("windows:        %d\n", status.Windows)
	fmt.Printf("hidden:         %d/%d\n", status.Hidden, status.HiddenCap)
	if status.Input != 0 {
		fmt.Printf("input:          %d\n", status.Input)
	}
	fmt.Printf("state:          %s\n", status.State)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}
