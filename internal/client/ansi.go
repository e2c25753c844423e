package client

// escFilter strips terminal escape sequences from program output. It keeps
// state between writes so a sequence split across reads is still removed.
type escFilter struct {
	state int
}

const (
	escNone = iota
	escStart
	escCSI
	escOSC
	escOSCEnd // saw ESC inside an OSC string
)

func (f *escFilter) filter(p []byte) []byte {
	out := make([]byte, 0, len(p))
	for _, b := range p {
		switch f.state {
		case escNone:
			if b == 0x1b {
				f.state = escStart
				continue
			}
			out = append(out, b)
		case escStart:
			switch b {
			case '[':
				f.state = escCSI
			case ']', 'P', '_', '^':
				f.state = escOSC
			case '(', ')', '*', '+', '#', '%':
				// one more byte names the charset
				f.state = escCSI
			default:
				f.state = escNone
			}
		case escCSI:
			if b >= 0x40 && b <= 0x7e {
				f.state = escNone
			}
		case escOSC:
			switch b {
			case 0x07:
				f.state = escNone
			case 0x1b:
				f.state = escOSCEnd
			}
		case escOSCEnd:
			if b == '\\' {
				f.state = escNone
			} else {
				f.state = escOSC
			}
		}
	}
	return out
}
