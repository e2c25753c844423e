package display

// Mousectl is the pointer feed as seen by the dispatcher. The embedded Mouse
// is the most recent sample; modal operations advance it with Read.
type Mousectl struct {
	Mouse
	C      <-chan Mouse
	Resize <-chan struct{}

	closed bool
}

// NewMousectl wraps a backend's pointer and resize feeds.
func NewMousectl(c <-chan Mouse, resize <-chan struct{}) *Mousectl {
	return &Mousectl{C: c, Resize: resize}
}

// Read blocks for the next sample. Once the feed is closed it reports false
// and leaves the buttons released.
func (mc *Mousectl) Read() bool {
	if mc.closed {
		return false
	}
	m, ok := <-mc.C
	if !ok {
		mc.closed = true
		mc.Buttons = 0
		return false
	}
	mc.Mouse = m
	return true
}

// Closed reports whether the feed has ended.
func (mc *Mousectl) Closed() bool {
	return mc.closed
}

// Drain reads samples until every button is released.
func (mc *Mousectl) Drain() {
	for mc.Buttons != 0 {
		if !mc.Read() {
			return
		}
	}
}
