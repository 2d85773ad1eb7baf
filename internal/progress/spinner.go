package progress

import (
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner is a nil-safe wrapper around briandowns/spinner.
// A nil *Spinner or one created for a non-terminal does nothing.
type Spinner struct {
	mu      sync.Mutex
	s       *spinner.Spinner
	running bool
}

// NewSpinner returns a spinner writing to w. It is inert unless
// caps.IsTTY is set.
func NewSpinner(w io.Writer, caps TerminalCapabilities) *Spinner {
	if !caps.IsTTY {
		return &Spinner{}
	}
	s := spinner.New(spinner.CharSets[SpinnerSet(caps)], 100*time.Millisecond, spinner.WithWriter(w))
	if caps.SupportsColor {
		_ = s.Color("cyan")
	}
	return &Spinner{s: s}
}

// Start shows the spinner with message.
func (p *Spinner) Start(message string) {
	if p == nil || p.s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.Suffix = " " + message
	if !p.running {
		p.s.Start()
		p.running = true
	}
}

// Update replaces the message of a running spinner.
func (p *Spinner) Update(message string) {
	if p == nil || p.s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.Lock()
	p.s.Suffix = " " + message
	p.s.Unlock()
}

// Stop clears the spinner line.
func (p *Spinner) Stop() {
	if p == nil || p.s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.s.Stop()
		p.running = false
	}
}

// Active reports whether the spinner is drawing.
func (p *Spinner) Active() bool {
	if p == nil || p.s == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
