package midi

import (
	"fmt"
	"sync"
	"time"

	"generation-x/debug"
	"generation-x/music"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Output is the performance device. A nil send makes it inert.
type Output struct {
	name string

	mu      sync.Mutex
	send    func(msg gomidi.Message) error
	pending map[*time.Timer]gomidi.Message
}

// NewOutput wraps a send function
func NewOutput(name string, send func(msg gomidi.Message) error) *Output {
	return &Output{
		name:    name,
		send:    send,
		pending: make(map[*time.Timer]gomidi.Message),
	}
}

// OpenOutput opens the named port. On failure it still returns a usable,
// inert Output along with an ErrDeviceUnavailable error.
func OpenOutput(ports Ports, name string) (*Output, error) {
	port, err := ports.FindOut(name)
	if err != nil {
		debug.Log("midi", "output %q: %v", name, err)
		return NewOutput(name, nil), err
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		debug.Log("midi", "output %q: %v", name, err)
		return NewOutput(name, nil), fmt.Errorf("%w: open output %q: %v", ErrDeviceUnavailable, name, err)
	}
	debug.Log("midi", "output %q opened as %s", name, port.String())
	return NewOutput(port.String(), send), nil
}

func (o *Output) Name() string {
	return o.name
}

// Available reports whether notes reach a device
func (o *Output) Available() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.send != nil
}

// SendNote plays p on channel now and releases it after d
func (o *Output) SendNote(channel uint8, p music.Pitch, d time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.send == nil {
		return nil
	}

	ch := channel & 0x0f
	if err := o.send(gomidi.NoteOn(ch, p.Number, p.Velocity)); err != nil {
		return fmt.Errorf("note on %s: %w", p.FullName(), err)
	}

	off := gomidi.NoteOff(ch, p.Number)
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if _, ok := o.pending[t]; !ok {
			return
		}
		delete(o.pending, t)
		if o.send != nil {
			if err := o.send(off); err != nil {
				debug.Log("midi", "note off: %v", err)
			}
		}
	})
	o.pending[t] = off
	return nil
}

// Close releases every sounding note and makes the Output inert
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var firstErr error
	for t, off := range o.pending {
		t.Stop()
		if o.send != nil {
			if err := o.send(off); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		delete(o.pending, t)
	}
	o.send = nil
	return firstErr
}
