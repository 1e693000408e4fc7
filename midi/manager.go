package midi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"generation-x/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

var ErrDeviceUnavailable = errors.New("device unavailable")

// portTimeout bounds a port scan (CoreMIDI can hang)
const portTimeout = 3 * time.Second

// Ports is one scan of the available MIDI ports
type Ports struct {
	Ins  []drivers.In
	Outs []drivers.Out
}

// InNames lists input port names
func (p Ports) InNames() []string {
	names := make([]string, len(p.Ins))
	for i, in := range p.Ins {
		names[i] = in.String()
	}
	return names
}

// OutNames lists output port names
func (p Ports) OutNames() []string {
	names := make([]string, len(p.Outs))
	for i, out := range p.Outs {
		names[i] = out.String()
	}
	return names
}

// Scan lists ports, giving up after portTimeout or when ctx ends
func Scan(ctx context.Context) (Ports, error) {
	ch := make(chan Ports, 1)
	go func() {
		ch <- Ports{Ins: gomidi.GetInPorts(), Outs: gomidi.GetOutPorts()}
	}()

	select {
	case p := <-ch:
		return p, nil
	case <-ctx.Done():
		return Ports{}, ctx.Err()
	case <-time.After(portTimeout):
		// User needs to run: sudo killall coreaudiod midiserver
		debug.Log("midi", "port scan timed out after %v", portTimeout)
		return Ports{}, fmt.Errorf("port scan timed out after %v", portTimeout)
	}
}

// FindIn picks the input whose name matches want
func (p Ports) FindIn(want string) (drivers.In, error) {
	for _, exact := range []bool{true, false} {
		for _, in := range p.Ins {
			if matchName(in.String(), want, exact) {
				return in, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no input port %q", ErrDeviceUnavailable, want)
}

// FindOut picks the output whose name matches want
func (p Ports) FindOut(want string) (drivers.Out, error) {
	for _, exact := range []bool{true, false} {
		for _, out := range p.Outs {
			if matchName(out.String(), want, exact) {
				return out, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no output port %q", ErrDeviceUnavailable, want)
}

// matchName compares exactly, or loosely by case-insensitive substring since
// drivers decorate port names with client ids
func matchName(name, want string, exact bool) bool {
	if want == "" {
		return false
	}
	if exact {
		return name == want
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(want))
}

// Watch rescans every interval and calls fn whenever the port set changes
func Watch(ctx context.Context, interval time.Duration, fn func(Ports)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := ""
	check := func() {
		p, err := Scan(ctx)
		if err != nil {
			return
		}
		key := strings.Join(p.InNames(), ",") + "|" + strings.Join(p.OutNames(), ",")
		if key != last {
			last = key
			fn(p)
		}
	}

	// Initial scan
	check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

// CloseDriver releases the MIDI driver
func CloseDriver() {
	gomidi.CloseDriver()
}
