package midi

import (
	"fmt"
	"sync"

	"generation-x/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// TrackerNotes maps each column's pads, newest first, to LED note numbers
var TrackerNotes = [Columns][ColumnHeight]uint8{
	{104, 96, 88, 80, 72, 64, 56, 48},
	{105, 97, 89, 81, 73, 65, 57, 49},
	{106, 98, 90, 82, 74, 66, 58, 50},
	{107, 99, 91, 83, 75, 67, 59, 51},
	{108, 100, 92, 84, 76, 68, 60, 52},
	{109, 101, 93, 85, 77, 69, 61, 53},
}

// Jam is a Native Instruments Maschine Jam used as a control surface.
// Control changes arrive on Events; LED feedback goes out as note-on and
// control-change messages. Either side may be missing.
type Jam struct {
	id       string
	mu       sync.Mutex
	send     func(msg gomidi.Message) error
	stopFunc func()

	events chan ControlEvent
}

// NewJam builds a Jam around a send function with no input attached
func NewJam(id string, send func(msg gomidi.Message) error) *Jam {
	return &Jam{
		id:     id,
		send:   send,
		events: make(chan ControlEvent, 32),
	}
}

// OpenJam opens the controller's ports. The returned Jam is always usable;
// the error reports whether input (required to register control) or output
// is missing.
func OpenJam(ports Ports, inName, outName string) (*Jam, error) {
	j := NewJam(inName, nil)

	var outErr error
	if outPort, err := ports.FindOut(outName); err != nil {
		outErr = err
	} else if send, err := gomidi.SendTo(outPort); err != nil {
		outErr = fmt.Errorf("%w: open output %q: %v", ErrDeviceUnavailable, outName, err)
	} else {
		j.send = send
	}
	if outErr != nil {
		debug.Log("jam", "warn: %v", outErr)
	}

	inPort, err := ports.FindIn(inName)
	if err != nil {
		debug.Log("jam", "warn: %v", err)
		return j, err
	}
	if err := j.listen(inPort); err != nil {
		debug.Log("jam", "warn: %v", err)
		return j, err
	}
	debug.Log("jam", "listening on %s", inPort.String())
	return j, outErr
}

func (j *Jam) listen(in drivers.In) error {
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		j.handle(msg)
	})
	if err != nil {
		return fmt.Errorf("%w: open input %q: %v", ErrDeviceUnavailable, in.String(), err)
	}
	j.stopFunc = stop
	return nil
}

// handle queues control changes without blocking the driver callback
func (j *Jam) handle(msg gomidi.Message) {
	var channel, cc, value uint8
	if !msg.GetControlChange(&channel, &cc, &value) {
		return
	}
	select {
	case j.events <- ControlEvent{Control: cc, Value: value}:
	default:
		debug.Log("jam", "event queue full, dropped cc %d=%d", cc, value)
	}
}

func (j *Jam) ID() string {
	return j.id
}

// Events delivers control changes from the controller
func (j *Jam) Events() <-chan ControlEvent {
	return j.events
}

// Listening reports whether control input is attached
func (j *Jam) Listening() bool {
	return j.stopFunc != nil
}

func (j *Jam) write(msg gomidi.Message) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.send == nil {
		return nil
	}
	return j.send(msg)
}

// RefreshColumn lights each pad whose velocity is above zero
func (j *Jam) RefreshColumn(col int, velocities []uint8) error {
	if col < 0 || col >= Columns {
		return fmt.Errorf("column %d out of range", col)
	}
	if len(velocities) != ColumnHeight {
		return fmt.Errorf("column %d: %d values, want %d", col, len(velocities), ColumnHeight)
	}
	for i, note := range TrackerNotes[col] {
		v := ValueOff
		if velocities[i] > 0 {
			v = ValueOn
		}
		if err := j.write(gomidi.NoteOn(0, note, v)); err != nil {
			return err
		}
	}
	return nil
}

// SetTransport lights the play button
func (j *Jam) SetTransport(on bool) error {
	return j.write(gomidi.ControlChange(0, CCTransport, onOff(on)))
}

// SetMute lights a column's mute button when the channel is audible
func (j *Jam) SetMute(col int, audible bool) error {
	if col < 0 || col >= Columns {
		return fmt.Errorf("column %d out of range", col)
	}
	return j.write(gomidi.ControlChange(0, CCMuteFirst+uint8(col), onOff(audible)))
}

// SetKnob moves the knob LED ring
func (j *Jam) SetKnob(value uint8) error {
	return j.write(gomidi.ControlChange(0, CCTempoKnob, value&0x7f))
}

// Reset clears the grid, turns transport off, shows the mute states and
// centres the knob
func (j *Jam) Reset(audible []bool) error {
	var empty [ColumnHeight]uint8
	for col := range Columns {
		if err := j.RefreshColumn(col, empty[:]); err != nil {
			return err
		}
	}
	if err := j.SetTransport(false); err != nil {
		return err
	}
	for col := range Columns {
		on := true
		if col < len(audible) {
			on = audible[col]
		}
		if err := j.SetMute(col, on); err != nil {
			return err
		}
	}
	return j.SetKnob(KnobCenter)
}

// Close detaches input and output
func (j *Jam) Close() error {
	if j.stopFunc != nil {
		j.stopFunc()
		j.stopFunc = nil
	}
	j.mu.Lock()
	j.send = nil
	j.mu.Unlock()
	return nil
}

func onOff(on bool) uint8 {
	if on {
		return ValueOn
	}
	return ValueOff
}
