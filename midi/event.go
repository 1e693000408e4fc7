package midi

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// ControlEvent is one control change received from the controller
type ControlEvent struct {
	Control uint8
	Value   uint8
}

// Maschine Jam control numbers
const (
	CCTriggerFirst uint8 = 0  // 0-5 column triggers
	CCMuteFirst    uint8 = 8  // 8-13 column mute buttons
	CCTempoKnob    uint8 = 42 // absolute knob, 63 is centre
	CCScalePrev    uint8 = 91
	CCScaleNext    uint8 = 92
	CCTransport    uint8 = 94

	// Columns is the number of channel columns on the controller
	Columns = 6
	// ColumnHeight is the number of pads per column
	ColumnHeight = 8

	ValueOn    uint8 = 127
	ValueOff   uint8 = 0
	KnobCenter uint8 = 63
)

// IsTrigger reports whether cc is one of the column trigger buttons
func IsTrigger(cc uint8) bool {
	return cc >= CCTriggerFirst && cc < CCTriggerFirst+Columns
}

// IsMute reports whether cc is one of the column mute buttons
func IsMute(cc uint8) bool {
	return cc >= CCMuteFirst && cc < CCMuteFirst+Columns
}
