// Package remote exposes the live session as MCP tools over stdio, so an
// agent can drive the controller surface without the hardware.
package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"generation-x/debug"
	"generation-x/midi"
	"generation-x/sequencer"
)

const (
	Name    = "generation-x"
	Version = "1.0.0"
)

// Server turns tool calls into controller events
type Server struct {
	session *sequencer.Session
	handler *sequencer.ControlHandler
	mcp     *server.MCPServer
}

func NewServer(session *sequencer.Session, handler *sequencer.ControlHandler) *Server {
	s := &Server{
		session: session,
		handler: handler,
		mcp: server.NewMCPServer(
			Name,
			Version,
			server.WithToolCapabilities(false),
		),
	}

	s.mcp.AddTool(mcp.NewTool("generation-x_describe-session",
		mcp.WithDescription("Returns transport, scales, knob and the bars of every channel as JSON."),
	), s.describe)

	s.mcp.AddTool(mcp.NewTool("generation-x_transport",
		mcp.WithDescription("Starts or stops playback of all channels."),
		mcp.WithString("state", mcp.Required(), mcp.Description("play or stop")),
	), s.transport)

	s.mcp.AddTool(mcp.NewTool("generation-x_mute",
		mcp.WithDescription("Mutes or unmutes one channel. Muted channels keep advancing silently."),
		mcp.WithNumber("channel", mcp.Required(), mcp.Description("Channel number (1-6).")),
		mcp.WithString("state", mcp.Required(), mcp.Description("mute or unmute")),
	), s.mute)

	s.mcp.AddTool(mcp.NewTool("generation-x_regenerate",
		mcp.WithDescription("Generates new bars for a random channel. Arpeggio channels are rejected."),
		mcp.WithNumber("channel", mcp.Required(), mcp.Description("Channel number (1-6).")),
	), s.regenerate)

	s.mcp.AddTool(mcp.NewTool("generation-x_scale-step",
		mcp.WithDescription("Moves the quantize target one step around the circle of fifths."),
		mcp.WithString("direction", mcp.Required(), mcp.Description("up (next fifth) or down (previous fifth)")),
	), s.scaleStep)

	s.mcp.AddTool(mcp.NewTool("generation-x_tempo-knob",
		mcp.WithDescription("Sets the tempo knob. 63 plays every channel at its original tempo, 0 stops time, 127 doubles it."),
		mcp.WithNumber("value", mcp.Required(), mcp.Description("Knob value (0-127).")),
	), s.tempoKnob)

	s.mcp.AddTool(mcp.NewTool("generation-x_tempo-nudge",
		mcp.WithDescription("Moves one channel's tempo a single step. The tempo knob resets it."),
		mcp.WithNumber("channel", mcp.Required(), mcp.Description("Channel number (1-6).")),
		mcp.WithString("direction", mcp.Required(), mcp.Description("up or down")),
	), s.tempoNudge)

	return s
}

// Serve blocks serving stdio until the client goes away
func (s *Server) Serve() error {
	debug.Log("mcp", "serving %s %s on stdio", Name, Version)
	return server.ServeStdio(s.mcp)
}

type channelDescription struct {
	Channel  int      `json:"channel"`
	Kind     string   `json:"kind"`
	Muted    bool     `json:"muted"`
	Tempo    float64  `json:"tempo"`
	Original float64  `json:"original_tempo"`
	Meter    string   `json:"meter"`
	ID       string   `json:"generation"`
	Last     string   `json:"last_note"`
	Bars     []string `json:"bars"`
}

type sessionDescription struct {
	Playing  bool                 `json:"playing"`
	Scale    string               `json:"scale"`
	Quantize string               `json:"quantize,omitempty"`
	Knob     uint8                `json:"knob"`
	Channels []channelDescription `json:"channels"`
}

func describeSession(v sequencer.View) sessionDescription {
	d := sessionDescription{
		Playing: v.Playing,
		Scale:   v.Base.String(),
		Knob:    v.Knob,
	}
	if v.Quantize != nil {
		d.Quantize = v.Quantize.String()
	}
	for i, t := range v.Tracks {
		d.Channels = append(d.Channels, channelDescription{
			Channel:  i + 1,
			Kind:     string(t.Kind),
			Muted:    t.Muted,
			Tempo:    t.Tempo,
			Original: t.OriginalTempo,
			Meter:    t.Meter.String(),
			ID:       t.Generation.String(),
			Last:     t.Last,
			Bars:     t.Bars,
		})
	}
	return d
}

func (s *Server) describe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	asJson, err := json.MarshalIndent(describeSession(s.session.Snapshot()), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return mcp.NewToolResultText(string(asJson)), nil
}

func (s *Server) transport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := request.RequireString("state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var value uint8
	switch state {
	case "play":
		value = midi.ValueOn
	case "stop":
		value = midi.ValueOff
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown state %q, want play or stop", state)), nil
	}
	return s.apply(midi.ControlEvent{Control: midi.CCTransport, Value: value}, "Transport: "+state)
}

func (s *Server) mute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ch, errResult := channel(request)
	if errResult != nil {
		return errResult, nil
	}
	state, err := request.RequireString("state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var value uint8
	switch state {
	case "mute":
		value = midi.ValueOff
	case "unmute":
		value = midi.ValueOn
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown state %q, want mute or unmute", state)), nil
	}
	return s.apply(midi.ControlEvent{Control: midi.CCMuteFirst + ch, Value: value},
		fmt.Sprintf("Channel %d: %s", ch+1, state))
}

func (s *Server) regenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ch, errResult := channel(request)
	if errResult != nil {
		return errResult, nil
	}
	res, err := s.apply(midi.ControlEvent{Control: midi.CCTriggerFirst + ch, Value: midi.ValueOn}, "")
	if err != nil || res.IsError {
		return res, err
	}
	v := s.session.Snapshot()
	bars, _ := json.Marshal(v.Tracks[ch].Bars)
	return mcp.NewToolResultText(fmt.Sprintf("Channel %d regenerated: %s", ch+1, bars)), nil
}

func (s *Server) scaleStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := request.RequireString("direction")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var cc uint8
	switch dir {
	case "up":
		cc = midi.CCScaleNext
	case "down":
		cc = midi.CCScalePrev
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown direction %q, want up or down", dir)), nil
	}
	if res, err := s.apply(midi.ControlEvent{Control: cc, Value: midi.ValueOn}, ""); err != nil || res.IsError {
		return res, err
	}
	if q := s.session.QuantizeTarget(); q != nil {
		return mcp.NewToolResultText("Quantizing to " + q.String()), nil
	}
	return mcp.NewToolResultText("Quantize off, playing in " + s.session.BaseScale().String()), nil
}

func (s *Server) tempoKnob(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := request.RequireInt("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if value < 0 || value > 127 {
		return mcp.NewToolResultError(fmt.Sprintf("knob value %d out of range 0-127", value)), nil
	}
	return s.apply(midi.ControlEvent{Control: midi.CCTempoKnob, Value: uint8(value)},
		fmt.Sprintf("Knob at %d", value))
}

func (s *Server) tempoNudge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ch, errResult := channel(request)
	if errResult != nil {
		return errResult, nil
	}
	dir, err := request.RequireString("direction")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if dir != "up" && dir != "down" {
		return mcp.NewToolResultError(fmt.Sprintf("unknown direction %q, want up or down", dir)), nil
	}
	if err := s.session.NudgeTempo(int(ch), dir == "up"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, _ := s.session.Track(int(ch))
	return mcp.NewToolResultText(fmt.Sprintf("Channel %d at %g bpm", ch+1, t.Seq.Tempo())), nil
}

// apply routes ev through the controller handler; handler errors become
// tool errors rather than protocol errors
func (s *Server) apply(ev midi.ControlEvent, okText string) (*mcp.CallToolResult, error) {
	debug.Log("mcp", "cc %d=%d", ev.Control, ev.Value)
	if err := s.handler.Handle(ev); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(okText), nil
}

// channel reads the 1-based channel argument as a 0-based column
func channel(request mcp.CallToolRequest) (uint8, *mcp.CallToolResult) {
	n, err := request.RequireInt("channel")
	if err != nil {
		return 0, mcp.NewToolResultError(err.Error())
	}
	if n < 1 || n > midi.Columns {
		return 0, mcp.NewToolResultError(fmt.Sprintf("channel %d out of range 1-%d", n, midi.Columns))
	}
	return uint8(n - 1), nil
}
