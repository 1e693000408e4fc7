package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"generation-x/config"
	"generation-x/midi"
	"generation-x/music"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer midi.CloseDriver()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}

	switch os.Args[1] {
	case "list":
		listPorts(ctx)
	case "detect":
		detect(ctx, cfg.Ports)
	case "echo":
		echo(ctx, cfg.Ports)
	case "leds":
		testLEDs(ctx, cfg.Ports)
	case "notes":
		testNotes(ctx, cfg.Ports)
	case "poll":
		pollDevices(ctx, cfg.Ports)
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list    - List all MIDI ports")
	fmt.Println("  detect  - Find the controller and output device")
	fmt.Println("  echo    - Print controller events")
	fmt.Println("  leds    - Test controller LEDs")
	fmt.Println("  notes   - Play a scale on the output device")
	fmt.Println("  poll    - Poll for device changes")
}

func scan(ctx context.Context) (midi.Ports, bool) {
	p, err := midi.Scan(ctx)
	if err != nil {
		fmt.Printf("\n%v\n", err)
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return p, false
	}
	return p, true
}

func listPorts(ctx context.Context) {
	fmt.Println("(waiting up to 3 seconds...)")
	p, ok := scan(ctx)
	if !ok {
		return
	}
	fmt.Println("=== MIDI Input Ports ===")
	for i, name := range p.InNames() {
		fmt.Printf("  %d: %s\n", i, name)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, name := range p.OutNames() {
		fmt.Printf("  %d: %s\n", i, name)
	}
}

func detect(ctx context.Context, names config.PortsConfig) {
	p, ok := scan(ctx)
	if !ok {
		return
	}
	report := func(kind, name string, err error) {
		if err != nil {
			fmt.Printf("  %-14s %v\n", kind, err)
			return
		}
		fmt.Printf("  %-14s found %s\n", kind, name)
	}

	in, err := p.FindIn(names.ControllerIn)
	report("controller in", portName(in), err)
	out, err := p.FindOut(names.ControllerOut)
	report("controller out", portName(out), err)
	dev, err := p.FindOut(names.Output)
	report("output", portName(dev), err)
}

func portName(p fmt.Stringer) string {
	if p == nil {
		return ""
	}
	return p.String()
}

func openJam(ctx context.Context, names config.PortsConfig) (*midi.Jam, bool) {
	p, ok := scan(ctx)
	if !ok {
		return nil, false
	}
	jam, err := midi.OpenJam(p, names.ControllerIn, names.ControllerOut)
	if err != nil {
		fmt.Printf("Controller: %v\n", err)
	}
	return jam, true
}

func echo(ctx context.Context, names config.PortsConfig) {
	jam, ok := openJam(ctx, names)
	if !ok {
		return
	}
	defer jam.Close()
	if !jam.Listening() {
		return
	}

	fmt.Println("Press controller buttons. Ctrl+C to exit.")
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-jam.Events():
			fmt.Printf("[%s] cc %3d = %3d  %s\n", time.Now().Format("15:04:05.000"), ev.Control, ev.Value, describe(ev))
		}
	}
}

func describe(ev midi.ControlEvent) string {
	switch {
	case midi.IsTrigger(ev.Control):
		return fmt.Sprintf("trigger %d", ev.Control-midi.CCTriggerFirst+1)
	case midi.IsMute(ev.Control):
		return fmt.Sprintf("mute %d", ev.Control-midi.CCMuteFirst+1)
	case ev.Control == midi.CCTransport:
		return "transport"
	case ev.Control == midi.CCScalePrev:
		return "scale down"
	case ev.Control == midi.CCScaleNext:
		return "scale up"
	case ev.Control == midi.CCTempoKnob:
		return "tempo knob"
	}
	return ""
}

func testLEDs(ctx context.Context, names config.PortsConfig) {
	jam, ok := openJam(ctx, names)
	if !ok {
		return
	}
	defer jam.Close()

	fmt.Println("Filling columns...")
	for col := range midi.Columns {
		var column [midi.ColumnHeight]uint8
		for row := range column {
			column[row] = uint8(127 - row*16)
			if err := jam.RefreshColumn(col, column[:]); err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			time.Sleep(30 * time.Millisecond)
		}
	}
	jam.SetTransport(true)

	fmt.Println("Press Enter to clear...")
	fmt.Scanln()

	if err := jam.Reset(nil); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Done!")
}

func testNotes(ctx context.Context, names config.PortsConfig) {
	p, ok := scan(ctx)
	if !ok {
		return
	}
	out, err := midi.OpenOutput(p, names.Output)
	if err != nil {
		fmt.Printf("Output: %v\n", err)
		return
	}
	defer out.Close()

	scale, _ := music.NewScale("c", string(music.Major))
	pitches, err := music.AllOctaveInstances(scale)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	start := music.IndexOf(pitches, scale.Tonic, 4)
	if start < 0 {
		return
	}

	fmt.Printf("Playing %s on %s, one channel per octave step...\n", scale, out.Name())
	for i := 0; i < 8 && start+i < len(pitches); i++ {
		pitch := pitches[start+i]
		pitch.Velocity = 100
		channel := uint8(i % midi.Columns)
		fmt.Printf("  ch %d %s\n", channel, pitch.FullName())
		if err := out.SendNote(channel, pitch, 200*time.Millisecond); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(250 * time.Millisecond):
		}
	}
	fmt.Println("Done!")
}

func pollDevices(ctx context.Context, names config.PortsConfig) {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect devices to test. Ctrl+C to exit.")

	midi.Watch(ctx, 2*time.Second, func(p midi.Ports) {
		fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
		fmt.Printf("  Inputs: %v\n", p.InNames())
		fmt.Printf("  Outputs: %v\n", p.OutNames())

		for _, name := range p.InNames() {
			if strings.EqualFold(name, names.ControllerIn) {
				fmt.Println("  -> Controller detected!")
			}
		}
		for _, name := range p.OutNames() {
			if strings.EqualFold(name, names.Output) {
				fmt.Println("  -> Output device detected!")
			}
		}
	})
}
