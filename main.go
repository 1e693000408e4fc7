package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"generation-x/config"
	"generation-x/debug"
	"generation-x/generate"
	"generation-x/midi"
	"generation-x/music"
	"generation-x/remote"
	"generation-x/sequencer"
	"generation-x/theme"
	"generation-x/tui"
)

type options struct {
	configPath  string
	tonic       string
	scale       string
	tempo       int
	rest        int
	seed        int64
	palette     string
	mode        string
	debug       bool
	writeConfig string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "run file (.json, .yaml); default ~/.config/generation-x/config.json")
	flag.StringVar(&opts.tonic, "tonic", "", "tonic of the base scale (c, c#, d, ...)")
	flag.StringVar(&opts.scale, "scale", "", "scale type: "+scaleTypes())
	flag.IntVar(&opts.tempo, "tempo", 0, fmt.Sprintf("base tempo for the default sequences (%d-%d)", config.MinTempo, config.MaxTempo))
	flag.IntVar(&opts.rest, "rest", 0, fmt.Sprintf("rest factor for the default sequences (%d-%d)", config.MinRest, config.MaxRest))
	flag.Int64Var(&opts.seed, "seed", 0, "random seed; 0 picks one from the clock")
	flag.StringVar(&opts.palette, "palette", "", "GIMP .gpl palette for the console view")
	flag.StringVar(&opts.mode, "mode", "tui", "tui, headless or mcp")
	flag.BoolVar(&opts.debug, "debug", false, "log to ~/.config/generation-x/debug.log")
	flag.StringVar(&opts.writeConfig, "write-config", "", "write the effective run config to this path and exit")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func scaleTypes() string {
	var names []string
	for _, t := range music.ScaleTypes() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

// loadConfig reads the run file and lets explicitly set flags win
func loadConfig(opts options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tonic":
			cfg.Tonic = opts.tonic
		case "scale":
			cfg.Scale = opts.scale
		case "tempo":
			cfg.Tempo = opts.tempo
		case "rest":
			cfg.Rest = opts.rest
		case "seed":
			cfg.Seed = opts.seed
		case "palette":
			cfg.Palette = opts.palette
		}
	})
	return cfg, cfg.Validate()
}

func run(opts options) error {
	// stdout belongs to the protocol in mcp mode
	var console io.Writer = os.Stdout
	switch opts.mode {
	case "tui", "headless":
	case "mcp":
		console = os.Stderr
	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}

	if opts.debug {
		if err := debug.Enable(); err != nil {
			return fmt.Errorf("debug log: %w", err)
		}
		defer debug.Disable()
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if opts.writeConfig != "" {
		if err := cfg.SaveFile(opts.writeConfig); err != nil {
			return err
		}
		fmt.Fprintf(console, "wrote %s\n", opts.writeConfig)
		return nil
	}

	base, err := cfg.MusicScale()
	if err != nil {
		return err
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	seqs, err := generate.Sequences(params, base, rng)
	if err != nil {
		return err
	}

	fmt.Fprintln(console, "generation-x")
	fmt.Fprintf(console, "%s, seed %d\n", base, seed)
	for i, seq := range seqs {
		line := config.FormatLine(params[i])
		debug.Log("gen", "SEQ%d %s %s %s %v", i, seq.ID, line, seq.Meter, music.FormatBars(seq.Bars))
		if opts.mode == "headless" {
			fmt.Fprintf(console, "  %d %-28s %s\n", i+1, line, strings.Join(music.FormatBars(seq.Bars), " | "))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ports, err := midi.Scan(ctx)
	if err != nil {
		fmt.Fprintf(console, "MIDI: %v\n", err)
	}
	out, outErr := midi.OpenOutput(ports, cfg.Ports.Output)
	jam, jamErr := midi.OpenJam(ports, cfg.Ports.ControllerIn, cfg.Ports.ControllerOut)
	devices := deviceStatus(out, outErr, jam, jamErr)
	fmt.Fprintln(console, devices)
	defer midi.CloseDriver()

	session, err := sequencer.NewSession(base, params, seqs, out, jam, rng)
	if err != nil {
		return err
	}
	handler := sequencer.NewControlHandler(session)

	if err := jam.Reset(nil); err != nil {
		debug.Log("jam", "reset: %v", err)
	}
	session.SyncFeedback()
	if !jam.Listening() {
		// nothing could ever press play
		session.SetPlaying(true)
	}

	go handler.Run(ctx, jam.Events())
	if debug.Enabled() {
		go midi.Watch(ctx, 5*time.Second, func(p midi.Ports) {
			debug.Log("midi", "ports in=%v out=%v", p.InNames(), p.OutNames())
		})
	}
	session.Start(ctx)

	switch opts.mode {
	case "tui":
		th, err := loadTheme(cfg.Palette)
		if err != nil {
			fmt.Fprintf(console, "Palette: %v (using default)\n", err)
		}
		p := tea.NewProgram(tui.NewModel(session, handler, th, devices), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fmt.Fprintf(console, "Error: %v\n", err)
		}

	case "headless":
		fmt.Fprintln(console, "Ctrl+C to stop")
		<-ctx.Done()

	case "mcp":
		if err := remote.NewServer(session, handler).Serve(); err != nil {
			fmt.Fprintf(console, "Server error: %v\n", err)
		}
	}

	stop()
	session.Wait()
	out.Close()
	if err := jam.Reset(nil); err != nil {
		debug.Log("jam", "reset: %v", err)
	}
	jam.Close()
	return nil
}

func loadTheme(path string) (*theme.Theme, error) {
	if path == "" {
		return theme.New(nil), nil
	}
	pal, err := theme.LoadGPL(path)
	if err != nil {
		return theme.New(nil), err
	}
	return theme.New(pal), nil
}

func deviceStatus(out *midi.Output, outErr error, jam *midi.Jam, jamErr error) string {
	outState := "out: " + out.Name()
	if outErr != nil {
		outState += " (not found, notes dropped)"
	}
	jamState := "controller: " + jam.ID()
	switch {
	case !jam.Listening():
		jamState += " (not found, auto-play)"
	case jamErr != nil:
		jamState += " (no LED feedback)"
	}
	return outState + "  " + jamState
}
