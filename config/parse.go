package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"generation-x/generate"
	"generation-x/music"
)

var ErrInvalidLine = errors.New("invalid sequence line")

// ParseLine reads one sequence line:
//
//	r|bars|octave|tempo|rest|U/L
//	a|bars|total|octave|tempo|mode|start|U/L
//
// Numeric fields are "base" or "base:lo.hi", the latter resolving to base
// plus a uniform offset in [lo, hi]. Missing or empty fields keep defaults.
func ParseLine(line string) (generate.Params, error) {
	parts := strings.Split(strings.TrimSpace(line), "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	field := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}

	switch strings.ToLower(parts[0]) {
	case "r":
		p := generate.DefaultRandom()
		err := firstErr(
			parseValue(field(1), &p.Bars),
			parseValue(field(2), &p.Octave),
			parseValue(field(3), &p.Tempo),
			parseInt(field(4), &p.Rest),
			parseMeter(field(5), &p.Common),
		)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", line, err)
		}
		if p.Rest < 0 || p.Rest > 100 {
			return nil, fmt.Errorf("%w: %q: rest %d outside 0-100", ErrInvalidLine, line, p.Rest)
		}
		return p, nil

	case "a":
		p := generate.DefaultArpeggio()
		err := firstErr(
			parseValue(field(1), &p.Bars),
			parseValue(field(2), &p.TotalNotes),
			parseValue(field(3), &p.Octave),
			parseValue(field(4), &p.Tempo),
			parseMeter(field(7), &p.Common),
		)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", line, err)
		}
		if m := field(5); m != "" {
			if _, err := generate.ParseMode(m); err != nil {
				return nil, fmt.Errorf("%q: %w", line, err)
			}
			p.Mode = m
		}
		if n := field(6); n != "" {
			if _, err := music.ParsePitchClass(n); err != nil {
				return nil, fmt.Errorf("%q: %w", line, err)
			}
			p.StartNote = strings.ToLower(n)
		}
		return p, nil
	}

	return nil, fmt.Errorf("%w: %q", generate.ErrUnsupportedKind, parts[0])
}

// ParseLines parses every line, reporting the first failure by line number.
// Blank lines and lines starting with # are skipped.
func ParseLines(lines []string) ([]generate.Params, error) {
	out := make([]generate.Params, 0, len(lines))
	for i, l := range lines {
		if l = strings.TrimSpace(l); l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		p, err := ParseLine(l)
		if err != nil {
			return nil, fmt.Errorf("sequence %d: %w", i+1, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// FormatLine writes a record back in line form
func FormatLine(p generate.Params) string {
	c := p.Shared()
	meter := fmt.Sprintf("%d/%d", c.Upper, c.Lower)
	switch p := p.(type) {
	case generate.RandomParams:
		return strings.Join([]string{"r", p.Bars.String(), p.Octave.String(), p.Tempo.String(), strconv.Itoa(p.Rest), meter}, "|")
	case generate.ArpeggioParams:
		return strings.Join([]string{"a", p.Bars.String(), p.TotalNotes.String(), p.Octave.String(), p.Tempo.String(), p.Mode, p.StartNote, meter}, "|")
	}
	return ""
}

// DefaultSequences is the stock six-channel set for a base tempo and rest factor
func DefaultSequences(tempo, rest int) []string {
	return []string{
		fmt.Sprintf("a|3|6|4|%d|3th down|c|8/16", tempo),
		fmt.Sprintf("a|3|5|6|%d|3th down|d|8/16", tempo/2),
		fmt.Sprintf("a|3|6|4|%d|5th up|f|12/16", tempo/4),
		fmt.Sprintf("r|3|3|%d:-5.5|%d|5/4", tempo, rest),
		fmt.Sprintf("r|3|4|%d:-5.5|%d|4/4", tempo, rest),
		fmt.Sprintf("r|1|3|%d:-10.10|%d|13/8", tempo+10, rest),
	}
}

func parseValue(s string, v *generate.Value) error {
	if s == "" {
		return nil
	}
	base, rng, hasRange := strings.Cut(s, ":")
	b, err := strconv.Atoi(base)
	if err != nil {
		return fmt.Errorf("%w: value %q", ErrInvalidLine, s)
	}
	if !hasRange {
		*v = generate.Fixed(b)
		return nil
	}
	lo, hi, ok := strings.Cut(rng, ".")
	if !ok {
		// "base:" without a usable range falls back to the base
		*v = generate.Fixed(b)
		return nil
	}
	l, err1 := strconv.Atoi(lo)
	h, err2 := strconv.Atoi(hi)
	if err1 != nil || err2 != nil {
		return fmt.Errorf("%w: range %q", ErrInvalidLine, s)
	}
	*v = generate.Range(b, l, h)
	return nil
}

func parseInt(s string, v *int) error {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%w: number %q", ErrInvalidLine, s)
	}
	*v = n
	return nil
}

func parseMeter(s string, c *generate.Common) error {
	if s == "" {
		return nil
	}
	upper, lower, hasLower := strings.Cut(s, "/")
	u, err := strconv.Atoi(upper)
	if err != nil {
		return fmt.Errorf("%w: meter %q", ErrInvalidLine, s)
	}
	l := c.Lower
	if hasLower {
		if l, err = strconv.Atoi(lower); err != nil {
			return fmt.Errorf("%w: meter %q", ErrInvalidLine, s)
		}
	}
	if _, err := music.NewTempoMeter(1, u, l); err != nil {
		return err
	}
	c.Upper, c.Lower = u, l
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
