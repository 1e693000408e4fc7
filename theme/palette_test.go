package theme

import (
	"strings"
	"testing"
)

const gpl = `GIMP Palette
Name: Test Ramp
Columns: 2
# black to white
0 0 0	black
255 255 255	white
`

func TestParseGPL(t *testing.T) {
	p, err := ParseGPL(strings.NewReader(gpl))
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Test Ramp" || len(p.Colors) != 2 {
		t.Fatalf("got %+v", p)
	}
	if _, err := ParseGPL(strings.NewReader("GIMP Palette\n")); err == nil {
		t.Error("empty palette should fail")
	}
}

func TestLookup(t *testing.T) {
	p, _ := ParseGPL(strings.NewReader(gpl))
	tests := []struct {
		norm float64
		want RGB
	}{
		{-1, RGB{0, 0, 0}},
		{0, RGB{0, 0, 0}},
		{0.5, RGB{127, 127, 127}},
		{1, RGB{255, 255, 255}},
		{2, RGB{255, 255, 255}},
	}
	for _, tt := range tests {
		if got := p.Lookup(tt.norm); got != tt.want {
			t.Errorf("Lookup(%v) = %v, want %v", tt.norm, got, tt.want)
		}
	}
}

func TestThemeVelocity(t *testing.T) {
	th := New(nil)
	pal := DefaultPalette()
	if th.Velocity(0) != pal.Colors[0] {
		t.Error("velocity 0 should be the first color")
	}
	if th.Velocity(127) != pal.Colors[len(pal.Colors)-1] {
		t.Error("velocity 127 should be the last color")
	}
}
