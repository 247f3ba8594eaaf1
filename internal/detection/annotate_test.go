package detection

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/aruco-mcp/internal/imaging"
)

func TestAnnotate(t *testing.T) {
	src := createMarkerFrame(t, 320, 240, 555, 10, 100, 80)
	before := append([]uint8(nil), src.Pix...)

	markers := []Marker{{
		ID:      555,
		Corners: [4]imaging.Point{{X: 100, Y: 80}, {X: 169, Y: 80}, {X: 169, Y: 149}, {X: 100, Y: 149}},
	}}
	out := Annotate(src, markers)

	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds: got %v, want %v", out.Bounds(), src.Bounds())
	}
	for i := range before {
		if src.Pix[i] != before[i] {
			t.Fatal("Annotate modified its input")
		}
	}

	want := markerColor(555)
	tests := []struct {
		name string
		x, y int
	}{
		{"first corner", 100, 80},
		{"corner square", 98, 78},
		{"top edge", 130, 80},
		{"right edge", 169, 120},
		{"bottom edge", 130, 149},
		{"left edge", 100, 120},
	}
	for _, tt := range tests {
		if got := out.NRGBAAt(tt.x, tt.y); got != want {
			t.Errorf("%s (%d,%d): got %v, want %v", tt.name, tt.x, tt.y, got, want)
		}
	}

	// Interior pixels away from the outline and label keep their value.
	if got := out.NRGBAAt(160, 140); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("interior pixel changed: %v", got)
	}
}

func TestAnnotate_OffImageMarker(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 50, 50))
	markers := []Marker{{
		ID:      7,
		Corners: [4]imaging.Point{{X: -20, Y: -20}, {X: 80, Y: -20}, {X: 80, Y: 80}, {X: -20, Y: 80}},
	}}

	out := Annotate(src, markers)
	if out.Bounds().Dx() != 50 || out.Bounds().Dy() != 50 {
		t.Errorf("bounds: got %v", out.Bounds())
	}
}

func TestMarkerColor_Distinct(t *testing.T) {
	seen := make(map[color.NRGBA]int)
	for id := 0; id < 16; id++ {
		c := markerColor(id)
		if c.A != 255 {
			t.Errorf("id %d: alpha %d, want 255", id, c.A)
		}
		if prev, ok := seen[c]; ok {
			t.Errorf("ids %d and %d share colour %v", prev, id, c)
		}
		seen[c] = id
	}
}
