package render

import (
	"path/filepath"
	"testing"

	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/raster"
	"github.com/seikichi/icfpc2022/simulator"
)

func TestWritePNGRoundTrip(t *testing.T) {
	img := raster.FromStringArray([]string{
		"rrgg",
		"bb#.",
		"..rr",
	})
	path := filepath.Join(t.TempDir(), "out.png")
	if err := WritePNG(img, path); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}

	loaded, err := raster.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Equal(img) {
		t.Errorf("Got:\n%swant:\n%s", loaded, img)
	}
}

func TestWriteOverlayPNG(t *testing.T) {
	initial := simulator.InitialState(8, 8, 0)
	state, err := simulator.SimulateAll(isl.Program{
		isl.PCut{BlockID: isl.BlockId{0}, Point: isl.Point{4, 4}},
		isl.ColorMove{BlockID: isl.BlockId{0, 0}, Color: isl.Color{1, 0, 0, 1}},
	}, initial)
	if err != nil {
		t.Fatalf("SimulateAll: %v", err)
	}
	img := simulator.RasterizeState(state, 8, 8)

	path := filepath.Join(t.TempDir(), "overlay.png")
	if err := WriteOverlayPNG(img, state, path); err != nil {
		t.Fatalf("WriteOverlayPNG: %v", err)
	}
	if _, err := raster.Load(path); err != nil {
		t.Errorf("overlay PNG doesn't decode: %v", err)
	}
}
