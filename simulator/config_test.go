package simulator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/raster"
)

func TestLoadInitialStateMissingFile(t *testing.T) {
	img := raster.New(40, 30)
	s, err := LoadInitialState(filepath.Join(t.TempDir(), "nope.initial.json"), img)
	if err != nil {
		t.Fatalf("LoadInitialState: %v", err)
	}
	if s.CostCoeffVersion != 0 || s.NextGlobalID != 1 {
		t.Errorf("Got version %d next id %d, want 0 and 1", s.CostCoeffVersion, s.NextGlobalID)
	}
	b := mustGet(t, s, isl.BlockId{0})
	if b.Size != (isl.Point{40, 30}) || b.Color != isl.White {
		t.Errorf("Got %+v, want a white canvas-sized block", b)
	}
}

func TestLoadInitialStateBlocks(t *testing.T) {
	config := `{
		"width": 10, "height": 10,
		"blocks": [
			{"blockId": "0", "bottomLeft": [0, 0], "topRight": [5, 10], "color": [255, 0, 0, 255]},
			{"blockId": "1", "bottomLeft": [5, 0], "topRight": [10, 10]}
		]
	}`
	path := filepath.Join(t.TempDir(), "1.initial.json")
	if err := os.WriteFile(path, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadInitialState(path, raster.New(10, 10))
	if err != nil {
		t.Fatalf("LoadInitialState: %v", err)
	}
	if s.CostCoeffVersion != 0 {
		t.Errorf("Got cost version %d, want 0", s.CostCoeffVersion)
	}
	if s.NextGlobalID != 2 {
		t.Errorf("Got next id %d, want 2", s.NextGlobalID)
	}
	b0 := mustGet(t, s, isl.BlockId{0})
	if b0.Color != (isl.Color{1, 0, 0, 1}) {
		t.Errorf("Got %v, want red", b0.Color)
	}
	b1 := mustGet(t, s, isl.BlockId{1})
	if !b1.Color.IsInvalid() {
		t.Errorf("Got %v, want InvalidColor for a block without color", b1.Color)
	}
	if b1.P != (isl.Point{5, 0}) || b1.Size != (isl.Point{5, 10}) {
		t.Errorf("Got %+v, want origin (5,0) size (5,10)", b1)
	}
}

func TestLoadInitialStateSourcePngSelectsVersion1(t *testing.T) {
	config := `{
		"width": 4, "height": 4,
		"sourcePngPNG": "source.png",
		"blocks": [{"blockId": "0", "bottomLeft": [0, 0], "topRight": [4, 4]}]
	}`
	path := filepath.Join(t.TempDir(), "2.initial.json")
	if err := os.WriteFile(path, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadInitialState(path, raster.New(4, 4))
	if err != nil {
		t.Fatalf("LoadInitialState: %v", err)
	}
	if s.CostCoeffVersion != 1 {
		t.Errorf("Got cost version %d, want 1", s.CostCoeffVersion)
	}
}

func TestLoadInitialStateBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "3.initial.json")
	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadInitialState(path, raster.New(4, 4)); err == nil {
		t.Errorf("LoadInitialState succeeded on malformed JSON, want error")
	}
}

func TestLoadInitialStateSizeMismatch(t *testing.T) {
	config := `{"width": 8, "height": 8, "blocks": []}`
	path := filepath.Join(t.TempDir(), "4.initial.json")
	if err := os.WriteFile(path, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadInitialState(path, raster.New(4, 4)); err == nil {
		t.Errorf("LoadInitialState succeeded on size mismatch, want error")
	}
}
