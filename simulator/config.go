package simulator

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/seikichi/icfpc2022/isl"
	"github.com/seikichi/icfpc2022/raster"
)

type initialBlock struct {
	BlockID            string    `json:"blockId"`
	BottomLeft         []int32   `json:"bottomLeft"`
	TopRight           []int32   `json:"topRight"`
	Color              []float32 `json:"color"`
	PngBottomLeftPoint []int32   `json:"pngBottomLeftPoint"`
}

type initialConfig struct {
	Width         int32          `json:"width"`
	Height        int32          `json:"height"`
	SourcePngJSON *string        `json:"sourcePngJSON"`
	SourcePngPNG  *string        `json:"sourcePngPNG"`
	Blocks        []initialBlock `json:"blocks"`
}

// LoadInitialState reads the optional initial-configuration JSON next
// to the problem image. A missing file means the default single white
// canvas-sized block [0] with cost version 0. The presence of
// sourcePngPNG selects cost-coefficient version 1.
func LoadInitialState(path string, img *raster.Image) (*State, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return InitialState(int32(img.Width()), int32(img.Height()), 0), nil
	}

	var config initialConfig
	if err := json.Unmarshal(content, &config); err != nil {
		return nil, fmt.Errorf("couldn't parse initial config %q: %w", path, err)
	}
	if int(config.Width) != img.Width() || int(config.Height) != img.Height() {
		return nil, fmt.Errorf("initial config %q is %dx%d but the image is %dx%d",
			path, config.Width, config.Height, img.Width(), img.Height())
	}

	s := &State{
		Blocks:       map[string]*SimpleBlock{},
		NextGlobalID: uint16(len(config.Blocks)),
	}
	if config.SourcePngPNG != nil {
		s.CostCoeffVersion = 1
	}
	for _, block := range config.Blocks {
		n, err := strconv.ParseUint(block.BlockID, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("blockId %q is not an integer: %w", block.BlockID, err)
		}
		if len(block.BottomLeft) != 2 || len(block.TopRight) != 2 {
			return nil, fmt.Errorf("block %q has malformed corners", block.BlockID)
		}
		p := isl.Point{block.BottomLeft[0], block.BottomLeft[1]}
		size := isl.Point{block.TopRight[0] - p.X, block.TopRight[1] - p.Y}
		color := isl.InvalidColor
		if len(block.Color) == 4 {
			color = isl.Color{
				R: block.Color[0] / 255.0,
				G: block.Color[1] / 255.0,
				B: block.Color[2] / 255.0,
				A: block.Color[3] / 255.0,
			}
		}
		id := isl.BlockId{uint16(n)}
		s.put(NewSimpleBlock(id, p, size, color))
	}
	return s, nil
}
