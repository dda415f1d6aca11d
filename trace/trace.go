// Package trace records refinement progress as on-disk artifacts: a
// zstd-compressed JSON-lines log of accepted candidates and QOI
// snapshots of the best canvas so far. A nil *Recorder is a no-op, so
// planners can carry one unconditionally.
package trace

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/xfmoulet/qoi"
	"golang.org/x/image/draw"

	"github.com/seikichi/icfpc2022/raster"
)

// snapshotMinInterval throttles QOI writes: at most one snapshot per
// this many iterations.
const snapshotMinInterval = 2000

const thumbSize = 128

type Recorder struct {
	dir      string
	problem  string
	logFile  *os.File
	logEnc   *zstd.Encoder
	lastSnap int
}

// NewRecorder opens <dir>/<problem>.trace.jsonl.zst for the acceptance
// log. The directory must exist.
func NewRecorder(dir, problem string) (*Recorder, error) {
	path := filepath.Join(dir, problem+".trace.jsonl.zst")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't create trace log %q: %w", path, err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("couldn't open zstd stream: %w", err)
	}
	return &Recorder{dir: dir, problem: problem, logFile: f, logEnc: enc, lastSnap: -snapshotMinInterval}, nil
}

type acceptRecord struct {
	Iter  int   `json:"iter"`
	Score int64 `json:"score"`
}

// Accept logs one accepted candidate.
func (r *Recorder) Accept(iter int, score int64) {
	if r == nil {
		return
	}
	line, err := json.Marshal(acceptRecord{Iter: iter, Score: score})
	if err != nil {
		return
	}
	r.logEnc.Write(append(line, '\n'))
}

// Snapshot writes the current best canvas (and a thumbnail) as QOI,
// overwriting the previous snapshot. Calls closer together than the
// throttle interval are dropped.
func (r *Recorder) Snapshot(iter int, score int64, img *raster.Image) {
	if r == nil {
		return
	}
	if iter-r.lastSnap < snapshotMinInterval {
		return
	}
	r.lastSnap = iter

	std := toNRGBA(img)
	r.writeQOI(filepath.Join(r.dir, r.problem+".best.qoi"), std)

	thumb := image.NewNRGBA(image.Rect(0, 0, thumbScaled(img.Width(), img.Height()), thumbScaled(img.Height(), img.Width())))
	draw.ApproxBiLinear.Scale(thumb, thumb.Bounds(), std, std.Bounds(), draw.Src, nil)
	r.writeQOI(filepath.Join(r.dir, r.problem+".thumb.qoi"), thumb)
}

func thumbScaled(dim, other int) int {
	longest := max(dim, other)
	scaled := dim * thumbSize / longest
	return max(scaled, 1)
}

func (r *Recorder) writeQOI(path string, img image.Image) {
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	qoi.Encode(f, img)
}

// Close flushes and closes the acceptance log.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	if err := r.logEnc.Close(); err != nil {
		r.logFile.Close()
		return err
	}
	return r.logFile.Close()
}

// toNRGBA converts to screen orientation: canvas row 0 is the bottom,
// image row 0 is the top.
func toNRGBA(img *raster.Image) *image.NRGBA {
	w, h := img.Width(), img.Height()
	std := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := img.Pix[h-y-1]
		for x := 0; x < w; x++ {
			i := std.PixOffset(x, y)
			c := row[x]
			std.Pix[i+0] = clampByte(c.R)
			std.Pix[i+1] = clampByte(c.G)
			std.Pix[i+2] = clampByte(c.B)
			std.Pix[i+3] = clampByte(c.A)
		}
	}
	return std
}

func clampByte(f float32) uint8 {
	v := int(f*255.0 + 0.5)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
