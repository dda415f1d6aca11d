package raster

import (
	"math/rand"

	"github.com/seikichi/icfpc2022/isl"
)

// KMeansColorSampling picks up to nColors representative colors for the
// window (sx, sy, w, h) of the image. Seeding follows k-means++: each
// new center is a pixel sampled with probability proportional to its
// squared distance from the nearest existing center. The seeds are then
// refined with nIter rounds of Lloyd iteration.
//
// Fewer than nColors colors come back when the window runs out of
// sufficiently distinct pixels.
func KMeansColorSampling(m *Image, nColors, nIter, sx, sy, w, h int, rng *rand.Rand) []isl.Color {
	if sx+w > m.Width() || sy+h > m.Height() {
		panic("raster: k-means window out of bounds")
	}

	samples := []isl.Color{m.Pix[sy+rng.Intn(h)][sx+rng.Intn(w)]}

	for iter := 0; len(samples) < nColors && iter < 100; iter++ {
		// squared distance to the nearest chosen center, per pixel
		nsd := make([][]float32, h)
		var dSum float32
		for dy := 0; dy < h; dy++ {
			nsd[dy] = make([]float32, w)
			for dx := 0; dx < w; dx++ {
				pixel := m.Pix[sy+dy][sx+dx]
				minDiff := float32(10000000.0)
				for _, sc := range samples {
					if diff := sc.Sub(pixel).LengthSq(); diff < minDiff {
						minDiff = diff
					}
				}
				nsd[dy][dx] = minDiff
				dSum += minDiff
			}
		}

		p := rng.Float32()
		cumsum := float32(0.0)
	sampling:
		for dy := 0; dy < h; dy++ {
			for dx := 0; dx < w; dx++ {
				cumsum += nsd[dy][dx] / dSum
				if p < cumsum {
					samples = append(samples, m.Pix[sy+dy][sx+dx])
					break sampling
				}
			}
		}
	}

	for i := 0; i < nIter; i++ {
		sum := make([]isl.Color, len(samples))
		count := make([]int, len(samples))

		for dy := 0; dy < h; dy++ {
			for dx := 0; dx < w; dx++ {
				pixel := m.Pix[sy+dy][sx+dx]
				minDiff := float32(10000000.0)
				best := 0
				for j, c := range samples {
					if diff := pixel.Sub(c).LengthSq(); diff < minDiff {
						minDiff = diff
						best = j
					}
				}
				sum[best] = sum[best].Add(pixel)
				count[best]++
			}
		}

		for j := range samples {
			if count[j] > 0 {
				samples[j] = sum[j].Scale(1.0 / float32(count[j]))
			}
		}
	}

	return samples
}
