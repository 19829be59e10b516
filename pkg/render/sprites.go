package render

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// markerAlpha is the white alpha mask of a marker glyph at pixel distance
// dist from the centre of a sprite with half-size maxDist. Single markers are
// a solid dot with a soft ring; multi markers add a second outer ring.
func markerAlpha(dist, maxDist float64, multi bool) float64 {
	if dist >= maxDist {
		return 0
	}
	d := dist / maxDist
	switch {
	case d < 0.45:
		return 1
	case d < 0.55:
		return math.Cos((d - 0.45) / 0.1 * (math.Pi / 2))
	case d >= 0.65 && d < 0.8:
		return 0.9 * math.Sin((d-0.65)/0.15*math.Pi)
	case multi && d >= 0.85:
		return 0.7 * math.Sin((d-0.85)/0.15*math.Pi)
	}
	return 0
}

func markerPixels(size int, multi bool) []byte {
	pixels := make([]byte, size*size*4)
	center, maxDist := float64(size)/2.0, float64(size)/2.0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)+0.5-center, float64(y)+0.5-center
			val := markerAlpha(math.Sqrt(dx*dx+dy*dy), maxDist, multi)
			if val <= 0 {
				continue
			}
			// premultiplied white
			a := uint8(val * 255)
			i := (y*size + x) * 4
			pixels[i+0], pixels[i+1], pixels[i+2], pixels[i+3] = a, a, a, a
		}
	}
	return pixels
}

func newMarkerSprite(size int, multi bool) *ebiten.Image {
	img := ebiten.NewImage(size, size)
	img.WritePixels(markerPixels(size, multi))
	return img
}
