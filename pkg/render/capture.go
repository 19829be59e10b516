package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/sudorandom/dc-globe/pkg/logging"
)

// captureFileName is the PNG name for a frame captured at t.
func captureFileName(t time.Time) string {
	return fmt.Sprintf("globe-%s.png", t.Format("20060102-150405.000"))
}

// captureFrame copies the frame and writes it to dir in the background.
func captureFrame(img *ebiten.Image, dir string, timestamp time.Time) {
	if dir == "" {
		return
	}
	log := logging.Component("capture")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("Error creating capture directory")
		return
	}
	path := filepath.Join(dir, captureFileName(timestamp))

	// Read the pixels now; the screen image is reused by the next frame.
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	img.ReadPixels(rgba.Pix)

	go func() {
		if err := writePNG(path, rgba); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Error writing capture")
			return
		}
		log.Info().Str("path", path).Msg("Captured frame")
	}()
}

func writePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}
