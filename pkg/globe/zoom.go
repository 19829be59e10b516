package globe

import (
	"math"

	"github.com/sudorandom/dc-globe/pkg/metrics"
)

type ZoomConfig struct {
	Initial      float64
	Min          float64
	Max          float64
	Step         float64
	TiltDegrees  float64
	BaseDistance float64
}

func DefaultZoomConfig() ZoomConfig {
	return ZoomConfig{
		Initial:      1.4,
		Min:          0.8,
		Max:          8.0,
		Step:         1.2,
		TiltDegrees:  5,
		BaseDistance: 24,
	}
}

// ZoomState is owned by ZoomController.
type ZoomState struct {
	Level float64
	Min   float64
	Max   float64
	Step  float64
}

// ZoomController maps a zoom level onto camera distance, with a small camera
// pitch per step so zooming reads as descending toward the surface.
type ZoomController struct {
	cfg     ZoomConfig
	state   ZoomState
	surface Surface
	tilter  Tilter
	tilt    float64
}

func NewZoomController(surface Surface, cfg ZoomConfig) *ZoomController {
	z := &ZoomController{
		cfg:     cfg,
		surface: surface,
		state: ZoomState{
			Level: clampSpan(cfg.Initial, cfg.Min, cfg.Max),
			Min:   cfg.Min,
			Max:   cfg.Max,
			Step:  cfg.Step,
		},
	}
	if t, ok := surface.(Tilter); ok {
		z.tilter = t
	}
	return z
}

func (z *ZoomController) Level() float64 {
	return z.state.Level
}

func (z *ZoomController) State() ZoomState {
	return z.state
}

// Tilt is the camera pitch accumulated by zoom steps since the last reset.
func (z *ZoomController) Tilt() float64 {
	return z.tilt
}

// Distance is the camera distance for the current level.
func (z *ZoomController) Distance() float64 {
	return z.cfg.BaseDistance / z.state.Level
}

func (z *ZoomController) ZoomIn() {
	z.setLevel(math.Min(z.state.Level*z.state.Step, z.state.Max), z.cfg.TiltDegrees)
}

func (z *ZoomController) ZoomOut() {
	z.setLevel(math.Max(z.state.Level/z.state.Step, z.state.Min), -z.cfg.TiltDegrees)
}

// Reset restores the initial level and removes any accumulated tilt.
func (z *ZoomController) Reset() {
	z.state.Level = clampSpan(z.cfg.Initial, z.cfg.Min, z.cfg.Max)
	if z.tilter != nil && z.tilt != 0 {
		z.tilter.TiltCamera(-z.tilt)
	}
	z.tilt = 0
	z.Apply()
}

// Apply pushes the current level to the surface.
func (z *ZoomController) Apply() {
	z.surface.SetCameraDistance(z.Distance())
	z.surface.Render()
	metrics.ZoomLevel.Set(z.state.Level)
}

func (z *ZoomController) setLevel(level, tilt float64) {
	changed := level != z.state.Level
	z.state.Level = level
	// at a boundary only the unchanged camera state is re-applied
	if changed && tilt != 0 && z.tilter != nil {
		z.tilter.TiltCamera(tilt)
		z.tilt += tilt
	}
	z.Apply()
}
