package globe

// IconKind selects the marker glyph.
type IconKind int

const (
	IconSingle IconKind = iota
	IconMulti
)

func (k IconKind) String() string {
	if k == IconMulti {
		return "multi"
	}
	return "single"
}

// IconFor picks the glyph for a group.
func IconFor(g *RegionGroup) IconKind {
	if g.IsMultiple() {
		return IconMulti
	}
	return IconSingle
}

// MarkerHandle is one marker placed by the surface. Callbacks registered on
// it are invoked on the render loop goroutine.
type MarkerHandle interface {
	ID() int
	OnPointerEnter(fn func())
	OnPointerLeave(fn func())
	OnTap(fn func())
	Remove()
}

// Surface is the rendering capability the overlay drives.
type Surface interface {
	CreateSphere(radius float64)
	AddMarker(kind IconKind, pos Vec3, scale, opacity float64) (MarkerHandle, error)
	SetCameraDistance(d float64)
	SetAutoRotate(enabled bool)
	Render()
	Dispose()
}

// Tilter is implemented by surfaces that can pitch the camera.
type Tilter interface {
	TiltCamera(deltaDegrees float64)
}

// InteractionToggler is implemented by surfaces with drag/orbit controls
// that should freeze while a popup is open.
type InteractionToggler interface {
	SetInteractive(enabled bool)
}

// MarkerSink is the subset of Surface the scheduler needs.
type MarkerSink interface {
	AddMarker(kind IconKind, pos Vec3, scale, opacity float64) (MarkerHandle, error)
}
