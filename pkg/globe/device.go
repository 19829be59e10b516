package globe

import "fmt"

// DeviceClass describes the viewing device. It is decided once at startup
// and never re-derived.
type DeviceClass struct {
	Name           string
	IsTouchPrimary bool
}

var (
	Desktop = DeviceClass{Name: "desktop"}
	Tablet  = DeviceClass{Name: "tablet", IsTouchPrimary: true}
	Mobile  = DeviceClass{Name: "mobile", IsTouchPrimary: true}
)

func ParseDeviceClass(name string) (DeviceClass, error) {
	switch name {
	case "", Desktop.Name:
		return Desktop, nil
	case Tablet.Name:
		return Tablet, nil
	case Mobile.Name:
		return Mobile, nil
	}
	return DeviceClass{}, fmt.Errorf("unknown device class %q", name)
}

// GlobeRadius grows the sphere slightly on smaller viewports.
func (d DeviceClass) GlobeRadius() float64 {
	switch d.Name {
	case Mobile.Name:
		return 2.7
	case Tablet.Name:
		return 2.6
	default:
		return 2.5
	}
}
