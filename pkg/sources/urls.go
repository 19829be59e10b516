// Package sources fetches the remote datasets drawn on the globe.
package sources

const (
	FacilitiesURL = "https://ic-api.internetcomputer.org/api/v3/data-centers"
	BoundariesURL = "https://raw.githubusercontent.com/nvkelso/natural-earth-vector/master/geojson/ne_110m_land.geojson"
)
