// Package globe implements the interactive marker overlay of the data center
// globe: projection, region clustering, batched marker construction, the
// hover popup state machine, popup placement and camera zoom.
//
// Everything in this package runs on the render loop's goroutine. Nothing
// here takes locks; each piece of mutable state has exactly one owner.
package globe

import "strings"

// Unknown is substituted for missing text fields.
const Unknown = "Unknown"

// Facility is one data center as delivered by the data source.
type Facility struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	OwnerName     string  `json:"owner"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Region        string  `json:"region"`
	TotalNodes    int     `json:"total_nodes"`
	ReplicaNodes  int     `json:"replica_nodes"`
	BoundaryNodes int     `json:"boundary_nodes"`
	ProviderCount int     `json:"provider_count"`
	SubnetCount   int     `json:"subnet_count"`
}

// Normalized returns a copy with blank text fields replaced by Unknown and
// negative counts zeroed. The region key is only substituted when empty;
// otherwise it passes through untouched.
func (f Facility) Normalized() Facility {
	if strings.TrimSpace(f.Name) == "" {
		f.Name = Unknown
	}
	if strings.TrimSpace(f.OwnerName) == "" {
		f.OwnerName = Unknown
	}
	if f.Region == "" {
		f.Region = Unknown
	}
	for _, n := range []*int{&f.TotalNodes, &f.ReplicaNodes, &f.BoundaryNodes, &f.ProviderCount, &f.SubnetCount} {
		if *n < 0 {
			*n = 0
		}
	}
	return f
}

// Replicas is the replica node count, falling back to the total when the
// source did not report replicas separately.
func (f Facility) Replicas() int {
	if f.ReplicaNodes > 0 {
		return f.ReplicaNodes
	}
	return f.TotalNodes
}
