package globe

// RegionGroup is every facility sharing one raw region string.
type RegionGroup struct {
	Key     string
	Members []Facility
}

func (g *RegionGroup) IsMultiple() bool {
	return len(g.Members) > 1
}

// First is the representative facility used for placement and mobile taps.
func (g *RegionGroup) First() Facility {
	if len(g.Members) == 0 {
		return Facility{}
	}
	return g.Members[0]
}

// Clusters maps region keys to groups and remembers first-occurrence order.
type Clusters struct {
	Keys   []string
	groups map[string]*RegionGroup
}

func (c *Clusters) Get(key string) (*RegionGroup, bool) {
	g, ok := c.groups[key]
	return g, ok
}

func (c *Clusters) Len() int {
	return len(c.Keys)
}

// Groups returns the groups in key order.
func (c *Clusters) Groups() []*RegionGroup {
	out := make([]*RegionGroup, 0, len(c.Keys))
	for _, k := range c.Keys {
		out = append(out, c.groups[k])
	}
	return out
}

// Flatten returns the members of every group in group order.
func (c *Clusters) Flatten() []Facility {
	var out []Facility
	for _, g := range c.Groups() {
		out = append(out, g.Members...)
	}
	return out
}

// Cluster groups facilities by their raw region string. Facilities with no
// nodes are dropped. No trimming or case folding is applied to the key, so
// "US,Ohio" and "us,ohio" are separate groups.
func Cluster(facilities []Facility) *Clusters {
	c := &Clusters{groups: make(map[string]*RegionGroup)}
	for _, f := range facilities {
		if f.TotalNodes <= 0 {
			continue
		}
		g, ok := c.groups[f.Region]
		if !ok {
			g = &RegionGroup{Key: f.Region}
			c.groups[f.Region] = g
			c.Keys = append(c.Keys, f.Region)
		}
		g.Members = append(g.Members, f)
	}
	return c
}
