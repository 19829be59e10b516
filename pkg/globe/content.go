package globe

import (
	"strconv"
	"strings"

	"github.com/biter777/countries"
)

type DetailRow struct {
	Label string
	Value string
}

type MemberView struct {
	Index    int
	Name     string
	Expanded bool
	Details  []DetailRow
}

// PopupContent is the view model of the info panel for one region.
type PopupContent struct {
	RegionKey     string
	CountryCode   string
	CountryName   string
	RegionDisplay string
	Multiple      bool
	Members       []MemberView
}

// BuildContent renders a group into panel content with one member expanded.
// Single-facility groups always show their only member expanded.
func BuildContent(g *RegionGroup, expanded int) PopupContent {
	first := g.First()
	cc := regionCountryCode(first.Region)
	c := PopupContent{
		RegionKey:     g.Key,
		CountryCode:   cc,
		CountryName:   countryName(cc),
		RegionDisplay: regionDisplay(first.Region),
		Multiple:      g.IsMultiple(),
	}

	if !c.Multiple {
		expanded = 0
	}
	for i, f := range g.Members {
		mv := MemberView{Index: i, Name: f.Name, Expanded: i == expanded}
		if mv.Expanded {
			mv.Details = detailRows(f)
		}
		c.Members = append(c.Members, mv)
	}
	return c
}

func detailRows(f Facility) []DetailRow {
	return []DetailRow{
		{"Data Center ID", f.ID},
		{"Data Center Owner", f.OwnerName},
		{"Replica Nodes", strconv.Itoa(f.Replicas())},
		{"API Boundary Nodes", strconv.Itoa(f.BoundaryNodes)},
		{"Total Nodes", strconv.Itoa(f.TotalNodes)},
		{"Node Providers", strconv.Itoa(f.ProviderCount)},
		{"Subnets", strconv.Itoa(f.SubnetCount)},
	}
}

// regionCountryCode extracts the country code from a "Continent,CC,City"
// region string, lowercased. Missing codes map to "un".
func regionCountryCode(region string) string {
	parts := strings.Split(region, ",")
	if len(parts) < 2 {
		return "un"
	}
	cc := strings.ToLower(strings.TrimSpace(parts[1]))
	if cc == "" {
		return "un"
	}
	return cc
}

func regionDisplay(region string) string {
	parts := strings.Split(region, ",")
	if len(parts) >= 3 {
		return strings.Join(parts[:3], ",")
	}
	return region
}

func countryName(cc string) string {
	if cc == "un" {
		return Unknown
	}
	name := countries.ByName(strings.ToUpper(cc)).String()
	if name == "Unknown" {
		return strings.ToUpper(cc)
	}
	if idx := strings.Index(name, " ("); idx != -1 {
		name = name[:idx]
	}
	return name
}
