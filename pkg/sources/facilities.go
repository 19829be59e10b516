package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/sudorandom/dc-globe/pkg/globe"
	"github.com/sudorandom/dc-globe/pkg/logging"
	"github.com/sudorandom/dc-globe/pkg/metrics"
	"github.com/sudorandom/dc-globe/pkg/utils"
)

// ErrNoDataCenters is returned when the response has no data_centers field.
var ErrNoDataCenters = errors.New("response has no data_centers")

// FacilitySource loads data centers from the facility API.
type FacilitySource struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

func NewFacilitySource(url string, timeout time.Duration) *FacilitySource {
	return &FacilitySource{URL: url, Client: &http.Client{}, Timeout: timeout}
}

// Fetch downloads and normalizes the facility list. It never uses the disk
// cache: the list is small and the point of refetching is to see changes.
func (s *FacilitySource) Fetch(ctx context.Context) ([]globe.Facility, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	body, err := utils.GetCachedReader(ctx, s.Client, s.URL, "")
	if err != nil {
		metrics.FetchErrors.Inc()
		return nil, fmt.Errorf("fetch facilities: %w", err)
	}
	defer func() {
		if err := body.Close(); err != nil {
			logging.Debug().Err(err).Msg("Error closing response body")
		}
	}()

	facilities, err := ParseFacilities(body)
	if err != nil {
		metrics.FetchErrors.Inc()
		return nil, fmt.Errorf("fetch facilities: %w", err)
	}
	l := logging.Component("sources")
	l.Info().Int("facilities", len(facilities)).Str("url", s.URL).Msg("Fetched facilities")
	return facilities, nil
}

// count accepts a number, a numeric string, an array (counted by length) or
// null. Anything else counts as zero.
type count int

func (c *count) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*c = 0
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '[':
		var items []json.RawMessage
		if json.Unmarshal(b, &items) == nil {
			*c = count(len(items))
		}
	default:
		var n number
		_ = n.UnmarshalJSON(b)
		*c = count(n)
	}
	return nil
}

// number accepts a JSON number or a numeric string. Anything else, and
// non-finite values, decode as zero.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*n = 0
	if len(b) == 0 {
		return nil
	}
	var f float64
	switch b[0] {
	case '"':
		var s string
		if json.Unmarshal(b, &s) != nil {
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		f = v
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if json.Unmarshal(b, &f) != nil {
			return nil
		}
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*n = number(f)
	return nil
}

// text accepts a string or a number (kept as its literal). Anything else
// decodes as empty, which normalization turns into Unknown.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*t = ""
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if json.Unmarshal(b, &s) == nil {
			*t = text(s)
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*t = text(b)
	}
	return nil
}

type dataCenterRecord struct {
	Key           text   `json:"key"`
	Name          text   `json:"name"`
	Owner         text   `json:"owner"`
	Latitude      number `json:"latitude"`
	Longitude     number `json:"longitude"`
	Region        text   `json:"region"`
	TotalNodes    count  `json:"total_nodes"`
	ReplicaNodes  count  `json:"total_replica_nodes"`
	BoundaryNodes count  `json:"total_api_boundary_nodes"`
	NodeProviders count  `json:"node_providers"`
	Subnets       count  `json:"subnets"`
}

// ParseFacilities decodes a facility API response. data_centers may be an
// array or an object keyed by data center; objects are read in key order.
// Records are decoded one at a time: a record that is not an object is
// skipped, and malformed fields fall back to zero or Unknown.
func ParseFacilities(r io.Reader) ([]globe.Facility, error) {
	var resp struct {
		DataCenters json.RawMessage `json:"data_centers"`
	}
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	raw := bytes.TrimSpace(resp.DataCenters)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ErrNoDataCenters
	}

	l := logging.Component("sources")
	var records []dataCenterRecord
	decode := func(id string, item json.RawMessage) (dataCenterRecord, bool) {
		var rec dataCenterRecord
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			l.Warn().Str("record", id).Msg("Skipping data center record that is not an object")
			metrics.SkippedRecords.Inc()
			return rec, false
		}
		if err := json.Unmarshal(item, &rec); err != nil {
			l.Warn().Err(err).Str("record", id).Msg("Skipping undecodable data center record")
			metrics.SkippedRecords.Inc()
			return rec, false
		}
		return rec, true
	}

	switch raw[0] {
	case '{':
		var byKey map[string]json.RawMessage
		if err := json.Unmarshal(raw, &byKey); err != nil {
			return nil, fmt.Errorf("decode data_centers: %w", err)
		}
		for _, k := range slices.Sorted(maps.Keys(byKey)) {
			rec, ok := decode(k, byKey[k])
			if !ok {
				continue
			}
			if rec.Key == "" {
				rec.Key = text(k)
			}
			records = append(records, rec)
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode data_centers: %w", err)
		}
		for i, item := range items {
			if rec, ok := decode(strconv.Itoa(i), item); ok {
				records = append(records, rec)
			}
		}
	default:
		return nil, fmt.Errorf("decode data_centers: unexpected %q", raw[:1])
	}

	return normalize(records), nil
}

func normalize(records []dataCenterRecord) []globe.Facility {
	out := make([]globe.Facility, 0, len(records))
	for _, r := range records {
		out = append(out, globe.Facility{
			ID:            string(r.Key),
			Name:          string(r.Name),
			OwnerName:     string(r.Owner),
			Latitude:      float64(r.Latitude),
			Longitude:     float64(r.Longitude),
			Region:        string(r.Region),
			TotalNodes:    int(r.TotalNodes),
			ReplicaNodes:  int(r.ReplicaNodes),
			BoundaryNodes: int(r.BoundaryNodes),
			ProviderCount: int(r.NodeProviders),
			SubnetCount:   int(r.Subnets),
		}.Normalized())
	}
	return out
}
