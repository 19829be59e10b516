package globe

import (
	"reflect"
	"testing"
)

func TestClusterScenario(t *testing.T) {
	c := Cluster([]Facility{
		facility("a", "US,Ohio", 5),
		facility("b", "US,Ohio", 3),
		facility("c", "FR,Paris", 2),
	})

	if !reflect.DeepEqual(c.Keys, []string{"US,Ohio", "FR,Paris"}) {
		t.Fatalf("Keys = %v", c.Keys)
	}
	ohio, ok := c.Get("US,Ohio")
	if !ok || len(ohio.Members) != 2 || !ohio.IsMultiple() {
		t.Errorf("US,Ohio group = %+v, want 2 members", ohio)
	}
	if ohio.Members[0].ID != "a" || ohio.Members[1].ID != "b" {
		t.Errorf("member order = %s,%s; want a,b", ohio.Members[0].ID, ohio.Members[1].ID)
	}
	paris, _ := c.Get("FR,Paris")
	if len(paris.Members) != 1 || paris.IsMultiple() {
		t.Errorf("FR,Paris group = %+v, want single member", paris)
	}
}

func TestClusterDropsEmptyFacilities(t *testing.T) {
	c := Cluster([]Facility{
		facility("a", "Europe,CH,Zurich", 0),
		facility("b", "Europe,CH,Zurich", 4),
		facility("c", "Asia,JP,Tokyo", 0),
	})
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	for _, f := range c.Flatten() {
		if f.TotalNodes == 0 {
			t.Errorf("facility %s with zero nodes was grouped", f.ID)
		}
	}
	if _, ok := c.Get("Asia,JP,Tokyo"); ok {
		t.Error("region with only empty facilities produced a group")
	}
}

func TestClusterNoNormalization(t *testing.T) {
	c := Cluster([]Facility{
		facility("a", "US,Ohio", 1),
		facility("b", "us,ohio", 1),
		facility("c", "US,Ohio ", 1),
	})
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3 distinct raw keys", c.Len())
	}
}

func TestClusterIdempotent(t *testing.T) {
	in := []Facility{
		facility("a", "B", 1),
		facility("b", "A", 2),
		facility("c", "B", 3),
		facility("d", "C", 0),
		facility("e", "A", 1),
	}
	first := Cluster(in)
	second := Cluster(first.Flatten())

	if !reflect.DeepEqual(first.Keys, second.Keys) {
		t.Fatalf("keys changed: %v -> %v", first.Keys, second.Keys)
	}
	if !reflect.DeepEqual(first.Groups(), second.Groups()) {
		t.Errorf("groups changed after re-clustering")
	}
}

func TestClusterEmpty(t *testing.T) {
	c := Cluster(nil)
	if c.Len() != 0 || len(c.Groups()) != 0 {
		t.Errorf("empty input produced %d groups", c.Len())
	}
}
