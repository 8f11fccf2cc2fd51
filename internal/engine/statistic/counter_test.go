package statistic

import (
	"slices"
	"testing"
)

func TestCounter_FirstSeenOrder(t *testing.T) {
	c := NewCounter[string]()
	for _, k := range []string{"b", "a", "b", "c", "a", "b"} {
		c.Inc(k)
	}

	if got, want := c.Keys(), []string{"b", "a", "c"}; !slices.Equal(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	if c.Get("b") != 3 || c.Get("a") != 2 || c.Get("c") != 1 {
		t.Errorf("unexpected counts: b=%d a=%d c=%d", c.Get("b"), c.Get("a"), c.Get("c"))
	}
	if c.Get("missing") != 0 {
		t.Errorf("Get on unseen key should be 0, got %d", c.Get("missing"))
	}
	if c.Len() != 3 {
		t.Errorf("Expected 3 distinct keys, got %d", c.Len())
	}
	if c.Total() != 6 {
		t.Errorf("Expected total 6, got %d", c.Total())
	}
}

func TestCounter_AllStopsEarly(t *testing.T) {
	c := NewCounter[int]()
	for i := range 5 {
		c.Inc(i)
	}

	var seen []int
	for k := range c.All() {
		seen = append(seen, k)
		if k == 2 {
			break
		}
	}
	if !slices.Equal(seen, []int{0, 1, 2}) {
		t.Errorf("Expected iteration to stop after key 2, got %v", seen)
	}
}

func TestCounter_KeysIsACopy(t *testing.T) {
	c := NewCounter[string]()
	c.Inc("x")
	keys := c.Keys()
	keys[0] = "y"
	if c.Keys()[0] != "x" {
		t.Errorf("mutating Keys() result changed the counter")
	}
}
