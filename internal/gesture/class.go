package gesture

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// DefaultSpread is the spread of a class that cannot measure its own
// variance yet: fewer than two exemplars, or exemplars that are all identical.
const DefaultSpread = 1.0

// Class is a named cluster of exemplar descriptors. It caches its centroid
// (the exemplar closest to all others) and its spread (the mean distance from
// the centroid to the other exemplars).
type Class struct {
	name      string
	exemplars []Descriptor
	// dist[i][j] is the distance from exemplar i to exemplar j.
	dist     [][]float64
	centroid int
	spread   float64
}

func newClass(name string) *Class {
	return &Class{name: name, centroid: -1, spread: DefaultSpread}
}

// Name returns the class label.
func (c *Class) Name() string { return c.name }

// Len returns the number of exemplars.
func (c *Class) Len() int { return len(c.exemplars) }

// Centroid returns the index of the centroid exemplar, or -1 for an empty class.
func (c *Class) Centroid() int { return c.centroid }

// Spread returns the normalization scale of the class.
func (c *Class) Spread() float64 { return c.spread }

// Exemplars returns the exemplar descriptors in insertion order.
func (c *Class) Exemplars() []Descriptor {
	return append([]Descriptor(nil), c.exemplars...)
}

// Add appends an exemplar and recomputes the centroid and spread.
// The class is left unchanged if d cannot be compared with the existing
// exemplars.
func (c *Class) Add(d Descriptor) error {
	n := len(c.exemplars)
	row := make([]float64, n+1)
	col := make([]float64, n)
	for i, e := range c.exemplars {
		to, err := d.Distance(e)
		if err != nil {
			return fmt.Errorf("class %q: %w", c.name, err)
		}
		from, err := e.Distance(d)
		if err != nil {
			return fmt.Errorf("class %q: %w", c.name, err)
		}
		row[i] = to
		col[i] = from
	}

	for i := range c.dist {
		c.dist[i] = append(c.dist[i], col[i])
	}
	c.dist = append(c.dist, row)
	c.exemplars = append(c.exemplars, d)
	c.recompute()
	return nil
}

// recompute picks the exemplar with the smallest summed distance to all
// exemplars as centroid (lowest index on ties) and averages the distances
// from the other exemplars to it.
func (c *Class) recompute() {
	n := len(c.exemplars)
	if n == 0 {
		c.centroid, c.spread = -1, DefaultSpread
		return
	}

	sums := make([]float64, n)
	for i, row := range c.dist {
		sums[i] = floats.Sum(row)
	}
	c.centroid = floats.MinIdx(sums)

	c.spread = DefaultSpread
	if n < 2 {
		return
	}
	var total float64
	for i := range c.dist {
		total += c.dist[i][c.centroid]
	}
	if spread := total / float64(n-1); spread > 0 {
		c.spread = spread
	}
}

// MatchCost returns the distance from d to the centroid exemplar in units of
// the class spread, which puts tight and loose classes on a common scale.
func (c *Class) MatchCost(d Descriptor) (float64, error) {
	if c.centroid < 0 {
		return 0, fmt.Errorf("class %q has no exemplars", c.name)
	}
	dist, err := d.Distance(c.exemplars[c.centroid])
	if err != nil {
		return 0, fmt.Errorf("class %q: %w", c.name, err)
	}
	return dist / c.spread, nil
}

// NearestDistance returns the smallest raw distance from d to any exemplar.
func (c *Class) NearestDistance(d Descriptor) (float64, error) {
	if len(c.exemplars) == 0 {
		return 0, fmt.Errorf("class %q has no exemplars", c.name)
	}
	dists := make([]float64, len(c.exemplars))
	for i, e := range c.exemplars {
		dist, err := d.Distance(e)
		if err != nil {
			return 0, fmt.Errorf("class %q: %w", c.name, err)
		}
		dists[i] = dist
	}
	return floats.Min(dists), nil
}
