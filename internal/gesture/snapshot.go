package gesture

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrMalformedSnapshot is returned when a snapshot cannot be turned back
// into a vocabulary.
var ErrMalformedSnapshot = errors.New("gesture: malformed snapshot")

// Vec3 is a direction serialized as [x, y, z].
type Vec3 [3]float64

// Exemplar is one stored descriptor: one token sequence per level,
// finest first.
type Exemplar [][]int

// Snapshot is the persisted form of a vocabulary. The alphabet order is
// significant: exemplar tokens index into it.
type Snapshot struct {
	Alphabet []Vec3                `json:"alphabet"`
	Classes  map[string][]Exemplar `json:"classes"`
}

// Snapshot captures the alphabet and every exemplar. Centroids and spreads
// are not stored; they are recomputed from the exemplars on load.
func (v *Vocabulary) Snapshot() *Snapshot {
	s := &Snapshot{
		Alphabet: make([]Vec3, len(v.directions)),
		Classes:  make(map[string][]Exemplar, len(v.classes)),
	}
	for i, d := range v.directions {
		s.Alphabet[i] = Vec3{d.X, d.Y, d.Z}
	}
	for name, c := range v.classes {
		exemplars := make([]Exemplar, 0, c.Len())
		for _, d := range c.exemplars {
			exemplars = append(exemplars, d.Levels())
		}
		s.Classes[name] = exemplars
	}
	return s
}

// Load rebuilds a vocabulary from a snapshot. The snapshot's alphabet is
// used verbatim; opts.Directions is ignored.
func Load(s *Snapshot, opts Options) (*Vocabulary, error) {
	if s == nil || len(s.Alphabet) == 0 {
		return nil, fmt.Errorf("%w: empty alphabet", ErrMalformedSnapshot)
	}

	dirs := make([]r3.Vec, len(s.Alphabet))
	for i, a := range s.Alphabet {
		for _, c := range a {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return nil, fmt.Errorf("%w: alphabet entry %d is not finite", ErrMalformedSnapshot, i)
			}
		}
		dirs[i] = r3.Vec{X: a[0], Y: a[1], Z: a[2]}
	}

	v, err := newVocabulary(opts.withDefaults(), dirs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}

	// Classes are rebuilt in name order so loading is deterministic.
	names := make([]string, 0, len(s.Classes))
	for name := range s.Classes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == "" {
			return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, ErrEmptyName)
		}
		for i, ex := range s.Classes[name] {
			d, err := NewDescriptor(v.costs, ex)
			if err != nil {
				return nil, fmt.Errorf("%w: class %q exemplar %d: %w", ErrMalformedSnapshot, name, i, err)
			}
			if err := v.AddDescriptor(d, name); err != nil {
				return nil, fmt.Errorf("%w: class %q exemplar %d: %w", ErrMalformedSnapshot, name, i, err)
			}
		}
	}

	return v, nil
}

// WriteSnapshot encodes s as JSON. Floats use the shortest representation
// that parses back to the same value, so alphabets round-trip exactly.
func WriteSnapshot(w io.Writer, s *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a JSON snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	if s.Classes == nil {
		s.Classes = make(map[string][]Exemplar)
	}
	return &s, nil
}
