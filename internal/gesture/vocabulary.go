// Package gesture learns named 3D gesture classes from a few example
// trajectories and classifies new trajectories against them.
package gesture

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/septagon/TRACE/internal/direction"
	"github.com/septagon/TRACE/internal/editdist"
	"github.com/septagon/TRACE/internal/trajectory"
)

// DefaultAcceptThreshold is the largest normalized match cost (exclusive)
// that still counts as a recognition.
const DefaultAcceptThreshold = 4.0

// ErrEmptyName is returned when an example is added without a class name.
var ErrEmptyName = errors.New("gesture: class name is empty")

// Forward is the direction pinned at token 0 of new alphabets: in the local
// frame of the tokenizer it means "keep going straight".
var Forward = r3.Vec{Z: 1}

// Options configures a Vocabulary.
type Options struct {
	// Directions controls generation of the alphabet of new vocabularies.
	// It is ignored when loading a snapshot, which carries its own alphabet.
	Directions       direction.Options
	FinestResolution int
	AcceptThreshold  float64
	Logger           *zap.Logger
}

// DefaultOptions returns the default recognizer settings.
func DefaultOptions() Options {
	dirs := direction.DefaultOptions()
	dirs.Pinned = []r3.Vec{Forward}
	return Options{
		Directions:       dirs,
		FinestResolution: DefaultFinestResolution,
		AcceptThreshold:  DefaultAcceptThreshold,
	}
}

func (o Options) withDefaults() Options {
	if o.FinestResolution <= 2 {
		o.FinestResolution = DefaultFinestResolution
	}
	if o.AcceptThreshold <= 0 {
		o.AcceptThreshold = DefaultAcceptThreshold
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Result is the outcome of a classification.
type Result struct {
	// Recognized is true when Name was accepted.
	Recognized bool
	// Name is the recognized class; empty when not recognized.
	Name string
	// Candidate is the best scoring class, whether accepted or not.
	Candidate string
	// Cost is the normalized match cost of Candidate (+Inf without classes).
	Cost float64
}

// Vocabulary maps class names to classes and owns the alphabets every
// descriptor in it is built over. It is not safe for concurrent use.
type Vocabulary struct {
	opts       Options
	directions []r3.Vec
	costs      *editdist.Alphabet
	classes    map[string]*Class
}

// New creates an empty vocabulary with a freshly generated alphabet.
func New(opts Options) (*Vocabulary, error) {
	opts = opts.withDefaults()
	dirs, err := direction.Generate(opts.Directions)
	if err != nil {
		return nil, fmt.Errorf("generate alphabet: %w", err)
	}
	return newVocabulary(opts, dirs)
}

func newVocabulary(opts Options, dirs []r3.Vec) (*Vocabulary, error) {
	costs, err := CostAlphabet(dirs)
	if err != nil {
		return nil, err
	}
	return &Vocabulary{
		opts:       opts,
		directions: dirs,
		costs:      costs,
		classes:    make(map[string]*Class),
	}, nil
}

// CostAlphabet derives the edit alphabet of a direction alphabet. Inserting
// or deleting any token costs 1; substituting costs the cosine distance
// 1 - dot(a, b), from 0 for the same direction to 2 for opposite ones.
func CostAlphabet(dirs []r3.Vec) (*editdist.Alphabet, error) {
	one := func(int) float64 { return 1 }
	return editdist.NewAlphabet(len(dirs), one, one, func(a, b int) float64 {
		if a == b {
			return 0
		}
		return math.Min(2, math.Max(0, 1-r3.Dot(dirs[a], dirs[b])))
	})
}

// Alphabet returns a copy of the direction alphabet.
func (v *Vocabulary) Alphabet() []r3.Vec {
	return append([]r3.Vec(nil), v.directions...)
}

// AcceptThreshold returns the acceptance threshold in use.
func (v *Vocabulary) AcceptThreshold() float64 { return v.opts.AcceptThreshold }

// Describe builds the descriptor of t over this vocabulary's alphabet.
func (v *Vocabulary) Describe(t *trajectory.Trajectory) (Descriptor, error) {
	return Describe(t, v.directions, v.costs, v.opts.FinestResolution)
}

// AddExample adds t as an exemplar of the named class, creating the class
// if needed.
func (v *Vocabulary) AddExample(t *trajectory.Trajectory, name string) error {
	if name == "" {
		return ErrEmptyName
	}
	d, err := v.Describe(t)
	if err != nil {
		return err
	}
	return v.AddDescriptor(d, name)
}

// AddDescriptor adds an already built descriptor to the named class.
func (v *Vocabulary) AddDescriptor(d Descriptor, name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if want := len(LevelResolutions(v.opts.FinestResolution)); d.NumLevels() != want {
		return fmt.Errorf("%w: got %d levels, want %d", ErrLevelMismatch, d.NumLevels(), want)
	}

	c, ok := v.classes[name]
	if !ok {
		c = newClass(name)
	}
	if err := c.Add(d); err != nil {
		return err
	}
	if !ok {
		v.classes[name] = c
		v.opts.Logger.Debug("created gesture class", zap.String("class", name))
	}
	return nil
}

// Classify describes t and returns the class with the lowest match cost,
// recognized if that cost is below the acceptance threshold.
func (v *Vocabulary) Classify(t *trajectory.Trajectory) (Result, error) {
	d, err := v.Describe(t)
	if err != nil {
		return Result{}, err
	}
	return v.ClassifyDescriptor(d)
}

// ClassifyDescriptor scores d against every class. Equal match costs are
// broken by the smaller distance to any exemplar, then by class name.
func (v *Vocabulary) ClassifyDescriptor(d Descriptor) (Result, error) {
	best := Result{Cost: math.Inf(1)}
	bestNearest := math.Inf(1)

	for _, name := range v.Names() {
		c := v.classes[name]
		if c.Len() == 0 {
			continue
		}
		cost, err := c.MatchCost(d)
		if err != nil {
			return Result{}, err
		}

		switch {
		case cost < best.Cost:
			best = Result{Candidate: name, Cost: cost}
			bestNearest = math.NaN()
		case cost == best.Cost && best.Candidate != "":
			if math.IsNaN(bestNearest) {
				if bestNearest, err = v.classes[best.Candidate].NearestDistance(d); err != nil {
					return Result{}, err
				}
			}
			nearest, err := c.NearestDistance(d)
			if err != nil {
				return Result{}, err
			}
			if nearest < bestNearest {
				best = Result{Candidate: name, Cost: cost}
				bestNearest = nearest
			}
		}
	}

	if best.Candidate != "" && best.Cost < v.opts.AcceptThreshold {
		best.Recognized = true
		best.Name = best.Candidate
	}
	return best, nil
}

// Class returns the named class.
func (v *Vocabulary) Class(name string) (*Class, bool) {
	c, ok := v.classes[name]
	return c, ok
}

// Names returns the class names in ascending order.
func (v *Vocabulary) Names() []string {
	names := make([]string, 0, len(v.classes))
	for name := range v.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of classes.
func (v *Vocabulary) Len() int { return len(v.classes) }
