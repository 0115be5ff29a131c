// Package editdist computes generalized Levenshtein distances between token
// sequences. Every token has its own insertion and deletion cost and every
// pair of tokens has a symmetric substitution cost.
package editdist

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrAlphabetMismatch is returned when two sequences built over different
	// alphabets are compared.
	ErrAlphabetMismatch = errors.New("editdist: sequences use different alphabets")
	// ErrTokenRange is returned when a token is not an index into the alphabet.
	ErrTokenRange = errors.New("editdist: token out of alphabet range")
	// ErrInvalidCost is returned when a cost function yields a negative,
	// non-finite, asymmetric or non-zero self substitution cost.
	ErrInvalidCost = errors.New("editdist: invalid cost")
)

// Alphabet holds the edit costs of a fixed set of tokens 0..Size()-1.
// An Alphabet is immutable once built; sequences keep a pointer to the
// alphabet they were built with.
type Alphabet struct {
	insertion    []float64
	deletion     []float64
	substitution [][]float64
}

// NewAlphabet evaluates the cost functions for every token (and every token
// pair) of a size-n alphabet. substitution(a, a) must be zero and
// substitution(a, b) must equal substitution(b, a).
func NewAlphabet(n int, insertion, deletion func(tok int) float64, substitution func(a, b int) float64) (*Alphabet, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: alphabet size %d", ErrInvalidCost, n)
	}

	a := &Alphabet{
		insertion:    make([]float64, n),
		deletion:     make([]float64, n),
		substitution: make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		a.insertion[i] = insertion(i)
		a.deletion[i] = deletion(i)
		if !validCost(a.insertion[i]) || !validCost(a.deletion[i]) {
			return nil, fmt.Errorf("%w: token %d", ErrInvalidCost, i)
		}
		a.substitution[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := substitution(i, j)
			if !validCost(c) || (i == j && c != 0) || c != substitution(j, i) {
				return nil, fmt.Errorf("%w: substitution %d/%d", ErrInvalidCost, i, j)
			}
			a.substitution[i][j] = c
			a.substitution[j][i] = c
		}
	}

	return a, nil
}

// Uniform returns the classic Levenshtein alphabet of n tokens: every
// insertion, deletion and substitution costs 1, an exact match costs 0.
func Uniform(n int) *Alphabet {
	one := func(int) float64 { return 1 }
	a, err := NewAlphabet(n, one, one, func(x, y int) float64 {
		if x == y {
			return 0
		}
		return 1
	})
	if err != nil {
		panic(err)
	}
	return a
}

func validCost(c float64) bool {
	return c >= 0 && !math.IsInf(c, 0) && !math.IsNaN(c)
}

// Size returns the number of tokens in the alphabet.
func (a *Alphabet) Size() int {
	return len(a.insertion)
}

// InsertionCost returns the cost of inserting tok.
func (a *Alphabet) InsertionCost(tok int) float64 { return a.insertion[tok] }

// DeletionCost returns the cost of deleting tok.
func (a *Alphabet) DeletionCost(tok int) float64 { return a.deletion[tok] }

// SubstitutionCost returns the cost of replacing x with y.
func (a *Alphabet) SubstitutionCost(x, y int) float64 { return a.substitution[x][y] }

// Sequence validates tokens against the alphabet and binds them to it.
// The token slice is copied.
func (a *Alphabet) Sequence(tokens []int) (Sequence, error) {
	for i, tok := range tokens {
		if tok < 0 || tok >= a.Size() {
			return Sequence{}, fmt.Errorf("%w: token %d at position %d (size %d)", ErrTokenRange, tok, i, a.Size())
		}
	}
	return Sequence{alphabet: a, tokens: append([]int(nil), tokens...)}, nil
}

// Sequence is a token string bound to the alphabet it was built over.
type Sequence struct {
	alphabet *Alphabet
	tokens   []int
}

// Len returns the number of tokens.
func (s Sequence) Len() int { return len(s.tokens) }

// Tokens returns a copy of the token indices.
func (s Sequence) Tokens() []int {
	return append([]int(nil), s.tokens...)
}

// Alphabet returns the alphabet the sequence was built over.
func (s Sequence) Alphabet() *Alphabet { return s.alphabet }

// Distance returns the minimum total cost of the insertions, deletions and
// substitutions that turn from into to (Wagner-Fischer). Only the scalar is
// computed; no alignment is kept.
func Distance(from, to Sequence) (float64, error) {
	if from.alphabet == nil || from.alphabet != to.alphabet {
		return 0, ErrAlphabetMismatch
	}
	a := from.alphabet
	n := len(from.tokens)
	m := len(to.tokens)

	// Create (n+1) x (m+1) cost matrix
	cost := make([][]float64, n+1)
	for i := range cost {
		cost[i] = make([]float64, m+1)
	}

	// First column deletes all of from, first row inserts all of to
	for i := 1; i <= n; i++ {
		cost[i][0] = cost[i-1][0] + a.deletion[from.tokens[i-1]]
	}
	for j := 1; j <= m; j++ {
		cost[0][j] = cost[0][j-1] + a.insertion[to.tokens[j-1]]
	}

	for i := 1; i <= n; i++ {
		src := from.tokens[i-1]
		for j := 1; j <= m; j++ {
			dst := to.tokens[j-1]
			cost[i][j] = min(
				cost[i][j-1]+a.insertion[dst],
				cost[i-1][j]+a.deletion[src],
				cost[i-1][j-1]+a.substitution[src][dst],
			)
		}
	}

	return cost[n][m], nil
}
