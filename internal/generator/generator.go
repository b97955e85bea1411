// Package generator picks practice targets.
package generator

import (
	"math/rand"
	"time"
)

// StaticLetters are the letters signed with a still hand. J and Z need motion
// and are never used as targets.
var StaticLetters = []string{
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "K", "L", "M",
	"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y",
}

// Generator produces randomized targets.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// NextTarget picks a letter uniformly, never repeating previous while more
// than one letter is available.
func (g *Generator) NextTarget(letters []string, previous string) string {
	return g.NextWeightedTarget(letters, previous, nil, 0)
}

// NextWeightedTarget picks a letter with a bias toward weak letters: a weak
// letter weighs 1+factor, any other letter 1.
func (g *Generator) NextWeightedTarget(letters []string, previous string, weakSet map[string]struct{}, factor float64) string {
	if len(letters) == 0 {
		return ""
	}
	candidates := letters
	if len(letters) > 1 {
		candidates = make([]string, 0, len(letters))
		for _, l := range letters {
			if l != previous {
				candidates = append(candidates, l)
			}
		}
		if len(candidates) == 0 {
			candidates = letters
		}
	}

	weights := make([]float64, len(candidates))
	total := 0.0
	for i, l := range candidates {
		w := 1.0
		if _, ok := weakSet[l]; ok && factor > 0 {
			w += factor
		}
		weights[i] = w
		total += w
	}
	r := g.rnd.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}

// Letters returns count distinct letters drawn from pool.
func (g *Generator) Letters(pool []string, count int) []string {
	shuffled := append([]string(nil), pool...)
	g.Shuffle(shuffled)
	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}

// Shuffle permutes items in place.
func (g *Generator) Shuffle(items []string) {
	g.rnd.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

// Pick returns a uniformly chosen element of items, or "" when empty.
func (g *Generator) Pick(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[g.rnd.Intn(len(items))]
}
