package prompt

import (
	"math/rand"
	"time"
)

// Randomizer draws suggestion fragments for composed prompts. Draws for
// a repeat batch are taken without replacement: the candidate pool for
// each category is shuffled and consumed in order, and reshuffled
// copies are appended whenever more draws are requested than the pool
// holds.
type Randomizer struct {
	rng *rand.Rand
}

// NewRandomizer creates a Randomizer seeded from the current time.
func NewRandomizer() *Randomizer {
	return NewRandomizerWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewRandomizerWithSource creates a Randomizer with an explicit source,
// so tests can make draws deterministic.
func NewRandomizerWithSource(src rand.Source) *Randomizer {
	return &Randomizer{rng: rand.New(src)}
}

// Draw returns one fragment per enabled category, chosen independently
// at random.
func (r *Randomizer) Draw(categories []Category) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		pool := Fragments(c)
		if len(pool) == 0 {
			continue
		}
		out = append(out, pool[r.rng.Intn(len(pool))])
	}
	return out
}

// DrawSeries returns n fragment sets, one per repeat variant. Within
// the series each category's draws are distinct until its pool is
// exhausted, after which the pool cycles through fresh shuffles.
func (r *Randomizer) DrawSeries(categories []Category, n int) [][]string {
	if n < 1 {
		n = 1
	}

	perCategory := make([][]string, len(categories))
	for i, c := range categories {
		perCategory[i] = r.cycle(Fragments(c), n)
	}

	series := make([][]string, n)
	for i := 0; i < n; i++ {
		set := make([]string, 0, len(categories))
		for _, draws := range perCategory {
			if i < len(draws) {
				set = append(set, draws[i])
			}
		}
		series[i] = set
	}
	return series
}

// cycle builds a list of at least n draws from pool by concatenating
// shuffled copies, then truncates to exactly n.
func (r *Randomizer) cycle(pool []string, n int) []string {
	if len(pool) == 0 {
		return nil
	}

	out := make([]string, 0, n)
	for len(out) < n {
		shuffled := make([]string, len(pool))
		copy(shuffled, pool)
		r.rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		out = append(out, shuffled...)
	}
	return out[:n]
}
