package services

import (
	"math/rand"
)

const (
	// ExhaustiveLimit is the largest roster that is searched exhaustively.
	ExhaustiveLimit = 8
	// DefaultIterations is the randomized search budget for larger rosters.
	DefaultIterations = 1000
)

// Search modes, used in logs and metrics labels.
const (
	ModeExhaustive = "exhaustive"
	ModeRandomized = "randomized"
)

// Partition splits roster positions into teams. Partition[t] holds the
// indices (into the roster) of the players on team t+1.
type Partition [][]int

// PartitionSource yields candidate partitions until it is exhausted.
type PartitionSource interface {
	Next() (Partition, bool)
	Reset()
}

// Partitioner produces candidate partitions for a bracket.
type Partitioner struct {
	Bracket    Bracket
	Iterations int
}

// NewPartitioner returns a Partitioner with the default randomized budget.
func NewPartitioner(b Bracket) Partitioner {
	return Partitioner{Bracket: b, Iterations: DefaultIterations}
}

// Mode reports which search mode a roster of n players gets.
func (p Partitioner) Mode(n int) string {
	if n <= ExhaustiveLimit {
		return ModeExhaustive
	}
	return ModeRandomized
}

// Source picks exhaustive enumeration for small rosters and random sampling
// for the rest. rng is only consulted in randomized mode.
func (p Partitioner) Source(n int, rng *rand.Rand) PartitionSource {
	if p.Mode(n) == ModeExhaustive {
		return p.Exhaustive(n)
	}
	return p.Randomized(n, rng)
}

// Exhaustive enumerates every ordered split of n players into the bracket's
// teams. Team 1 walks the combinations of the full pool in lexicographic
// order, team 2 the combinations of what is left, and so on; the last team
// takes the remainder. The walk uses an explicit per-team state instead of
// recursion.
func (p Partitioner) Exhaustive(n int) *ExhaustiveIterator {
	it := &ExhaustiveIterator{
		n:        n,
		teamSize: p.Bracket.TeamSize,
		numTeams: p.Bracket.NumTeams,
	}
	it.Reset()
	return it
}

// Randomized draws Iterations uniform shuffles of the roster and slices each
// into contiguous teams.
func (p Partitioner) Randomized(n int, rng *rand.Rand) *RandomSampler {
	iterations := p.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &RandomSampler{
		n:          n,
		teamSize:   p.Bracket.TeamSize,
		numTeams:   p.Bracket.NumTeams,
		iterations: iterations,
		rng:        rng,
	}
}

// ExhaustiveIterator is a finite, restartable walk over all partitions.
type ExhaustiveIterator struct {
	n, teamSize, numTeams int

	// pools[l] is the ordered pool team l+1 chooses from, combs[l] the
	// positions (into pools[l]) currently chosen. The last team is implicit.
	pools [][]int
	combs [][]int
	done  bool
}

// Reset rewinds the iterator to the first partition.
func (it *ExhaustiveIterator) Reset() {
	levels := it.numTeams - 1
	if levels < 0 {
		levels = 0
	}
	it.pools = make([][]int, levels)
	it.combs = make([][]int, levels)
	it.done = false

	all := make([]int, it.n)
	for i := range all {
		all[i] = i
	}
	if levels > 0 {
		it.pools[0] = all
		it.resetFrom(0)
	}
}

// resetFrom sets levels l.. to their first combination. pools[l] must be set.
func (it *ExhaustiveIterator) resetFrom(l int) {
	for ; l < len(it.combs); l++ {
		comb := make([]int, it.teamSize)
		for i := range comb {
			comb[i] = i
		}
		it.combs[l] = comb
		if l+1 < len(it.pools) {
			it.pools[l+1] = remainder(it.pools[l], comb)
		}
	}
}

// Next returns the current partition and advances.
func (it *ExhaustiveIterator) Next() (Partition, bool) {
	if it.done {
		return nil, false
	}
	if it.numTeams <= 0 {
		it.done = true
		return Partition{}, true
	}

	part := make(Partition, 0, it.numTeams)
	pool := make([]int, it.n)
	for i := range pool {
		pool[i] = i
	}
	for l, comb := range it.combs {
		team := make([]int, len(comb))
		for i, c := range comb {
			team[i] = it.pools[l][c]
		}
		part = append(part, team)
		pool = remainder(it.pools[l], comb)
	}
	part = append(part, pool)

	it.advance()
	return part, true
}

func (it *ExhaustiveIterator) advance() {
	for l := len(it.combs) - 1; l >= 0; l-- {
		if nextCombination(it.combs[l], len(it.pools[l])) {
			if l+1 < len(it.pools) {
				it.pools[l+1] = remainder(it.pools[l], it.combs[l])
			}
			it.resetFrom(l + 1)
			return
		}
	}
	it.done = true
}

// nextCombination moves comb to the next k-combination of [0, n) in
// lexicographic order. It returns false once the last one was reached.
func nextCombination(comb []int, n int) bool {
	k := len(comb)
	for i := k - 1; i >= 0; i-- {
		if comb[i] < n-k+i {
			comb[i]++
			for j := i + 1; j < k; j++ {
				comb[j] = comb[j-1] + 1
			}
			return true
		}
	}
	return false
}

// remainder returns pool without the positions listed in comb (ascending).
func remainder(pool, comb []int) []int {
	out := make([]int, 0, len(pool)-len(comb))
	c := 0
	for i, v := range pool {
		if c < len(comb) && comb[c] == i {
			c++
			continue
		}
		out = append(out, v)
	}
	return out
}

// RandomSampler is a Monte-Carlo walk over the partition space.
type RandomSampler struct {
	n, teamSize, numTeams int
	iterations            int
	drawn                 int
	rng                   *rand.Rand
}

// Reset restarts the iteration budget. The random stream is not rewound.
func (s *RandomSampler) Reset() {
	s.drawn = 0
}

// Next shuffles the roster and slices it into teams.
func (s *RandomSampler) Next() (Partition, bool) {
	if s.drawn >= s.iterations {
		return nil, false
	}
	s.drawn++

	perm := make([]int, s.n)
	for i := range perm {
		perm[i] = i
	}
	s.rng.Shuffle(len(perm), func(i, j int) {
		perm[i], perm[j] = perm[j], perm[i]
	})

	part := make(Partition, s.numTeams)
	for t := range part {
		part[t] = perm[t*s.teamSize : (t+1)*s.teamSize]
	}
	return part, true
}
