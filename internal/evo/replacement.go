package evo

import (
	"fmt"

	"genevo/internal/model"
)

// Replacement builds the roster of the next generation. The set of
// replacements is closed; configuration names resolve through
// ParseReplacement.
//
// Roster indices address the breeder pool: 0..n-1 are the current members,
// children are appended after them in the order they were bred.
type Replacement interface {
	Name() string
	roster(b breeder) ([]int, error)
	minPopulation() int
}

type breeder interface {
	size() int
	// bySelection runs rounds of select-two, cross and mutate.
	bySelection(rounds int) ([]int, error)
	// byPairing shuffles the current members, pairs them two at a time and
	// crosses and mutates each couple. An odd leftover is not paired.
	byPairing() ([]int, error)
	shuffle(indices []int)
}

// FullGenerational replaces every member with children of selected parents.
// Odd sizes breed one extra couple and drop its second child.
type FullGenerational struct{}

func (FullGenerational) Name() string       { return "generational" }
func (FullGenerational) minPopulation() int { return 2 }

func (FullGenerational) roster(b breeder) ([]int, error) {
	n := b.size()
	children, err := b.bySelection((n + 1) / 2)
	if err != nil {
		return nil, err
	}
	return children[:n], nil
}

// RandomRetention keeps every child and fills the remaining slots with a
// random sample of the current members.
type RandomRetention struct{}

func (RandomRetention) Name() string       { return "random_retention" }
func (RandomRetention) minPopulation() int { return 1 }

func (RandomRetention) roster(b breeder) ([]int, error) {
	children, err := b.byPairing()
	if err != nil {
		return nil, err
	}
	survivors := members(b)
	b.shuffle(survivors)

	out := make([]int, 0, b.size())
	out = append(out, children...)
	out = append(out, survivors[:b.size()-len(children)]...)
	return out, nil
}

// TwoStageMixing retains a random sample of the current members, then lets
// retained members and children compete for the child slots in a second
// random draw. Children are not guaranteed to survive.
type TwoStageMixing struct{}

func (TwoStageMixing) Name() string       { return "two_stage_mixing" }
func (TwoStageMixing) minPopulation() int { return 1 }

func (TwoStageMixing) roster(b breeder) ([]int, error) {
	children, err := b.byPairing()
	if err != nil {
		return nil, err
	}
	shuffled := members(b)
	b.shuffle(shuffled)
	retained := shuffled[:b.size()-len(children)]

	mixed := make([]int, 0, len(retained)+len(children))
	mixed = append(mixed, retained...)
	mixed = append(mixed, children...)
	b.shuffle(mixed)

	out := make([]int, 0, b.size())
	out = append(out, retained...)
	out = append(out, mixed[:len(children)]...)
	return out, nil
}

func members(b breeder) []int {
	out := make([]int, b.size())
	for i := range out {
		out[i] = i
	}
	return out
}

func checkRoster(roster []int, poolSize, want int) error {
	if len(roster) != want {
		return fmt.Errorf("%w: replacement produced %d individuals, want %d", model.ErrConfiguration, len(roster), want)
	}
	for _, idx := range roster {
		if idx < 0 || idx >= poolSize {
			return fmt.Errorf("replacement roster index %d out of range [0, %d)", idx, poolSize)
		}
	}
	return nil
}
