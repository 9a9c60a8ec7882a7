// Package rules implements the Dou Dizhu play classifier and beat
// comparator: pure functions over card multisets with no knowledge of
// hands, seats, or turns.
package rules

import (
	"errors"
	"sort"

	"github.com/lox/doudizhu/cards"
)

// Kind is the closed set of legal play categories.
type Kind int

const (
	Single Kind = iota
	Pair
	Triple
	TripleSingle
	TriplePair
	Straight
	DoubleStraight
	Airplane
	Bomb
	Rocket
	FourTwoSingle
	FourTwoPair
)

func (k Kind) String() string {
	switch k {
	case Single:
		return "Single"
	case Pair:
		return "Pair"
	case Triple:
		return "Triple"
	case TripleSingle:
		return "TripleSingle"
	case TriplePair:
		return "TriplePair"
	case Straight:
		return "Straight"
	case DoubleStraight:
		return "DoubleStraight"
	case Airplane:
		return "Airplane"
	case Bomb:
		return "Bomb"
	case Rocket:
		return "Rocket"
	case FourTwoSingle:
		return "FourTwoSingle"
	case FourTwoPair:
		return "FourTwoPair"
	default:
		return "Unknown"
	}
}

// Play is a categorized move: the kind, the rank used to compare it against
// another play of the same kind, and the size used to gate same-length
// sequence comparisons.
type Play struct {
	Kind     Kind
	MainRank cards.Rank
	Size     int
}

// ErrNotAPlay is returned by Classify when the given cards do not form any
// legal category.
var ErrNotAPlay = errors.New("rules: cards do not form a legal play")

// Classify categorizes an unordered multiset of cards, checking categories
// in a fixed order (first match wins). It never returns a Play for which
// the declared Kind does not actually hold.
func Classify(hand []cards.Card) (Play, error) {
	if len(hand) == 0 {
		return Play{}, ErrNotAPlay
	}

	counts := make(map[cards.Rank]int)
	for _, c := range hand {
		counts[c.Rank]++
	}
	n := len(hand)
	u := len(counts)

	if n == 2 && counts[cards.BlackJoker] == 1 && counts[cards.RedJoker] == 1 {
		return Play{Kind: Rocket, MainRank: cards.RedJoker, Size: 2}, nil
	}
	if n == 4 && u == 1 {
		return Play{Kind: Bomb, MainRank: onlyRank(counts), Size: 4}, nil
	}
	if n == 1 {
		return Play{Kind: Single, MainRank: onlyRank(counts), Size: 1}, nil
	}
	if n == 2 && u == 1 {
		return Play{Kind: Pair, MainRank: onlyRank(counts), Size: 2}, nil
	}
	if n == 3 && u == 1 {
		return Play{Kind: Triple, MainRank: onlyRank(counts), Size: 3}, nil
	}
	if n == 4 && u == 2 {
		if rank, ok := rankWithCount(counts, 3); ok {
			return Play{Kind: TripleSingle, MainRank: rank, Size: 4}, nil
		}
	}
	if n == 5 && u == 2 {
		if rank, ok := rankWithCount(counts, 3); ok {
			return Play{Kind: TriplePair, MainRank: rank, Size: 5}, nil
		}
	}
	if n == 6 && u == 3 {
		if rank, ok := rankWithCount(counts, 4); ok {
			return Play{Kind: FourTwoSingle, MainRank: rank, Size: 6}, nil
		}
	}
	if n == 8 && u == 3 {
		if rank, ok := rankWithCount(counts, 4); ok && countOfCount(counts, 2) == 2 {
			return Play{Kind: FourTwoPair, MainRank: rank, Size: 8}, nil
		}
	}
	if n >= 5 && allCounts(counts, 1) {
		if ranks, ok := consecutive(counts); ok {
			return Play{Kind: Straight, MainRank: ranks[len(ranks)-1], Size: n}, nil
		}
	}
	if n >= 6 && n%2 == 0 && allCounts(counts, 2) {
		if ranks, ok := consecutive(counts); ok {
			return Play{Kind: DoubleStraight, MainRank: ranks[len(ranks)-1], Size: u}, nil
		}
	}
	if n >= 6 && n%3 == 0 && allCounts(counts, 3) {
		if ranks, ok := consecutive(counts); ok {
			return Play{Kind: Airplane, MainRank: ranks[len(ranks)-1], Size: u}, nil
		}
	}

	return Play{}, ErrNotAPlay
}

func onlyRank(counts map[cards.Rank]int) cards.Rank {
	for r := range counts {
		return r
	}
	return 0
}

func rankWithCount(counts map[cards.Rank]int, target int) (cards.Rank, bool) {
	for r, c := range counts {
		if c == target {
			return r, true
		}
	}
	return 0, false
}

func countOfCount(counts map[cards.Rank]int, target int) int {
	n := 0
	for _, c := range counts {
		if c == target {
			n++
		}
	}
	return n
}

func allCounts(counts map[cards.Rank]int, want int) bool {
	for _, c := range counts {
		if c != want {
			return false
		}
	}
	return true
}

// consecutive reports whether every rank in counts is straightable and the
// distinct ranks form a run with no gaps, returning them sorted ascending.
func consecutive(counts map[cards.Rank]int) ([]cards.Rank, bool) {
	ranks := make([]cards.Rank, 0, len(counts))
	for r := range counts {
		if !r.Straightable() {
			return nil, false
		}
		ranks = append(ranks, r)
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] < ranks[j] })
	for i := 1; i < len(ranks); i++ {
		if ranks[i]-ranks[i-1] != 1 {
			return nil, false
		}
	}
	return ranks, true
}
