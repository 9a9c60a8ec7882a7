// Package game implements the Dou Dizhu game state machine: dealing,
// turn order, and applying plays/passes. It holds no network or
// persistence concerns.
package game

import (
	"fmt"

	"github.com/lox/doudizhu/cards"
	"github.com/lox/doudizhu/internal/randutil"
	"github.com/lox/doudizhu/rules"
)

// Seat identifies one of the three player slots, 0..2.
type Seat int

const numSeats = 3

// Player is one seat's mutable state.
type Player struct {
	UserID uint64
	Hand   []cards.Card
	Out    bool
}

// LastPlay records the currently standing play to beat, alongside the seat
// that made it.
type LastPlay struct {
	Play rules.Play
	Seat Seat
}

// State is one active game: three hands, turn cursor, last play, and the
// landlord seat.
type State struct {
	Players   [numSeats]Player
	Landlord  Seat
	Turn      Seat
	Last      *LastPlay
	PassCount int
	Seed      int64
}

// New deals a fresh game for the three given user ids, in seat order, using
// seed deterministically. Same seed always yields the same deal and
// landlord seat.
func New(playerIDs [numSeats]uint64, seed int64) *State {
	deck := cards.NewDeck()
	cards.Shuffle(deck, randutil.New(seed))

	s := &State{Seed: seed}
	for seat := range s.Players {
		s.Players[seat].UserID = playerIDs[seat]
	}

	// Round-robin deal the first 51 cards, 17 each; the final 3 are the bottom.
	for i := 0; i < 51; i++ {
		seat := i % numSeats
		s.Players[seat].Hand = append(s.Players[seat].Hand, deck[i])
	}
	bottom := deck[51:54]

	landlordRNG := randutil.Derive(seed, randutil.GoldenRatio64)
	s.Landlord = Seat(landlordRNG.Uint64() % numSeats)
	s.Turn = s.Landlord

	s.Players[s.Landlord].Hand = append(s.Players[s.Landlord].Hand, bottom...)
	for seat := range s.Players {
		cards.SortHand(s.Players[seat].Hand)
	}

	return s
}

// AnyOut reports whether any seat has emptied its hand, the terminal
// condition for the game.
func (s *State) AnyOut() bool {
	for _, p := range s.Players {
		if p.Out {
			return true
		}
	}
	return false
}

// PlayResult describes the outcome of an accepted ApplyPlay.
type PlayResult struct {
	Play     rules.Play
	NextTurn Seat
	Winner   *Seat
}

// ApplyPlay validates and applies a play by seat. selected must be
// cards the seat physically holds; the classifier and comparator decide
// legality, ownership is checked last.
func (s *State) ApplyPlay(seat Seat, selected []cards.Card) (PlayResult, error) {
	if s.AnyOut() {
		return PlayResult{}, ErrGameOver
	}
	if seat != s.Turn {
		return PlayResult{}, ErrNotYourTurn
	}

	play, err := rules.Classify(selected)
	if err != nil {
		return PlayResult{}, fmt.Errorf("%w: %v", ErrInvalidPlay, err)
	}

	if s.Last != nil && s.Last.Seat != seat {
		if !rules.CanBeat(s.Last.Play, play) {
			return PlayResult{}, ErrMustBeatPrevious
		}
	}

	hand := s.Players[seat].Hand
	if !handContains(hand, selected) {
		return PlayResult{}, ErrCardsNotOwned
	}

	s.Players[seat].Hand = removeCards(hand, selected)
	s.Last = &LastPlay{Play: play, Seat: seat}
	s.PassCount = 0
	s.Turn = nextSeat(seat)

	result := PlayResult{Play: play, NextTurn: s.Turn}
	if len(s.Players[seat].Hand) == 0 {
		s.Players[seat].Out = true
		winner := seat
		result.Winner = &winner
	}
	return result, nil
}

// Pass records seat passing on the current trick.
func (s *State) Pass(seat Seat) (Seat, error) {
	if s.AnyOut() {
		return 0, ErrGameOver
	}
	if seat != s.Turn {
		return 0, ErrNotYourTurn
	}
	if s.Last == nil || s.Last.Seat == seat {
		return 0, ErrCannotPass
	}

	s.PassCount++
	if s.PassCount >= 2 {
		s.Last = nil
		s.PassCount = 0
	}
	s.Turn = nextSeat(s.Turn)
	return s.Turn, nil
}

func nextSeat(seat Seat) Seat {
	return Seat((int(seat) + 1) % numSeats)
}

// handContains reports whether hand has at least the requested multiplicity
// of every exact (rank, suit) card in selected.
func handContains(hand, selected []cards.Card) bool {
	have := make(map[cards.Card]int, len(hand))
	for _, c := range hand {
		have[c]++
	}
	want := make(map[cards.Card]int, len(selected))
	for _, c := range selected {
		want[c]++
	}
	for c, n := range want {
		if have[c] < n {
			return false
		}
	}
	return true
}

// removeCards returns hand with exactly the instances in selected removed,
// one physical instance per requested instance, preserving relative order.
func removeCards(hand, selected []cards.Card) []cards.Card {
	remaining := make(map[cards.Card]int, len(selected))
	for _, c := range selected {
		remaining[c]++
	}
	out := make([]cards.Card, 0, len(hand)-len(selected))
	for _, c := range hand {
		if remaining[c] > 0 {
			remaining[c]--
			continue
		}
		out = append(out, c)
	}
	return out
}
