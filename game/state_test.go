package game

import (
	"testing"

	"github.com/lox/doudizhu/cards"
	"github.com/stretchr/testify/require"
)

func TestDealShape(t *testing.T) {
	t.Parallel()
	s := New([3]uint64{10, 11, 12}, 42)

	total := 0
	landlordHandSize := -1
	for seat, p := range s.Players {
		total += len(p.Hand)
		if Seat(seat) == s.Landlord {
			landlordHandSize = len(p.Hand)
		} else {
			require.Len(t, p.Hand, 17)
		}
	}
	require.Equal(t, 54, total)
	require.Equal(t, 20, landlordHandSize)
	require.Equal(t, s.Landlord, s.Turn)
}

func TestDealDeterminism(t *testing.T) {
	t.Parallel()
	a := New([3]uint64{1, 2, 3}, 999)
	b := New([3]uint64{1, 2, 3}, 999)
	require.Equal(t, a.Landlord, b.Landlord)
	require.Equal(t, a.Players, b.Players)
}

func TestApplyPlayMonotonicity(t *testing.T) {
	t.Parallel()
	s := New([3]uint64{1, 2, 3}, 7)
	turn := s.Turn
	before := len(s.Players[turn].Hand)
	lead := s.Players[turn].Hand[:1]
	leadCopy := append([]cards.Card{}, lead...)

	otherBefore := make(map[Seat]int)
	for seat := range s.Players {
		if Seat(seat) != turn {
			otherBefore[Seat(seat)] = len(s.Players[seat].Hand)
		}
	}

	_, err := s.ApplyPlay(turn, leadCopy)
	require.NoError(t, err)
	require.Len(t, s.Players[turn].Hand, before-1)

	for seat, n := range otherBefore {
		require.Equal(t, n, len(s.Players[seat].Hand), "seat %d hand must not change", seat)
	}
}

func TestNotYourTurn(t *testing.T) {
	t.Parallel()
	s := New([3]uint64{1, 2, 3}, 7)
	other := nextSeat(s.Turn)
	_, err := s.ApplyPlay(other, s.Players[other].Hand[:1])
	require.ErrorIs(t, err, ErrNotYourTurn)
}

func TestCannotPassOnOwnLead(t *testing.T) {
	t.Parallel()
	s := New([3]uint64{1, 2, 3}, 7)
	_, err := s.Pass(s.Turn)
	require.ErrorIs(t, err, ErrCannotPass)
}

func TestCardsNotOwned(t *testing.T) {
	t.Parallel()
	s := New([3]uint64{1, 2, 3}, 7)
	turn := s.Turn
	// Every card is dealt once, so a card from another seat's hand is never
	// in this seat's hand.
	unowned := s.Players[nextSeat(turn)].Hand[0]
	_, err := s.ApplyPlay(turn, []cards.Card{unowned})
	require.ErrorIs(t, err, ErrCardsNotOwned)
}

func TestPassResetsAfterTwoPasses(t *testing.T) {
	t.Parallel()
	s := New([3]uint64{1, 2, 3}, 7)
	leader := s.Turn
	_, err := s.ApplyPlay(leader, s.Players[leader].Hand[:1])
	require.NoError(t, err)
	require.NotNil(t, s.Last)

	_, err = s.Pass(s.Turn)
	require.NoError(t, err)
	require.NotNil(t, s.Last)
	require.Equal(t, 1, s.PassCount)

	_, err = s.Pass(s.Turn)
	require.NoError(t, err)
	require.Nil(t, s.Last)
	require.Equal(t, 0, s.PassCount)
	require.Equal(t, leader, s.Turn)
}

func TestTerminalTrap(t *testing.T) {
	t.Parallel()
	s := New([3]uint64{1, 2, 3}, 7)
	for !s.AnyOut() {
		turn := s.Turn
		if s.Last != nil && s.Last.Seat != turn {
			if _, err := s.Pass(turn); err == nil {
				continue
			}
		}
		hand := s.Players[turn].Hand
		if len(hand) == 0 {
			break
		}
		_, err := s.ApplyPlay(turn, hand[:1])
		require.NoError(t, err)
	}

	require.True(t, s.AnyOut())
	_, err := s.ApplyPlay(s.Turn, nil)
	require.ErrorIs(t, err, ErrGameOver)
	_, err = s.Pass(s.Turn)
	require.ErrorIs(t, err, ErrGameOver)
}

func TestLeadAfterBothOpponentsPassSkipsBeatConstraint(t *testing.T) {
	t.Parallel()
	s := New([3]uint64{1, 2, 3}, 55)
	leader := s.Turn
	_, err := s.ApplyPlay(leader, s.Players[leader].Hand[:1])
	require.NoError(t, err)

	_, err = s.Pass(s.Turn)
	require.NoError(t, err)
	_, err = s.Pass(s.Turn)
	require.NoError(t, err)
	require.Nil(t, s.Last)
	require.Equal(t, leader, s.Turn)

	// Leader may now lead any legal category, not just a beat of the old play.
	_, err = s.ApplyPlay(leader, s.Players[leader].Hand[:1])
	require.NoError(t, err)
}
