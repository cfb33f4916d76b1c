package game

import (
	"strings"
	"testing"
)

func cardsOf(t *testing.T, list string) []Card {
	t.Helper()
	rankByGlyph := map[byte]Rank{
		'2': Two, '3': Three, '4': Four, '5': Five, '6': Six, '7': Seven,
		'8': Eight, '9': Nine, 'T': Ten, 'J': Jack, 'Q': Queen, 'K': King, 'A': Ace,
	}
	suitByGlyph := map[byte]Suit{'s': Spades, 'h': Hearts, 'd': Diamonds, 'c': Clubs}
	var out []Card
	for _, tok := range strings.Fields(list) {
		if len(tok) != 2 {
			t.Fatalf("bad card token %q", tok)
		}
		r, ok := rankByGlyph[tok[0]]
		if !ok {
			t.Fatalf("bad rank in %q", tok)
		}
		s, ok := suitByGlyph[tok[1]]
		if !ok {
			t.Fatalf("bad suit in %q", tok)
		}
		out = append(out, Card{Rank: r, Suit: s})
	}
	return out
}

func TestBestHandCategories(t *testing.T) {
	cases := []struct {
		name  string
		hole  string
		board string
		want  HandCategory
	}{
		{"straight flush", "9h 8h", "7h 6h 5h 2c 2d", StraightFlush},
		{"four of a kind", "As Ah", "Ad Ac 9s 3h 2d", FourOfAKind},
		{"full house", "Ks Kh", "Kd 9c 9s 2h 3d", FullHouse},
		{"flush", "As 9s", "Ks 7s 2s 4h 8d", Flush},
		{"straight", "9h 8c", "7d 6s 5h Kc 2d", Straight},
		{"wheel straight", "Ah 2c", "3d 4s 5h Kc 9d", Straight},
		{"three of a kind", "Qs Qh", "Qd 9c 7s 2h 4d", ThreeOfAKind},
		{"two pair", "Js Jh", "9d 9c 5s 2h 4d", TwoPair},
		{"one pair", "Ts Th", "9d 7c 5s 2h 4d", OnePair},
		{"high card", "As Jh", "9d 7c 5s 2h 4d", HighCard},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BestHand(cardsOf(t, tc.hole), cardsOf(t, tc.board))
			if got.Category != tc.want {
				t.Fatalf("category = %s, want %s", got.Category, tc.want)
			}
			if len(got.Cards) != 5 {
				t.Fatalf("best five has %d cards", len(got.Cards))
			}
		})
	}
}

func TestWheelStraightRanksBelowSixHigh(t *testing.T) {
	wheel := BestHand(cardsOf(t, "Ah 2c"), cardsOf(t, "3d 4s 5h Kc 9d"))
	sixHigh := BestHand(cardsOf(t, "6h 2c"), cardsOf(t, "3d 4s 5h Kc 9d"))
	if wheel.Compare(sixHigh) >= 0 {
		t.Fatalf("wheel should lose to six-high straight")
	}
}

func TestCompareKickers(t *testing.T) {
	// Same pair of aces, king kicker vs queen kicker.
	a := BestHand(cardsOf(t, "As Kh"), cardsOf(t, "Ad 9c 7s 4h 2d"))
	b := BestHand(cardsOf(t, "Ac Qh"), cardsOf(t, "Ad 9c 7s 4h 2d"))
	if a.Compare(b) <= 0 {
		t.Fatalf("king kicker should beat queen kicker")
	}
	if b.Compare(a) >= 0 {
		t.Fatalf("comparison is not antisymmetric")
	}
}

func TestCompareTie(t *testing.T) {
	// Board plays for both seats.
	board := cardsOf(t, "As Ks Qs Js Ts")
	a := BestHand(cardsOf(t, "2h 3d"), board)
	b := BestHand(cardsOf(t, "4c 5h"), board)
	if a.Compare(b) != 0 {
		t.Fatalf("royal board should tie, got %d", a.Compare(b))
	}
}

func TestBestOf(t *testing.T) {
	ranks := map[int]HandRank{
		0: {Category: OnePair, Kickers: []Rank{Ace, King, Nine, Seven}},
		2: {Category: Flush, Kickers: []Rank{King, Nine, Seven, Four, Two}},
		5: {Category: OnePair, Kickers: []Rank{Ace, King, Nine, Seven}},
	}
	got := BestOf([]int{0, 2, 5}, ranks)
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("BestOf = %v, want [2]", got)
	}

	tied := BestOf([]int{0, 5}, ranks)
	if len(tied) != 2 {
		t.Fatalf("tied BestOf = %v, want both seats", tied)
	}

	// Folded seat 3 has no rank and must be skipped.
	got = BestOf([]int{0, 3}, ranks)
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("BestOf with unranked seat = %v, want [0]", got)
	}
}
