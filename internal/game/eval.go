package game

import "sort"

type HandCategory uint8

const (
	HighCard HandCategory = iota + 1
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

func (c HandCategory) String() string {
	switch c {
	case HighCard:
		return "high_card"
	case OnePair:
		return "one_pair"
	case TwoPair:
		return "two_pair"
	case ThreeOfAKind:
		return "three_of_a_kind"
	case Straight:
		return "straight"
	case Flush:
		return "flush"
	case FullHouse:
		return "full_house"
	case FourOfAKind:
		return "four_of_a_kind"
	case StraightFlush:
		return "straight_flush"
	}
	return "unknown"
}

// HandRank orders poker hands: first by category, then by the category's
// kicker sequence, high card first.
type HandRank struct {
	Category HandCategory
	Kickers  []Rank
	Cards    []Card
}

// Compare returns >0 if a beats b, <0 if b beats a, 0 on a tie.
func (a HandRank) Compare(b HandRank) int {
	if a.Category != b.Category {
		if a.Category > b.Category {
			return 1
		}
		return -1
	}
	n := len(a.Kickers)
	if len(b.Kickers) < n {
		n = len(b.Kickers)
	}
	for i := 0; i < n; i++ {
		if a.Kickers[i] != b.Kickers[i] {
			if a.Kickers[i] > b.Kickers[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// BestHand evaluates the strongest five-card hand from hole+board.
func BestHand(hole []Card, board []Card) HandRank {
	all := append(append([]Card(nil), hole...), board...)
	if len(all) < 5 {
		return HandRank{}
	}

	var best HandRank
	forEachFive(all, func(five []Card) {
		candidate := rankFive(five)
		if best.Category == 0 || candidate.Compare(best) > 0 {
			best = candidate
			best.Cards = append([]Card(nil), five...)
		}
	})
	return best
}

func forEachFive(cards []Card, fn func([]Card)) {
	n := len(cards)
	pick := make([]Card, 5)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == 5 {
			fn(pick)
			return
		}
		for i := start; i <= n-(5-depth); i++ {
			pick[depth] = cards[i]
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
}

func rankFive(cards []Card) HandRank {
	ranks := make([]Rank, 0, 5)
	counts := map[Rank]int{}
	suits := map[Suit]int{}
	for _, c := range cards {
		ranks = append(ranks, c.Rank)
		counts[c.Rank]++
		suits[c.Suit]++
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] > ranks[j] })

	flush := len(suits) == 1
	straightHigh, straight := straightHighCard(ranks)

	if flush && straight {
		return HandRank{Category: StraightFlush, Kickers: []Rank{straightHigh}}
	}

	groups := groupByCount(counts)
	switch {
	case groups[0].count == 4:
		return HandRank{Category: FourOfAKind, Kickers: []Rank{groups[0].rank, groups[1].rank}}
	case groups[0].count == 3 && groups[1].count == 2:
		return HandRank{Category: FullHouse, Kickers: []Rank{groups[0].rank, groups[1].rank}}
	case flush:
		return HandRank{Category: Flush, Kickers: ranks}
	case straight:
		return HandRank{Category: Straight, Kickers: []Rank{straightHigh}}
	case groups[0].count == 3:
		return HandRank{Category: ThreeOfAKind, Kickers: groupKickers(groups)}
	case groups[0].count == 2 && groups[1].count == 2:
		hi, lo := groups[0].rank, groups[1].rank
		if lo > hi {
			hi, lo = lo, hi
		}
		return HandRank{Category: TwoPair, Kickers: []Rank{hi, lo, groups[2].rank}}
	case groups[0].count == 2:
		return HandRank{Category: OnePair, Kickers: groupKickers(groups)}
	}
	return HandRank{Category: HighCard, Kickers: ranks}
}

type rankGroup struct {
	rank  Rank
	count int
}

func groupByCount(counts map[Rank]int) []rankGroup {
	groups := make([]rankGroup, 0, len(counts))
	for r, n := range counts {
		groups = append(groups, rankGroup{rank: r, count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count == groups[j].count {
			return groups[i].rank > groups[j].rank
		}
		return groups[i].count > groups[j].count
	})
	return groups
}

func groupKickers(groups []rankGroup) []Rank {
	out := make([]Rank, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.rank)
	}
	return out
}

func straightHighCard(sorted []Rank) (Rank, bool) {
	if len(sorted) != 5 {
		return 0, false
	}
	for i := 1; i < 5; i++ {
		if sorted[i] == sorted[i-1] {
			return 0, false
		}
	}
	// Wheel: A-5-4-3-2.
	if sorted[0] == Ace && sorted[1] == Five && sorted[2] == Four && sorted[3] == Three && sorted[4] == Two {
		return Five, true
	}
	for i := 1; i < 5; i++ {
		if sorted[i-1]-1 != sorted[i] {
			return 0, false
		}
	}
	return sorted[0], true
}
