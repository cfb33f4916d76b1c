package game

import "sort"

// buildPots derives the main and side pots from per-seat total contributions.
// Each distinct contribution level closes one pot; seats that matched the
// level and have not folded are eligible for it. Folded chips stay in the
// pots but the folder is never eligible.
func buildPots(contrib map[int]int64, folded map[int]bool) []Pot {
	levels := make([]int64, 0, len(contrib))
	seen := map[int64]bool{}
	for _, c := range contrib {
		if c > 0 && !seen[c] {
			seen[c] = true
			levels = append(levels, c)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	pots := make([]Pot, 0, len(levels))
	prev := int64(0)
	for _, level := range levels {
		slice := level - prev
		amount := int64(0)
		eligible := make([]int, 0, len(contrib))
		for seat, c := range contrib {
			if c <= prev {
				continue
			}
			part := c - prev
			if part > slice {
				part = slice
			}
			amount += part
			if c >= level && !folded[seat] {
				eligible = append(eligible, seat)
			}
		}
		prev = level
		if amount == 0 {
			continue
		}
		sort.Ints(eligible)
		pots = append(pots, Pot{Amount: amount, Eligible: eligible})
	}
	return pots
}

// SplitPot divides amount evenly across winners using integer division.
// Remainder chips go one each to winners in ascending seat order, so the
// outcome is deterministic regardless of map iteration.
func SplitPot(amount int64, winners []int) map[int]int64 {
	out := make(map[int]int64, len(winners))
	if len(winners) == 0 || amount <= 0 {
		return out
	}
	ordered := append([]int(nil), winners...)
	sort.Ints(ordered)
	share := amount / int64(len(ordered))
	rem := amount % int64(len(ordered))
	for i, seat := range ordered {
		out[seat] = share
		if int64(i) < rem {
			out[seat]++
		}
	}
	return out
}
