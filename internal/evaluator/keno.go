package evaluator

// Keno draws 10 numbers from 1..40; the player picks up to 10.

const (
	KenoPoolSize  = 40
	KenoDrawCount = 10
	KenoMaxPicks  = 10
)

// kenoPaytable is keyed by (numbers picked, numbers matched). Entries
// absent from the table pay nothing. The values are chosen so overall
// return stays below 1 for every pick count.
var kenoPaytable = map[int]map[int]float64{
	1:  {1: 3.8},
	2:  {2: 9.0},
	3:  {2: 2.0, 3: 16.0},
	4:  {2: 1.7, 3: 5.0, 4: 40.0},
	5:  {3: 2.5, 4: 15.0, 5: 100.0},
	6:  {3: 1.5, 4: 6.0, 5: 40.0, 6: 350.0},
	7:  {4: 3.5, 5: 15.0, 6: 100.0, 7: 700.0},
	8:  {4: 2.0, 5: 8.0, 6: 50.0, 7: 300.0, 8: 1000.0},
	9:  {4: 1.5, 5: 4.0, 6: 20.0, 7: 100.0, 8: 500.0, 9: 2000.0},
	10: {5: 3.0, 6: 10.0, 7: 50.0, 8: 200.0, 9: 1000.0, 10: 5000.0},
}

// KenoMatches counts the intersection of picks and drawn.
func KenoMatches(picks, drawn []int) int {
	set := make(map[int]bool, len(drawn))
	for _, n := range drawn {
		set[n] = true
	}
	matches := 0
	for _, p := range picks {
		if set[p] {
			matches++
		}
	}
	return matches
}

// KenoMultiplier returns the paytable multiplier for a result.
func KenoMultiplier(picked, matched int) float64 {
	row, ok := kenoPaytable[picked]
	if !ok {
		return 0
	}
	return row[matched]
}
