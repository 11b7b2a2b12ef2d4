package gridlookup

import "math"

// RoundTwoDecimals rounds v to the nearest hundredth, halves rounding up.
// It computes floor(v*100+0.5)/100, so the usual binary artifacts apply:
// 2.005 is stored as 2.00499... and rounds to 2.
func RoundTwoDecimals(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
