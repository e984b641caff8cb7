package domain

import (
	"math"
	"time"
)

// RoundMoney rounds an amount to cents.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// SessionCharge returns the cost of sitting at a machine from start to end.
// Every started minute is billed.
func SessionCharge(start, end time.Time, pricePerHour float64) float64 {
	if !end.After(start) || pricePerHour <= 0 {
		return 0
	}
	minutes := math.Ceil(end.Sub(start).Minutes())
	return RoundMoney(minutes * pricePerHour / 60)
}
