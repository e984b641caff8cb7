package domain

// Zone groups machines that share an hourly price.
type Zone struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Capacity     int     `json:"capacity"`
	PricePerHour float64 `json:"pricePerHour"`
	Description  string  `json:"description,omitempty"`
}
