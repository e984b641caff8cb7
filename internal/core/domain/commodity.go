package domain

// Commodity is a snack or drink sold at the counter.
type Commodity struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Unit  string  `json:"unit"`
	Stock int     `json:"stock"`
}
