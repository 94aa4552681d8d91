package core

// CategoryTotal is the summed amount for one category.
type CategoryTotal struct {
	Category    string  `json:"category"`
	TotalAmount float64 `json:"total_amount"`
}
