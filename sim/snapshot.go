package sim

// Snapshot is one row of the simulated trajectory. Mid and Spread are only
// meaningful when TwoSided is true; a one-sided window leaves them zero.
// Depths is the length-2K window ordered by price, deepest bid first.
type Snapshot struct {
	Step     int     `json:"step"`
	Time     float64 `json:"time"`
	RefPrice float64 `json:"reference_price"`
	Mid      float64 `json:"mid_price"`
	Spread   float64 `json:"spread"`
	TwoSided bool    `json:"two_sided"`
	Depths   []int64 `json:"depths"`
}
