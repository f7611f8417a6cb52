package kis

// tickSize returns the KRX minimum price increment for the given price
// level (the unified 2023 band table, shared by KOSPI and KOSDAQ). The API
// does not return the tick size, so it is derived from the price.
func tickSize(price float64) float64 {
	switch {
	case price < 2_000:
		return 1
	case price < 5_000:
		return 5
	case price < 20_000:
		return 10
	case price < 50_000:
		return 50
	case price < 200_000:
		return 100
	case price < 500_000:
		return 500
	default:
		return 1_000
	}
}
