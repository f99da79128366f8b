package analytics

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// percent returns part/whole*100 rounded to places, or 0 when whole is 0
func percent(part, whole decimal.Decimal, places int32) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(places)
}

func percentOfCount(part, whole int, places int32) decimal.Decimal {
	return percent(decimal.NewFromInt(int64(part)), decimal.NewFromInt(int64(whole)), places)
}
