// Package round rounds reported figures half away from zero at a fixed number
// of decimal places.
package round

import "github.com/shopspring/decimal"

// Decimal places used for reported figures
const (
	PricePlaces     = 2
	PctPlaces       = 4
	ScorePlaces     = 4
	DirectionPlaces = 6
	MetricPlaces    = 4
)

// To rounds v to places decimal places
func To(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
