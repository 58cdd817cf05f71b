package model

import (
	"fmt"
	"strings"
)

// Dimension names one axis of the rating.
type Dimension string

// Known dimensions.
const (
	DimRating        Dimension = "rating"
	DimDaigouryoku   Dimension = "daigouryoku"
	DimStamina       Dimension = "stamina"
	DimSpeed         Dimension = "speed"
	DimAccuracyPower Dimension = "accuracy_power"
	DimRhythm        Dimension = "rhythm"
	DimComplex       Dimension = "complex"
)

// AllDimensions lists every dimension in display order.
var AllDimensions = []Dimension{
	DimRating,
	DimDaigouryoku,
	DimStamina,
	DimSpeed,
	DimAccuracyPower,
	DimRhythm,
	DimComplex,
}

var dimensionLabels = map[Dimension]string{
	DimRating:        "Rating",
	DimDaigouryoku:   "Daigouryoku",
	DimStamina:       "Stamina",
	DimSpeed:         "Speed",
	DimAccuracyPower: "Accuracy",
	DimRhythm:        "Rhythm",
	DimComplex:       "Complex",
}

// ParseDimension resolves a dimension name. "accuracy" is accepted as an alias.
func ParseDimension(s string) (Dimension, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "accuracy" {
		return DimAccuracyPower, nil
	}
	d := Dimension(name)
	if _, ok := dimensionLabels[d]; !ok {
		return "", fmt.Errorf("unknown dimension %q", s)
	}
	return d, nil
}

// Label returns a human readable name.
func (d Dimension) Label() string {
	if l, ok := dimensionLabels[d]; ok {
		return l
	}
	return string(d)
}

// Of extracts the dimension value from song stats.
func (d Dimension) Of(s SongStats) float64 {
	switch d {
	case DimRating:
		return s.Rating
	case DimDaigouryoku:
		return s.Daigouryoku
	case DimStamina:
		return s.Stamina
	case DimSpeed:
		return s.Speed
	case DimAccuracyPower:
		return s.AccuracyPower
	case DimRhythm:
		return s.Rhythm
	case DimComplex:
		return s.Complex
	default:
		return 0
	}
}

// Dimensions holds one value per dimension.
type Dimensions struct {
	Rating        float64
	Daigouryoku   float64
	Stamina       float64
	Speed         float64
	AccuracyPower float64
	Rhythm        float64
	Complex       float64
}

// Get returns the value for d.
func (v Dimensions) Get(d Dimension) float64 {
	return d.Of(SongStats{
		Rating:        v.Rating,
		Daigouryoku:   v.Daigouryoku,
		Stamina:       v.Stamina,
		Speed:         v.Speed,
		AccuracyPower: v.AccuracyPower,
		Rhythm:        v.Rhythm,
		Complex:       v.Complex,
	})
}

// Set stores val for d.
func (v *Dimensions) Set(d Dimension, val float64) {
	switch d {
	case DimRating:
		v.Rating = val
	case DimDaigouryoku:
		v.Daigouryoku = val
	case DimStamina:
		v.Stamina = val
	case DimSpeed:
		v.Speed = val
	case DimAccuracyPower:
		v.AccuracyPower = val
	case DimRhythm:
		v.Rhythm = val
	case DimComplex:
		v.Complex = val
	}
}
