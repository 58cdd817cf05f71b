package rating

import "math"

// scaleTable maps chart constants, keyed in tenths, to the internal difficulty scale.
var scaleTable = map[int]float64{
	10: 0.05, 11: 0.05, 12: 0.05, 13: 0.05, 14: 0.08, 15: 0.12,
	16: 0.16, 17: 0.20, 18: 0.25, 19: 0.30, 20: 0.35, 21: 0.41,
	22: 0.47, 23: 0.54, 24: 0.61, 25: 0.68, 26: 0.75, 27: 0.83,
	28: 0.91, 29: 0.99, 30: 1.08, 31: 1.16, 32: 1.25, 33: 1.34,
	34: 1.44, 35: 1.54, 36: 1.64, 37: 1.74, 38: 1.84, 39: 1.95,
	40: 2.06, 41: 2.17, 42: 2.28, 43: 2.40, 44: 2.51, 45: 2.63,
	46: 2.75, 47: 2.88, 48: 3.00, 49: 3.13, 50: 3.26, 51: 3.39,
	52: 3.52, 53: 3.66, 54: 3.80, 55: 3.94, 56: 4.08, 57: 4.22,
	58: 4.36, 59: 4.51, 60: 4.66, 61: 4.81, 62: 4.96, 63: 5.11,
	64: 5.27, 65: 5.43, 66: 5.58, 67: 5.74, 68: 5.91, 69: 6.07,
	70: 6.24, 71: 6.40, 72: 6.57, 73: 6.74, 74: 6.91, 75: 7.09,
	76: 7.26, 77: 7.44, 78: 7.62, 79: 7.80, 80: 7.98, 81: 8.16,
	82: 8.35, 83: 8.53, 84: 8.72, 85: 8.91, 86: 9.10, 87: 9.29,
	88: 9.49, 89: 9.68, 90: 9.88, 91: 10.08, 92: 10.28, 93: 10.48,
	94: 10.68, 95: 10.89, 96: 11.09, 97: 11.30, 98: 11.51, 99: 11.72,
	100: 11.93, 101: 12.14, 102: 12.36, 103: 12.57, 104: 12.79, 105: 13.01,
	106: 13.23, 107: 13.45, 108: 13.67, 109: 13.90, 110: 14.12, 111: 14.35,
	112: 14.57, 113: 14.80, 114: 15.03, 115: 15.27, 116: 15.50,
}

// DifficultyToScale maps a chart constant to the difficulty scale x.
// Only constants on the 0.1 grid of the table resolve; anything else is MinScale.
func DifficultyToScale(constant float64) float64 {
	tenths := constant * 10
	key := math.Round(tenths)
	if math.Abs(tenths-key) > 1e-6 {
		return MinScale
	}
	if v, ok := scaleTable[int(key)]; ok {
		return v
	}
	return MinScale
}
