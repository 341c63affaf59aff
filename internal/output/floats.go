package output

import (
	"math"
	"strconv"
)

const floatScale = 1e6

// RoundFloat keeps six decimal places, enough for millisecond timings
// measured in microseconds.
func RoundFloat(f float64) float64 {
	return math.Round(f*floatScale) / floatScale
}

// FormatFloat prints f rounded to six decimals in its shortest form.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(RoundFloat(f), 'f', -1, 64)
}
