package common

import (
	"fmt"
	"strconv"
	"time"
)

func MaxInt(x, y int) int {
	if x > y {
		return x
	}
	return y
}

func MaxInt64(x, y int64) int64 {
	if x > y {
		return x
	}
	return y
}

func Decimal(value float64) float64 {
	value, _ = strconv.ParseFloat(fmt.Sprintf("%.2f", value), 64)
	return value
}

// Millis converts a duration to milliseconds rounded to two decimals.
func Millis(d time.Duration) float64 {
	return Decimal(float64(d) / float64(time.Millisecond))
}
