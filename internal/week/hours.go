package week

import (
	"fmt"
	"strings"
	"time"
)

// Hours renders d as hours with at most two decimals and no trailing zeros,
// e.g. 1.5, 8, 0.25.
func Hours(d time.Duration) string {
	s := fmt.Sprintf("%0.2f", d.Hours())
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Progress is the "worked/required" label for one day, e.g. "3.5h/8h".
func Progress(worked, required time.Duration) string {
	return Hours(worked) + "h/" + Hours(required) + "h"
}

// UnderTarget reports whether less than the required time was logged.
func UnderTarget(worked, required time.Duration) bool {
	return worked < required
}
