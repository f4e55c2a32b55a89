package truncated

import (
	"fmt"
	"math"
)

const microsPerDay = 86400 * 1e6

// FormatDays renders a duration given in days as "D days, H:MM:SS.ffffff",
// omitting the day part when zero and the fraction when it has no
// microseconds. Durations too large to count in microseconds are printed as
// plain days.
func FormatDays(days float64) string {
	if math.IsNaN(days) || math.IsInf(days, 0) || math.Abs(days) > 1e9 {
		return fmt.Sprintf("%g days", days)
	}
	us := int64(math.RoundToEven(days * microsPerDay))

	// Negative durations keep a negative day count and a positive time of
	// day, as in "-1 day, 23:59:59".
	d := us / int64(microsPerDay)
	rem := us % int64(microsPerDay)
	if rem < 0 {
		d--
		rem += int64(microsPerDay)
	}
	secs := rem / 1e6
	frac := rem % 1e6

	s := fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
	if frac != 0 {
		s += fmt.Sprintf(".%06d", frac)
	}
	switch {
	case d == 1 || d == -1:
		s = fmt.Sprintf("%d day, %s", d, s)
	case d != 0:
		s = fmt.Sprintf("%d days, %s", d, s)
	}
	return s
}
