package entitlement

import "time"

const (
	secondsPerDay    = 86400
	secondsPerHour   = 3600
	secondsPerMinute = 60
)

// SplitRemaining breaks d into whole days, hours and minutes.
// Negative durations yield zero.
func SplitRemaining(d time.Duration) Remaining {
	total := int64(d / time.Second)
	if total <= 0 {
		return Remaining{}
	}
	days := total / secondsPerDay
	rest := total % secondsPerDay
	hours := rest / secondsPerHour
	minutes := (rest % secondsPerHour) / secondsPerMinute
	return Remaining{Days: int(days), Hours: int(hours), Minutes: int(minutes)}
}

// Duration converts the breakdown back to a duration.
func (r Remaining) Duration() time.Duration {
	return time.Duration(r.Days)*24*time.Hour +
		time.Duration(r.Hours)*time.Hour +
		time.Duration(r.Minutes)*time.Minute
}
