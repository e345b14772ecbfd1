package ui

import "time"

func sinceSeconds(start time.Time) float64 {
	return time.Since(start).Seconds()
}
