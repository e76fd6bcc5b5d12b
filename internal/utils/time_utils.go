package utils

import (
	"time"
)

var reportingLoc = time.UTC

// SetLocation sets the timezone used for daily boundaries. Unknown names keep the current zone.
func SetLocation(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		// In production docker, ensure tzdata is installed
		return err
	}
	reportingLoc = loc
	return nil
}

// GetLocation returns the reporting *time.Location
func GetLocation() *time.Location {
	return reportingLoc
}

// StartOfDay returns 00:00:00 of t's day in the reporting timezone
func StartOfDay(t time.Time) time.Time {
	local := t.In(reportingLoc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, reportingLoc)
}
