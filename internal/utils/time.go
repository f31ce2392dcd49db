package utils

import "time"

const RunDateLayout = "2006-01-02"

func Now() time.Time {
	return time.Now().UTC()
}

func NowPtr() *time.Time {
	now := Now()
	return &now
}

// FormatRunDate renders a time as the YYYY-MM-DD run date key
func FormatRunDate(t time.Time) string {
	return t.UTC().Format(RunDateLayout)
}
