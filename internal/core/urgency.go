package core

import "time"

const (
	Critical UrgencyTier = "critical"
	Soon     UrgencyTier = "soon"
	Normal   UrgencyTier = "normal"
)

// UrgencyTier is a coarse proximity class used to rank upcoming items.
type UrgencyTier string

// DaysUntil returns ceil((occurrence - now) / 24h). Overdue items are negative.
func DaysUntil(occurrence, now time.Time) int {
	const day = 24 * time.Hour
	d := occurrence.Sub(now)
	days := d / day
	if d%day > 0 {
		days++
	}
	return int(days)
}

// ClassifyUrgency maps a day distance to a tier: up to 3 days (and anything
// overdue) is critical, 4 to 7 is soon, the rest is normal.
func ClassifyUrgency(daysUntil int) UrgencyTier {
	switch {
	case daysUntil <= 3:
		return Critical
	case daysUntil <= 7:
		return Soon
	default:
		return Normal
	}
}
