package appointment

import "time"

const maxSlots = 20

// Slot is one bookable time window.
type Slot struct {
	StartAt   time.Time `json:"start_at"`
	Formatted string    `json:"formatted"`
	Doctor    string    `json:"doctor"`
}

// GenerateSlots proposes open 30-minute slots on weekdays between 9am and 5pm
// for the next daysAhead days, skipping anything already in the past. At most
// 20 slots come back.
func GenerateSlots(now time.Time, daysAhead int, doctorName string) []Slot {
	if daysAhead <= 0 {
		daysAhead = 7
	}
	if doctorName == "" {
		doctorName = "Any available doctor"
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var slots []Slot
	for offset := 0; offset < daysAhead; offset++ {
		current := day.AddDate(0, 0, offset)
		if wd := current.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		for hour := 9; hour < 17; hour++ {
			for _, minute := range []int{0, 30} {
				start := time.Date(current.Year(), current.Month(), current.Day(), hour, minute, 0, 0, now.Location())
				if start.Before(now) {
					continue
				}
				slots = append(slots, Slot{
					StartAt:   start,
					Formatted: start.Format("Monday, January 2 at 3:04 PM"),
					Doctor:    doctorName,
				})
				if len(slots) == maxSlots {
					return slots
				}
			}
		}
	}
	return slots
}
