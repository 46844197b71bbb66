package draw

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codr1/padeldraw/internal/models"
)

// Slot is one court booked for one match length.
type Slot struct {
	Court models.Court
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two bookings on the same court share any instant.
func (s Slot) Overlaps(other Slot) bool {
	if s.Court.ID != other.Court.ID {
		return false
	}
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// DailyHours bounds the playing window of each tournament day. Only the clock part of
// Opens and Closes is used.
type DailyHours struct {
	Opens  time.Time
	Closes time.Time
}

// ParseDailyHours reads a window such as ("09:00", "21:00").
func ParseDailyHours(opens, closes string) (DailyHours, error) {
	start, err := ParseTimeOfDay(opens)
	if err != nil {
		return DailyHours{}, fmt.Errorf("invalid day start: %w", err)
	}
	end, err := ParseTimeOfDay(closes)
	if err != nil {
		return DailyHours{}, fmt.Errorf("invalid day end: %w", err)
	}
	if !end.After(start) {
		return DailyHours{}, errors.New("day end must be after day start")
	}
	return DailyHours{Opens: start, Closes: end}, nil
}

// BuildSlots lays out a (court, start) grid for every day from startDate to endDate,
// stepping by matchDuration inside the daily hours. Days run in order and, within a
// start time, courts keep their input order.
func BuildSlots(startDate, endDate time.Time, courts []models.Court, hours DailyHours, matchDuration time.Duration) ([]Slot, error) {
	if len(courts) == 0 {
		return nil, errors.New("at least one court is required")
	}
	if matchDuration <= 0 {
		return nil, errors.New("match duration must be positive")
	}
	startDate = truncateDate(startDate)
	endDate = truncateDate(endDate)
	if endDate.Before(startDate) {
		return nil, errors.New("start date must be on or before end date")
	}

	var slots []Slot
	for date := startDate; !date.After(endDate); date = date.AddDate(0, 0, 1) {
		dayOpen := time.Date(date.Year(), date.Month(), date.Day(), hours.Opens.Hour(), hours.Opens.Minute(), 0, 0, date.Location())
		dayClose := time.Date(date.Year(), date.Month(), date.Day(), hours.Closes.Hour(), hours.Closes.Minute(), 0, 0, date.Location())
		if !dayClose.After(dayOpen) {
			continue
		}
		for start := dayOpen; !start.Add(matchDuration).After(dayClose); start = start.Add(matchDuration) {
			end := start.Add(matchDuration)
			for _, court := range courts {
				slots = append(slots, Slot{Court: court, Start: start, End: end})
			}
		}
	}

	if len(slots) == 0 {
		return nil, errors.New("no available match slots in the tournament date range")
	}
	return slots, nil
}

// FreeSlots drops every slot that overlaps a busy booking. The input order is kept.
func FreeSlots(slots []Slot, busy []Slot) []Slot {
	byCourt := make(map[int64][]Slot)
	for _, booking := range busy {
		byCourt[booking.Court.ID] = append(byCourt[booking.Court.ID], booking)
	}

	free := make([]Slot, 0, len(slots))
	for _, slot := range slots {
		taken := false
		for _, booking := range byCourt[slot.Court.ID] {
			if slot.Overlaps(booking) {
				taken = true
				break
			}
		}
		if !taken {
			free = append(free, slot)
		}
	}
	return free
}

func ParseTimeOfDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("time is required")
	}
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		formats := []string{"3:04 PM", "03:04 PM", "3:04PM", "03:04PM"}
		for _, format := range formats {
			if parsed, err = time.Parse(format, strings.ToUpper(raw)); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, errors.New("time must be in HH:MM or H:MM AM/PM format")
	}
	return parsed, nil
}

func truncateDate(value time.Time) time.Time {
	loc := value.Location()
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, loc)
}
