package draw

import (
	"testing"
	"time"

	"github.com/codr1/padeldraw/internal/models"
)

func TestBuildSlotsGrid(t *testing.T) {
	hours, err := ParseDailyHours("09:00", "11:00")
	if err != nil {
		t.Fatalf("hours: %v", err)
	}
	courts := []models.Court{{ID: 1, Name: "Central"}, {ID: 2, Name: "Pista 2"}}
	start := time.Date(2025, 6, 7, 15, 30, 0, 0, time.UTC)
	end := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)

	slots, err := BuildSlots(start, end, courts, hours, 60*time.Minute)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(slots))
	}

	first := slots[0]
	if first.Court.ID != 1 || !first.Start.Equal(time.Date(2025, 6, 7, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected first slot: %+v", first)
	}
	if slots[1].Court.ID != 2 || !slots[1].Start.Equal(first.Start) {
		t.Fatalf("second slot should be the next court at the same time: %+v", slots[1])
	}
	last := slots[len(slots)-1]
	if !last.End.Equal(time.Date(2025, 6, 8, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("last slot ends at %s", last.End)
	}
}

func TestBuildSlotsSkipsPartialSlot(t *testing.T) {
	hours, err := ParseDailyHours("9:00 AM", "10:30")
	if err != nil {
		t.Fatalf("hours: %v", err)
	}
	day := time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC)
	slots, err := BuildSlots(day, day, []models.Court{{ID: 1}}, hours, time.Hour)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
}

func TestBuildSlotsErrors(t *testing.T) {
	hours, _ := ParseDailyHours("09:00", "10:00")
	day := time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC)

	if _, err := BuildSlots(day, day, nil, hours, time.Hour); err == nil {
		t.Fatalf("expected error without courts")
	}
	if _, err := BuildSlots(day, day, []models.Court{{ID: 1}}, hours, 0); err == nil {
		t.Fatalf("expected error for zero duration")
	}
	if _, err := BuildSlots(day, day.AddDate(0, 0, -1), []models.Court{{ID: 1}}, hours, time.Hour); err == nil {
		t.Fatalf("expected error for inverted dates")
	}
	if _, err := BuildSlots(day, day, []models.Court{{ID: 1}}, hours, 2*time.Hour); err == nil {
		t.Fatalf("expected error when no slot fits")
	}
	if _, err := ParseDailyHours("18:00", "09:00"); err == nil {
		t.Fatalf("expected error for inverted hours")
	}
}

func TestFreeSlotsDropsOverlaps(t *testing.T) {
	court := models.Court{ID: 1}
	other := models.Court{ID: 2}
	at := func(hour, minute int) time.Time {
		return time.Date(2025, 6, 7, hour, minute, 0, 0, time.UTC)
	}
	slots := []Slot{
		{Court: court, Start: at(9, 0), End: at(10, 0)},
		{Court: other, Start: at(9, 0), End: at(10, 0)},
		{Court: court, Start: at(10, 0), End: at(11, 0)},
		{Court: court, Start: at(11, 0), End: at(12, 0)},
	}
	busy := []Slot{{Court: court, Start: at(9, 30), End: at(10, 15)}}

	free := FreeSlots(slots, busy)
	if len(free) != 2 {
		t.Fatalf("expected 2 free slots, got %d", len(free))
	}
	if free[0].Court.ID != 2 || !free[1].Start.Equal(at(11, 0)) {
		t.Fatalf("unexpected free slots: %+v", free)
	}
}
