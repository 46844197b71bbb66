// internal/models/errors.go
package models

import (
	"errors"
	"fmt"
	"time"
)

// Validation failures surfaced to callers as 4xx responses.
var (
	ErrNotFound          = errors.New("requested resource not found")
	ErrNoGroups          = errors.New("no groups exist for this category")
	ErrNoTeams           = errors.New("no unassigned teams to distribute")
	ErrInsufficientTeams = errors.New("at least two teams are required")
	ErrInvalidWinner     = errors.New("winner must be one of the two teams on the match")
	ErrAlreadyCompleted  = errors.New("match is already completed")
	ErrSlotConflict      = errors.New("court is already booked at that time")
	ErrInvalidSchedule   = errors.New("court and scheduled time must be set together")
	ErrCategoryLocked    = errors.New("category no longer accepts group changes")
	ErrMatchesExist      = errors.New("matches have already been generated")
	ErrInvalidFormat     = errors.New("match type is not valid for the category format")
	ErrInvalidGroupCount = errors.New("group count must be at least 1")
	ErrInvalidAssignment = errors.New("assignment references a team or group outside the category")
	ErrMatchNotReady     = errors.New("match is still waiting for an opponent")
	ErrGroupsIncomplete  = errors.New("group play is not finished")
	ErrNoCourts          = errors.New("tournament has no courts")
)

// SlotConflictError reports the match that already holds the requested court slot.
type SlotConflictError struct {
	MatchID            int64
	CourtID            int64
	ScheduledTime      time.Time
	ConflictingMatchID int64
}

func (e SlotConflictError) Error() string {
	return fmt.Sprintf("court %d at %s is already used by match %d",
		e.CourtID, e.ScheduledTime.UTC().Format(time.RFC3339), e.ConflictingMatchID)
}

func (e SlotConflictError) Is(target error) bool {
	return target == ErrSlotConflict
}
