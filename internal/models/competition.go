// internal/models/competition.go
package models

import (
	"fmt"
	"strings"
	"time"
)

type CategoryFormat string

const (
	FormatGroups               CategoryFormat = "GROUPS"
	FormatSingleElimination    CategoryFormat = "SINGLE_ELIMINATION"
	FormatGroupsAndElimination CategoryFormat = "GROUPS_AND_ELIMINATION"
)

func (f CategoryFormat) HasGroups() bool {
	return f == FormatGroups || f == FormatGroupsAndElimination
}

func (f CategoryFormat) HasBracket() bool {
	return f == FormatSingleElimination || f == FormatGroupsAndElimination
}

func ParseCategoryFormat(raw string) (CategoryFormat, error) {
	format := CategoryFormat(strings.ToUpper(strings.TrimSpace(raw)))
	switch format {
	case FormatGroups, FormatSingleElimination, FormatGroupsAndElimination:
		return format, nil
	default:
		return "", fmt.Errorf("unknown category format %q", raw)
	}
}

type CategoryStatus string

const (
	StatusRegistrationOpen CategoryStatus = "REGISTRATION_OPEN"
	StatusActive           CategoryStatus = "ACTIVE"
	StatusCompleted        CategoryStatus = "COMPLETED"
)

// MatchType selects which part of a category's draw to generate.
type MatchType string

const (
	MatchTypeAll         MatchType = "ALL"
	MatchTypeGroup       MatchType = "GROUP"
	MatchTypeElimination MatchType = "ELIMINATION"
)

func ParseMatchType(raw string) (MatchType, error) {
	value := MatchType(strings.ToUpper(strings.TrimSpace(raw)))
	switch value {
	case "":
		return MatchTypeAll, nil
	case MatchTypeAll, MatchTypeGroup, MatchTypeElimination:
		return value, nil
	default:
		return "", fmt.Errorf("unknown match type %q", raw)
	}
}

type Tournament struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

type Venue struct {
	ID           int64  `json:"id"`
	TournamentID int64  `json:"tournamentId"`
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
}

type Court struct {
	ID      int64  `json:"id"`
	VenueID int64  `json:"venueId"`
	Name    string `json:"name"`
}

type Category struct {
	ID            int64          `json:"id"`
	TournamentID  int64          `json:"tournamentId"`
	Name          string         `json:"name"`
	Format        CategoryFormat `json:"format"`
	MatchDuration int            `json:"matchDuration"`
	Status        CategoryStatus `json:"status"`
}

// Duration is the configured length of a single match in the category.
func (c Category) Duration() time.Duration {
	return time.Duration(c.MatchDuration) * time.Minute
}

type Team struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
	Player1    string `json:"player1,omitempty"`
	Player2    string `json:"player2,omitempty"`
	Seeded     bool   `json:"seeded"`
}

type Group struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
}

type GroupAssignment struct {
	ID      int64 `json:"id"`
	GroupID int64 `json:"groupId"`
	TeamID  int64 `json:"teamId"`
	Played  int   `json:"played"`
	Won     int   `json:"won"`
	Lost    int   `json:"lost"`
	Points  int   `json:"points"`
}

// Match is a single fixture. A team id of 0 marks an open bracket slot that is waiting
// for the winner of an earlier match.
type Match struct {
	ID            int64      `json:"id"`
	CategoryID    int64      `json:"categoryId"`
	TeamAID       int64      `json:"teamAId"`
	TeamBID       int64      `json:"teamBId"`
	GroupID       *int64     `json:"groupId,omitempty"`
	Round         Round      `json:"round"`
	Position      int        `json:"position"`
	ScoreA        *string    `json:"scoreA,omitempty"`
	ScoreB        *string    `json:"scoreB,omitempty"`
	Winner        *int64     `json:"winner,omitempty"`
	CourtID       *int64     `json:"courtId,omitempty"`
	ScheduledTime *time.Time `json:"scheduledTime,omitempty"`
	Completed     bool       `json:"completed"`
}

func (m Match) HasTeam(teamID int64) bool {
	return teamID != 0 && (m.TeamAID == teamID || m.TeamBID == teamID)
}

func (m Match) IsScheduled() bool {
	return m.CourtID != nil && m.ScheduledTime != nil
}

// Slot returns the team id sitting in slot 0 (team A) or slot 1 (team B).
func (m Match) Slot(slot int) int64 {
	if slot == 0 {
		return m.TeamAID
	}
	return m.TeamBID
}

// GroupStanding pairs a team with its assignment row inside one group.
type GroupStanding struct {
	GroupAssignment
	Team *Team `json:"team,omitempty"`
}

type GroupStandings struct {
	Group     Group           `json:"group"`
	Standings []GroupStanding `json:"standings"`
}

// Booking is a match occupying a court from Start for Duration.
type Booking struct {
	MatchID  int64
	CourtID  int64
	Start    time.Time
	Duration time.Duration
}

func (b Booking) End() time.Time {
	return b.Start.Add(b.Duration)
}

// TeamGroup places one team in one group.
type TeamGroup struct {
	TeamID  int64 `json:"teamId"`
	GroupID int64 `json:"groupId"`
}
