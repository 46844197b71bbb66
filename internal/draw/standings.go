package draw

import (
	"sort"

	"github.com/codr1/padeldraw/internal/models"
)

// PointsForWin is awarded to the winner of a group match. Losers receive nothing.
const PointsForWin = 3

// StandingDelta is the change one result makes to a team's group record.
type StandingDelta struct {
	TeamID int64
	Played int
	Won    int
	Lost   int
	Points int
}

// ResultDeltas returns the increments a completed match applies to both teams' records.
// Draws are not possible; winnerTeamID must be one of the two teams.
func ResultDeltas(teamAID, teamBID, winnerTeamID int64) (StandingDelta, StandingDelta, error) {
	if winnerTeamID == 0 || (winnerTeamID != teamAID && winnerTeamID != teamBID) {
		return StandingDelta{}, StandingDelta{}, models.ErrInvalidWinner
	}

	a := StandingDelta{TeamID: teamAID, Played: 1}
	b := StandingDelta{TeamID: teamBID, Played: 1}
	winner, loser := &a, &b
	if winnerTeamID == teamBID {
		winner, loser = &b, &a
	}
	winner.Won = 1
	winner.Points = PointsForWin
	loser.Lost = 1
	return a, b, nil
}

// Apply returns the assignment with the delta added.
func (d StandingDelta) Apply(assignment models.GroupAssignment) models.GroupAssignment {
	assignment.Played += d.Played
	assignment.Won += d.Won
	assignment.Lost += d.Lost
	assignment.Points += d.Points
	return assignment
}

// ApplyResult records one match result on the two teams' assignments. It does not guard
// against applying the same match twice.
func ApplyResult(a, b models.GroupAssignment, winnerTeamID int64) (models.GroupAssignment, models.GroupAssignment, error) {
	deltaA, deltaB, err := ResultDeltas(a.TeamID, b.TeamID, winnerTeamID)
	if err != nil {
		return a, b, err
	}
	return deltaA.Apply(a), deltaB.Apply(b), nil
}

// RankStandings orders assignments by points, then wins, keeping the input order on ties.
func RankStandings(rows []models.GroupAssignment) []models.GroupAssignment {
	ranked := make([]models.GroupAssignment, len(rows))
	copy(ranked, rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranksAbove(ranked[i], ranked[j])
	})
	return ranked
}

// RankGroupStandings applies the RankStandings order in place.
func RankGroupStandings(rows []models.GroupStanding) {
	sort.SliceStable(rows, func(i, j int) bool {
		return ranksAbove(rows[i].GroupAssignment, rows[j].GroupAssignment)
	})
}

func ranksAbove(a, b models.GroupAssignment) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	return a.Won > b.Won
}
