package draw

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/codr1/padeldraw/internal/models"
)

func TestApplyResultWinnerTakesThreePoints(t *testing.T) {
	a := models.GroupAssignment{ID: 1, GroupID: 10, TeamID: 1}
	b := models.GroupAssignment{ID: 2, GroupID: 10, TeamID: 2}

	gotA, gotB, err := ApplyResult(a, b, 1)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	wantA := models.GroupAssignment{ID: 1, GroupID: 10, TeamID: 1, Played: 1, Won: 1, Points: 3}
	wantB := models.GroupAssignment{ID: 2, GroupID: 10, TeamID: 2, Played: 1, Lost: 1}
	if diff := cmp.Diff(wantA, gotA); diff != "" {
		t.Fatalf("winner record (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantB, gotB); diff != "" {
		t.Fatalf("loser record (-want +got):\n%s", diff)
	}
}

func TestApplyResultRejectsUnknownWinner(t *testing.T) {
	a := models.GroupAssignment{TeamID: 1}
	b := models.GroupAssignment{TeamID: 2}

	for _, winner := range []int64{0, 3} {
		gotA, gotB, err := ApplyResult(a, b, winner)
		if !errors.Is(err, models.ErrInvalidWinner) {
			t.Fatalf("winner %d: expected ErrInvalidWinner, got %v", winner, err)
		}
		if gotA != a || gotB != b {
			t.Fatalf("winner %d: records changed on error", winner)
		}
	}
}

func TestResultDeltasFavourTeamB(t *testing.T) {
	deltaA, deltaB, err := ResultDeltas(4, 9, 9)
	if err != nil {
		t.Fatalf("deltas: %v", err)
	}
	if deltaA != (StandingDelta{TeamID: 4, Played: 1, Lost: 1}) {
		t.Fatalf("team A delta: %+v", deltaA)
	}
	if deltaB != (StandingDelta{TeamID: 9, Played: 1, Won: 1, Points: PointsForWin}) {
		t.Fatalf("team B delta: %+v", deltaB)
	}
}

func TestStandingsConservation(t *testing.T) {
	teams := testTeams(6)
	matches, err := GenerateRoundRobin(1, 10, teams)
	if err != nil {
		t.Fatalf("round robin: %v", err)
	}

	records := make(map[int64]models.GroupAssignment, len(teams))
	for _, team := range teams {
		records[team.ID] = models.GroupAssignment{GroupID: 10, TeamID: team.ID}
	}

	rng := rand.New(rand.NewPCG(11, 13))
	for _, match := range matches {
		winner := match.TeamAID
		if rng.IntN(2) == 1 {
			winner = match.TeamBID
		}
		a, b, err := ApplyResult(records[match.TeamAID], records[match.TeamBID], winner)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		records[match.TeamAID] = a
		records[match.TeamBID] = b
	}

	var played, won, lost, points int
	for _, record := range records {
		played += record.Played
		won += record.Won
		lost += record.Lost
		points += record.Points
		if record.Won+record.Lost != record.Played {
			t.Fatalf("team %d: won+lost != played", record.TeamID)
		}
	}
	if played != 2*len(matches) {
		t.Fatalf("played %d, want %d", played, 2*len(matches))
	}
	if won != len(matches) || lost != len(matches) {
		t.Fatalf("won %d lost %d, want %d each", won, lost, len(matches))
	}
	if points != PointsForWin*len(matches) {
		t.Fatalf("points %d, want %d", points, PointsForWin*len(matches))
	}
}

func TestRankStandings(t *testing.T) {
	rows := []models.GroupAssignment{
		{TeamID: 1, Points: 3, Won: 1},
		{TeamID: 2, Points: 6, Won: 2},
		{TeamID: 3, Points: 3, Won: 1},
		{TeamID: 4, Points: 0},
	}

	ranked := RankStandings(rows)
	var order []int64
	for _, row := range ranked {
		order = append(order, row.TeamID)
	}
	if diff := cmp.Diff([]int64{2, 1, 3, 4}, order); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if rows[0].TeamID != 1 {
		t.Fatalf("input slice was reordered")
	}
}
