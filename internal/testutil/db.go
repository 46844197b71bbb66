package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/codr1/padeldraw/internal/db"
	"github.com/codr1/padeldraw/internal/models"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// Fixture ids for a tournament with one venue.
type Fixture struct {
	TournamentID int64
	VenueID      int64
	CourtIDs     []int64
}

// SeedTournament inserts a tournament running from start to end with one venue and the
// given number of courts.
func SeedTournament(t *testing.T, database *db.DB, start, end time.Time, courts int) Fixture {
	t.Helper()

	fixture := Fixture{
		TournamentID: insert(t, database,
			"INSERT INTO tournaments (name, start_date, end_date) VALUES (?, ?, ?)",
			"Test Open", start.UTC(), end.UTC()),
	}
	fixture.VenueID = insert(t, database,
		"INSERT INTO venues (tournament_id, name, address) VALUES (?, ?, ?)",
		fixture.TournamentID, "Club", "1 Court Lane")
	for i := 1; i <= courts; i++ {
		fixture.CourtIDs = append(fixture.CourtIDs, SeedCourt(t, database, fixture.VenueID, fmt.Sprintf("Court %d", i)))
	}
	return fixture
}

func SeedCourt(t *testing.T, database *db.DB, venueID int64, name string) int64 {
	t.Helper()
	return insert(t, database, "INSERT INTO courts (venue_id, name) VALUES (?, ?)", venueID, name)
}

// SeedCategory inserts an open category with the given format and match length in
// minutes.
func SeedCategory(t *testing.T, database *db.DB, tournamentID int64, format models.CategoryFormat, matchMinutes int) int64 {
	t.Helper()
	return insert(t, database,
		"INSERT INTO categories (tournament_id, name, format, match_duration) VALUES (?, ?, ?, ?)",
		tournamentID, "Open "+string(format), string(format), matchMinutes)
}

// SeedTeams inserts n teams named Team 1..n. Teams whose 1-based number appears in seeded
// are marked as seeds. The ids are returned in insertion order.
func SeedTeams(t *testing.T, database *db.DB, categoryID int64, n int, seeded ...int) []int64 {
	t.Helper()

	isSeed := make(map[int]bool, len(seeded))
	for _, number := range seeded {
		isSeed[number] = true
	}
	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, insert(t, database,
			"INSERT INTO teams (category_id, name, player1, player2, seeded) VALUES (?, ?, ?, ?, ?)",
			categoryID, fmt.Sprintf("Team %d", i), fmt.Sprintf("Player %dA", i), fmt.Sprintf("Player %dB", i), isSeed[i]))
	}
	return ids
}

func insert(t *testing.T, database *db.DB, query string, args ...any) int64 {
	t.Helper()

	result, err := database.ExecContext(context.Background(), query, args...)
	if err != nil {
		t.Fatalf("seed %q: %v", query, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("seed id: %v", err)
	}
	return id
}
