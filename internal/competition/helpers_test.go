package competition_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/codr1/padeldraw/internal/competition"
	"github.com/codr1/padeldraw/internal/db"
	"github.com/codr1/padeldraw/internal/draw"
	"github.com/codr1/padeldraw/internal/models"
	"github.com/codr1/padeldraw/internal/testutil"
)

var tournamentDay = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	service  *competition.Service
	store    *db.Store
	db       *db.DB
	fixture  testutil.Fixture
	category int64
	teams    []int64
	events   *recordingNotifier
	observed *recordingObserver
}

func setupService(t *testing.T, format models.CategoryFormat, teams int, opts competition.Options) *testEnv {
	t.Helper()

	database := testutil.NewTestDB(t)
	fixture := testutil.SeedTournament(t, database, tournamentDay, tournamentDay, 2)
	categoryID := testutil.SeedCategory(t, database, fixture.TournamentID, format, 60)

	env := &testEnv{
		store:    db.NewStore(database),
		db:       database,
		fixture:  fixture,
		category: categoryID,
		teams:    testutil.SeedTeams(t, database, categoryID, teams),
		events:   &recordingNotifier{},
		observed: &recordingObserver{},
	}
	opts.Notifier = env.events
	opts.Observer = env.observed
	env.service = competition.NewService(env.store, opts)
	return env
}

func (e *testEnv) categoryStatus(t *testing.T) models.CategoryStatus {
	t.Helper()
	category, err := e.store.GetCategory(context.Background(), e.category)
	if err != nil {
		t.Fatalf("load category: %v", err)
	}
	return category.Status
}

func (e *testEnv) matches(t *testing.T) []models.Match {
	t.Helper()
	matches, err := e.service.ListCategoryMatches(context.Background(), e.category)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	return matches
}

func (e *testEnv) bracketMatch(t *testing.T, round models.Round, position int) models.Match {
	t.Helper()
	for _, match := range e.matches(t) {
		if match.Round == round && match.Position == position {
			return match
		}
	}
	t.Fatalf("no %s match at position %d", round, position)
	return models.Match{}
}

// placeTeams creates one group per entry of layout and puts the listed team indexes in it.
func (e *testEnv) placeTeams(t *testing.T, layout ...[]int) []models.Group {
	t.Helper()
	ctx := context.Background()

	groups, err := e.service.CreateGroups(ctx, e.category, len(layout))
	if err != nil {
		t.Fatalf("create groups: %v", err)
	}
	var placements []models.TeamGroup
	for g, members := range layout {
		for _, index := range members {
			placements = append(placements, models.TeamGroup{TeamID: e.teams[index], GroupID: groups[g].ID})
		}
	}
	if _, err := e.service.SetGroupAssignments(ctx, e.category, placements); err != nil {
		t.Fatalf("set assignments: %v", err)
	}
	return groups
}

func complete(t *testing.T, service *competition.Service, match models.Match, winner int64) models.Match {
	t.Helper()
	scoreA, scoreB := "6-4", "4-6"
	done, err := service.CompleteMatch(context.Background(), match.ID, &scoreA, &scoreB, winner)
	if err != nil {
		t.Fatalf("complete match %d: %v", match.ID, err)
	}
	return done
}

func dailyHours(t *testing.T, opens, closes string) draw.DailyHours {
	t.Helper()
	hours, err := draw.ParseDailyHours(opens, closes)
	if err != nil {
		t.Fatalf("parse hours: %v", err)
	}
	return hours
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []competition.Event
}

func (n *recordingNotifier) Publish(event competition.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) count(eventType competition.EventType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, event := range n.events {
		if event.Type == eventType {
			total++
		}
	}
	return total
}

type recordingObserver struct {
	mu        sync.Mutex
	generated map[string]int
	completed int
	walkovers int
	assigned  int
	conflicts int
}

func (o *recordingObserver) MatchesGenerated(kind string, count int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generated == nil {
		o.generated = make(map[string]int)
	}
	o.generated[kind] += count
}

func (o *recordingObserver) MatchCompleted(_ models.Round, walkover bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if walkover {
		o.walkovers++
		return
	}
	o.completed++
}

func (o *recordingObserver) ScheduleAssigned(bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.assigned++
}

func (o *recordingObserver) ScheduleConflict() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conflicts++
}
