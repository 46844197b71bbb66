package matches

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/codr1/padeldraw/internal/api/apiutil"
	"github.com/codr1/padeldraw/internal/competition"
	"github.com/codr1/padeldraw/internal/db"
	"github.com/codr1/padeldraw/internal/models"
	"github.com/codr1/padeldraw/internal/testutil"
)

type matchesTest struct {
	router   http.Handler
	matches  []models.Match
	courtIDs []int64
}

// setupMatchesTest builds a one-group round robin of three teams.
func setupMatchesTest(t *testing.T) matchesTest {
	t.Helper()

	ctx := context.Background()
	database := testutil.NewTestDB(t)
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	fixture := testutil.SeedTournament(t, database, start, start.Add(48*time.Hour), 2)
	categoryID := testutil.SeedCategory(t, database, fixture.TournamentID, models.FormatGroups, 60)
	testutil.SeedTeams(t, database, categoryID, 3)

	svc := competition.NewService(db.NewStore(database), competition.Options{DurationAware: true})
	if _, err := svc.CreateGroups(ctx, categoryID, 1); err != nil {
		t.Fatalf("create groups: %v", err)
	}
	if _, err := svc.AutoAssignTeams(ctx, categoryID, rand.New(rand.NewPCG(1, 2))); err != nil {
		t.Fatalf("assign teams: %v", err)
	}
	generated, err := svc.GenerateMatches(ctx, categoryID, models.MatchTypeAll, false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	service = nil
	serviceOnce = sync.Once{}
	InitHandlers(svc)
	t.Cleanup(func() {
		service = nil
		serviceOnce = sync.Once{}
	})

	router := chi.NewRouter()
	router.Patch("/api/v1/matches/{id}", HandlePatchMatch)
	return matchesTest{router: router, matches: generated.Matches, courtIDs: fixture.CourtIDs}
}

func (mt matchesTest) patch(t *testing.T, matchID int64, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/matches/"+strconv.FormatInt(matchID, 10), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mt.router.ServeHTTP(rec, req)
	return rec
}

func decodeMatch(t *testing.T, rec *httptest.ResponseRecorder) models.Match {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var match models.Match
	if err := json.NewDecoder(rec.Body).Decode(&match); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return match
}

func TestPatchMatchSchedule(t *testing.T) {
	mt := setupMatchesTest(t)
	first, second := mt.matches[0], mt.matches[1]
	court := strconv.FormatInt(mt.courtIDs[0], 10)

	match := decodeMatch(t, mt.patch(t, first.ID, `{"courtId":`+court+`,"scheduledTime":"2026-05-01T10:00:00Z"}`))
	if !match.IsScheduled() || *match.CourtID != mt.courtIDs[0] {
		t.Fatalf("match not scheduled: %+v", match)
	}
	want := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	if !match.ScheduledTime.Equal(want) {
		t.Fatalf("scheduled at %v, want %v", match.ScheduledTime, want)
	}

	rec := mt.patch(t, second.ID, `{"courtId":`+court+`,"scheduledTime":"2026-05-01T10:30:00Z"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("overlapping slot: status %d, want 409", rec.Code)
	}
	var conflict apiutil.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&conflict); err != nil {
		t.Fatalf("decode conflict: %v", err)
	}
	if conflict.ConflictingMatchID != first.ID {
		t.Fatalf("conflicting match %d, want %d", conflict.ConflictingMatchID, first.ID)
	}

	match = decodeMatch(t, mt.patch(t, first.ID, `{"courtId":null,"scheduledTime":null}`))
	if match.CourtID != nil || match.ScheduledTime != nil {
		t.Fatalf("match still scheduled: %+v", match)
	}

	// The freed slot can be taken.
	decodeMatch(t, mt.patch(t, second.ID, `{"courtId":`+court+`,"scheduledTime":"2026-05-01T10:30:00Z"}`))
}

func TestPatchMatchResult(t *testing.T) {
	mt := setupMatchesTest(t)
	match := mt.matches[0]

	updated := decodeMatch(t, mt.patch(t, match.ID, `{"scoreA":"6-4 3-6"}`))
	if updated.ScoreA == nil || *updated.ScoreA != "6-4 3-6" || updated.Completed {
		t.Fatalf("score update: %+v", updated)
	}

	body := `{"scoreB":"4-6 6-3","winner":` + strconv.FormatInt(match.TeamAID, 10) + `}`
	completed := decodeMatch(t, mt.patch(t, match.ID, body))
	if !completed.Completed || completed.Winner == nil || *completed.Winner != match.TeamAID {
		t.Fatalf("completion: %+v", completed)
	}
	if completed.ScoreA == nil || *completed.ScoreA != "6-4 3-6" {
		t.Fatalf("earlier score lost: %+v", completed)
	}

	if rec := mt.patch(t, match.ID, body); rec.Code != http.StatusConflict {
		t.Fatalf("second completion: status %d, want 409", rec.Code)
	}
	if rec := mt.patch(t, match.ID, `{"completed":true}`); rec.Code != http.StatusConflict {
		t.Fatalf("completed flag on a finished match: status %d, want 409", rec.Code)
	}
	if rec := mt.patch(t, match.ID, `{"completed":true,"courtId":`+strconv.FormatInt(mt.courtIDs[0], 10)+`,"scheduledTime":"2026-05-01T15:00:00Z"}`); rec.Code != http.StatusConflict {
		t.Fatalf("completed flag with a schedule: status %d, want 409", rec.Code)
	}
	after, err := service.GetMatch(context.Background(), match.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.IsScheduled() {
		t.Fatalf("rejected request must not schedule the match: %+v", after)
	}
}

func TestPatchMatchErrors(t *testing.T) {
	mt := setupMatchesTest(t)
	match := mt.matches[0]
	court := strconv.FormatInt(mt.courtIDs[0], 10)

	tests := []struct {
		name    string
		matchID string
		body    string
		status  int
	}{
		{"no fields", strconv.FormatInt(match.ID, 10), `{}`, http.StatusBadRequest},
		{"bad id", "x", `{"scoreA":"6-0"}`, http.StatusBadRequest},
		{"unknown match", "9999", `{"scoreA":"6-0"}`, http.StatusNotFound},
		{"court without time", strconv.FormatInt(match.ID, 10), `{"courtId":` + court + `}`, http.StatusBadRequest},
		{"bad timestamp", strconv.FormatInt(match.ID, 10), `{"courtId":` + court + `,"scheduledTime":"soon"}`, http.StatusBadRequest},
		{"unknown court", strconv.FormatInt(match.ID, 10), `{"courtId":9999,"scheduledTime":"2026-05-01T10:00:00Z"}`, http.StatusNotFound},
		{"completed without winner", strconv.FormatInt(match.ID, 10), `{"completed":true}`, http.StatusUnprocessableEntity},
		{"outside winner", strconv.FormatInt(match.ID, 10), `{"winner":9999}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/api/v1/matches/"+tt.matchID, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mt.router.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}
