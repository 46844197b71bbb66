package tournaments

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/codr1/padeldraw/internal/competition"
	"github.com/codr1/padeldraw/internal/db"
	"github.com/codr1/padeldraw/internal/models"
	"github.com/codr1/padeldraw/internal/testutil"
)

func setupTournamentsTest(t *testing.T) (http.Handler, testutil.Fixture, []models.Match) {
	t.Helper()

	ctx := context.Background()
	database := testutil.NewTestDB(t)
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	fixture := testutil.SeedTournament(t, database, start, start.Add(48*time.Hour), 2)
	categoryID := testutil.SeedCategory(t, database, fixture.TournamentID, models.FormatGroups, 60)
	testutil.SeedTeams(t, database, categoryID, 4)

	svc := competition.NewService(db.NewStore(database), competition.Options{DurationAware: true})
	if _, err := svc.CreateGroups(ctx, categoryID, 1); err != nil {
		t.Fatalf("create groups: %v", err)
	}
	if _, err := svc.AutoAssignTeams(ctx, categoryID, rand.New(rand.NewPCG(3, 4))); err != nil {
		t.Fatalf("assign teams: %v", err)
	}
	generated, err := svc.GenerateMatches(ctx, categoryID, models.MatchTypeGroup, false)
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
	router.Route("/api/v1/tournaments/{id}", func(r chi.Router) {
		r.Post("/schedule", HandleSchedule)
		r.Get("/matches", HandleListMatches)
	})
	return router, fixture, generated.Matches
}

func TestHandleSchedule_BestEffort(t *testing.T) {
	router, fixture, matches := setupTournamentsTest(t)
	court := fixture.CourtIDs[0]

	body := fmt.Sprintf(`{"schedules":[
		{"matchId":%d,"courtId":%d,"scheduledTime":"2026-05-01T09:00:00Z"},
		{"matchId":%d,"courtId":%d,"scheduledTime":"2026-05-01T09:00:00Z"},
		{"matchId":%d,"courtId":%d,"scheduledTime":"2026-05-02T09:00"}
	]}`, matches[0].ID, court, matches[1].ID, court, matches[2].ID, court)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/tournaments/%d/schedule", fixture.TournamentID), strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var result competition.BatchResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Assigned) != 2 || len(result.Failed) != 1 {
		t.Fatalf("assigned %d failed %d, want 2 and 1", len(result.Assigned), len(result.Failed))
	}
	if result.Failed[0].MatchID != matches[1].ID || result.Failed[0].Error == "" {
		t.Fatalf("failure: %+v", result.Failed[0])
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 6},
		{"?date=2026-05-01", 1},
		{"?date=2026-05-02", 1},
		{"?date=2026-05-03", 0},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/tournaments/%d/matches%s", fixture.TournamentID, tt.query), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("list %q: status %d", tt.query, rec.Code)
		}
		var listed struct {
			Matches []models.Match `json:"matches"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		if len(listed.Matches) != tt.want {
			t.Fatalf("list %q: %d matches, want %d", tt.query, len(listed.Matches), tt.want)
		}
	}
}

func TestHandleSchedule_Errors(t *testing.T) {
	router, fixture, _ := setupTournamentsTest(t)
	base := fmt.Sprintf("/api/v1/tournaments/%d", fixture.TournamentID)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"empty schedule", http.MethodPost, base + "/schedule", `{"schedules":[]}`, http.StatusBadRequest},
		{"bad timestamp", http.MethodPost, base + "/schedule", `{"schedules":[{"matchId":1,"courtId":1,"scheduledTime":"noon"}]}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, base + "/schedule", `{"schedules":`, http.StatusBadRequest},
		{"unknown tournament", http.MethodPost, "/api/v1/tournaments/999/schedule", `{"schedules":[{"matchId":1,"courtId":1,"scheduledTime":"2026-05-01T09:00:00Z"}]}`, http.StatusNotFound},
		{"bad date", http.MethodGet, base + "/matches?date=01/05/2026", "", http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/v1/tournaments/0/matches", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}
