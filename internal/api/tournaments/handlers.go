// internal/api/tournaments/handlers.go
package tournaments

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/padeldraw/internal/api/apiutil"
	"github.com/codr1/padeldraw/internal/competition"
	"github.com/codr1/padeldraw/internal/models"
)

var (
	service     *competition.Service
	serviceOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(s *competition.Service) {
	if s == nil {
		return
	}
	serviceOnce.Do(func() {
		service = s
	})
}

func loadService(w http.ResponseWriter, r *http.Request) *competition.Service {
	if service == nil {
		log.Ctx(r.Context()).Error().Msg("Competition service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return service
}

type scheduleEntry struct {
	MatchID       int64  `json:"matchId"`
	CourtID       int64  `json:"courtId"`
	ScheduledTime string `json:"scheduledTime"`
}

type scheduleRequest struct {
	Schedules []scheduleEntry `json:"schedules"`
}

// POST /api/v1/tournaments/{id}/schedule
func HandleSchedule(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	tournamentID, err := apiutil.IDParam(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req scheduleRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}
	if len(req.Schedules) == 0 {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "schedules", Reason: "must contain at least one entry"})
		return
	}

	entries := make([]competition.ScheduleEntry, 0, len(req.Schedules))
	for i, entry := range req.Schedules {
		at, err := apiutil.ParseTimestampField(entry.ScheduledTime, fmt.Sprintf("schedules[%d].scheduledTime", i))
		if err != nil {
			apiutil.WriteError(w, r, err)
			return
		}
		entries = append(entries, competition.ScheduleEntry{
			MatchID:       entry.MatchID,
			CourtID:       entry.CourtID,
			ScheduledTime: at,
		})
	}

	result, err := svc.AssignAll(r.Context(), tournamentID, entries)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteResult(w, r, http.StatusOK, result)
}

// GET /api/v1/tournaments/{id}/matches?date=YYYY-MM-DD
func HandleListMatches(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	tournamentID, err := apiutil.IDParam(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var day *time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := apiutil.ParseDateField(raw, "date")
		if err != nil {
			apiutil.WriteError(w, r, err)
			return
		}
		day = &parsed
	}

	matches, err := svc.ListTournamentMatches(r.Context(), tournamentID, day)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if matches == nil {
		matches = []models.Match{}
	}
	apiutil.WriteResult(w, r, http.StatusOK, map[string]any{"matches": matches})
}
