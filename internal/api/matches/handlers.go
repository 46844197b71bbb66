// internal/api/matches/handlers.go
package matches

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"

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

// patchRequest keeps the schedule fields raw so an explicit null (clear) can be told
// apart from an absent field (leave alone).
type patchRequest struct {
	ScoreA        *string         `json:"scoreA"`
	ScoreB        *string         `json:"scoreB"`
	Winner        *int64          `json:"winner"`
	Completed     *bool           `json:"completed"`
	CourtID       json.RawMessage `json:"courtId"`
	ScheduledTime json.RawMessage `json:"scheduledTime"`
}

var jsonNull = []byte("null")

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), jsonNull)
}

// PATCH /api/v1/matches/{id}
//
// Schedule fields go through the scheduling rules: courtId and scheduledTime must be sent
// together, both null to unschedule. A winner (or completed=true) completes the match;
// scores alone update the score text. Schedule changes are applied before the result.
func HandlePatchMatch(w http.ResponseWriter, r *http.Request) {
	if service == nil {
		log.Ctx(r.Context()).Error().Msg("Competition service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	logger := log.Ctx(r.Context())

	matchID, err := apiutil.IDParam(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req patchRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}

	ctx := r.Context()
	touchesSchedule := req.CourtID != nil || req.ScheduledTime != nil
	completes := req.Winner != nil || (req.Completed != nil && *req.Completed)
	touchesScores := req.ScoreA != nil || req.ScoreB != nil
	if !touchesSchedule && !completes && !touchesScores {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "No match fields to update"})
		return
	}

	match, err := service.GetMatch(ctx, matchID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if completes && match.Completed {
		apiutil.WriteError(w, r, models.ErrAlreadyCompleted)
		return
	}

	if touchesSchedule {
		match, err = applySchedule(r, matchID, req)
		if err != nil {
			apiutil.WriteError(w, r, err)
			return
		}
	}

	scoreA, scoreB := match.ScoreA, match.ScoreB
	if req.ScoreA != nil {
		scoreA = req.ScoreA
	}
	if req.ScoreB != nil {
		scoreB = req.ScoreB
	}

	switch {
	case completes:
		if req.Winner == nil {
			apiutil.WriteError(w, r, models.ErrInvalidWinner)
			return
		}
		match, err = service.CompleteMatch(ctx, matchID, scoreA, scoreB, *req.Winner)
	case touchesScores:
		match, err = service.UpdateScores(ctx, matchID, scoreA, scoreB)
	}
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	logger.Debug().Int64("match_id", matchID).Bool("completed", match.Completed).Msg("Patched match")
	apiutil.WriteResult(w, r, http.StatusOK, match)
}

func applySchedule(r *http.Request, matchID int64, req patchRequest) (models.Match, error) {
	ctx := r.Context()
	courtNull, timeNull := isNull(req.CourtID), isNull(req.ScheduledTime)
	switch {
	case courtNull && timeNull:
		return service.UnassignSchedule(ctx, matchID)
	case req.CourtID == nil || req.ScheduledTime == nil || courtNull || timeNull:
		return models.Match{}, models.ErrInvalidSchedule
	}

	var courtID int64
	if err := json.Unmarshal(req.CourtID, &courtID); err != nil || courtID <= 0 {
		return models.Match{}, apiutil.FieldError{Field: "courtId", Reason: "must be a positive integer"}
	}
	var rawTime string
	if err := json.Unmarshal(req.ScheduledTime, &rawTime); err != nil {
		return models.Match{}, apiutil.FieldError{Field: "scheduledTime", Reason: "must be a string"}
	}
	at, err := apiutil.ParseTimestampField(rawTime, "scheduledTime")
	if err != nil {
		return models.Match{}, err
	}
	return service.AssignSchedule(ctx, matchID, courtID, at)
}
