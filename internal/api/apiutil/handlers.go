package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codr1/padeldraw/internal/models"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error              string `json:"error"`
	ConflictingMatchID int64  `json:"conflictingMatchId,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// StatusForError maps service errors onto HTTP status codes. Anything it does not
// recognise is a server failure.
func StatusForError(err error) int {
	var handlerErr HandlerError
	var fieldErr FieldError
	switch {
	case errors.As(err, &handlerErr):
		return handlerErr.Status
	case errors.As(err, &fieldErr):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrSlotConflict),
		errors.Is(err, models.ErrAlreadyCompleted),
		errors.Is(err, models.ErrMatchesExist),
		errors.Is(err, models.ErrCategoryLocked):
		return http.StatusConflict
	case errors.Is(err, models.ErrNoGroups),
		errors.Is(err, models.ErrNoTeams),
		errors.Is(err, models.ErrInsufficientTeams),
		errors.Is(err, models.ErrInvalidWinner),
		errors.Is(err, models.ErrMatchNotReady),
		errors.Is(err, models.ErrGroupsIncomplete),
		errors.Is(err, models.ErrNoCourts),
		errors.Is(err, models.ErrInvalidFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidSchedule),
		errors.Is(err, models.ErrInvalidGroupCount),
		errors.Is(err, models.ErrInvalidAssignment):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteError logs err and writes it as a JSON error body. Server failures are reported
// with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())
	status := StatusForError(err)

	response := ErrorResponse{Error: err.Error()}
	var handlerErr HandlerError
	if errors.As(err, &handlerErr) && handlerErr.Message != "" {
		response.Error = handlerErr.Message
	}
	var conflict models.SlotConflictError
	if errors.As(err, &conflict) {
		response.ConflictingMatchID = conflict.ConflictingMatchID
	}

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		response = ErrorResponse{Error: http.StatusText(status)}
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}

	if writeErr := WriteJSON(w, status, response); writeErr != nil {
		logger.Error().Err(writeErr).Msg("Failed to write error response")
	}
}

// WriteResult writes payload as JSON, logging a failed write.
func WriteResult(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}
