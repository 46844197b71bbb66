package apiutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/codr1/padeldraw/internal/models"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{HandlerError{Status: http.StatusTeapot, Message: "tea"}, http.StatusTeapot},
		{FieldError{Field: "date", Reason: "is required"}, http.StatusBadRequest},
		{fmt.Errorf("load match: %w", models.ErrNotFound), http.StatusNotFound},
		{models.SlotConflictError{ConflictingMatchID: 3}, http.StatusConflict},
		{models.ErrAlreadyCompleted, http.StatusConflict},
		{models.ErrCategoryLocked, http.StatusConflict},
		{models.ErrMatchNotReady, http.StatusUnprocessableEntity},
		{models.ErrGroupsIncomplete, http.StatusUnprocessableEntity},
		{models.ErrInvalidSchedule, http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusForError(tt.err); got != tt.want {
			t.Errorf("StatusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteError(t *testing.T) {
	t.Run("conflict carries match id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, httptest.NewRequest(http.MethodPatch, "/", nil), models.SlotConflictError{ConflictingMatchID: 12})

		if rec.Code != http.StatusConflict {
			t.Fatalf("status %d, want 409", rec.Code)
		}
		var body ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.ConflictingMatchID != 12 || body.Error == "" {
			t.Fatalf("body: %+v", body)
		}
	})

	t.Run("server failures are generic", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("database is locked"))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status %d, want 500", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "locked") {
			t.Fatalf("internal error leaked: %s", rec.Body.String())
		}
	})
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		GroupCount int `json:"groupCount"`
	}

	for _, body := range []string{`{"groupCount":2}{}`, `{"count":2}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if err := DecodeJSON(req, &dst); err == nil {
			t.Errorf("DecodeJSON(%q) succeeded, want error", body)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"groupCount":2}`))
	if err := DecodeJSON(req, &dst); err != nil || dst.GroupCount != 2 {
		t.Fatalf("DecodeJSON: %v, %+v", err, dst)
	}
}

func TestIDParam(t *testing.T) {
	router := chi.NewRouter()
	var got int64
	var gotErr error
	router.Get("/matches/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = IDParam(r, "id")
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/matches/41", nil))
	if gotErr != nil || got != 41 {
		t.Fatalf("IDParam = %d, %v", got, gotErr)
	}

	for _, raw := range []string{"0", "-3", "abc"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/matches/"+raw, nil))
		var fieldErr FieldError
		if !errors.As(gotErr, &fieldErr) || fieldErr.Field != "id" {
			t.Errorf("IDParam(%q) error = %v, want id field error", raw, gotErr)
		}
	}
}

func TestParseTimestampField(t *testing.T) {
	want := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)
	for _, raw := range []string{"2026-05-01T10:30:00Z", "2026-05-01T12:30:00+02:00", "2026-05-01T10:30", "2026-05-01 10:30"} {
		got, err := ParseTimestampField(raw, "scheduledTime")
		if err != nil {
			t.Errorf("ParseTimestampField(%q): %v", raw, err)
			continue
		}
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Errorf("ParseTimestampField(%q) = %v, want %v", raw, got, want)
		}
	}

	if _, err := ParseTimestampField("tomorrow", "scheduledTime"); err == nil {
		t.Error("ParseTimestampField accepted garbage")
	}
}

func TestParseDateField(t *testing.T) {
	got, err := ParseDateField("2026-05-02", "date")
	if err != nil || !got.Equal(time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("ParseDateField = %v, %v", got, err)
	}
	if _, err := ParseDateField("02/05/2026", "date"); err == nil {
		t.Fatal("ParseDateField accepted a non ISO date")
	}
}
