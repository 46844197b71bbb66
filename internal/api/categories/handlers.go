// internal/api/categories/handlers.go
package categories

import (
	"math/rand/v2"
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

func loadService(w http.ResponseWriter, r *http.Request) *competition.Service {
	if service == nil {
		log.Ctx(r.Context()).Error().Msg("Competition service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return service
}

type createGroupsRequest struct {
	GroupCount int `json:"groupCount"`
}

// POST /api/v1/categories/{id}/create-groups
func HandleCreateGroups(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	categoryID, err := apiutil.IDParam(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req createGroupsRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}

	groups, err := svc.CreateGroups(r.Context(), categoryID, req.GroupCount)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteResult(w, r, http.StatusCreated, map[string]any{"groups": groups})
}

type autoAssignRequest struct {
	// Seed makes the draw reproducible. A random seed is used when it is absent.
	Seed *uint64 `json:"seed"`
}

// POST /api/v1/categories/{id}/auto-assign-teams
func HandleAutoAssignTeams(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	categoryID, err := apiutil.IDParam(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req autoAssignRequest
	if r.ContentLength != 0 {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
			return
		}
	}
	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}

	assignments, err := svc.AutoAssignTeams(r.Context(), categoryID, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	log.Ctx(r.Context()).Debug().Int64("category_id", categoryID).Uint64("seed", seed).Msg("Drew groups")
	apiutil.WriteResult(w, r, http.StatusOK, map[string]any{"assignments": assignments, "seed": seed})
}

type setAssignmentsRequest struct {
	Assignments []models.TeamGroup `json:"assignments"`
}

// PUT /api/v1/categories/{id}/assignments
func HandleSetAssignments(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	categoryID, err := apiutil.IDParam(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req setAssignmentsRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}

	assignments, err := svc.SetGroupAssignments(r.Context(), categoryID, req.Assignments)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteResult(w, r, http.StatusOK, map[string]any{"assignments": assignments})
}

type generateMatchesRequest struct {
	MatchType        string `json:"matchType"`
	AutoAssignCourts bool   `json:"autoAssignCourts"`
}

// POST /api/v1/categories/{id}/generate-matches
func HandleGenerateMatches(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	categoryID, err := apiutil.IDParam(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req generateMatchesRequest
	if r.ContentLength != 0 {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
			return
		}
	}
	matchType, err := models.ParseMatchType(req.MatchType)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "matchType", Reason: "must be ALL, GROUP or ELIMINATION"})
		return
	}

	result, err := svc.GenerateMatches(r.Context(), categoryID, matchType, req.AutoAssignCourts)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteResult(w, r, http.StatusCreated, result)
}

// POST /api/v1/categories/{id}/advance-qualifiers
func HandleAdvanceQualifiers(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	categoryID, err := apiutil.IDParam(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	bracket, err := svc.AdvanceQualifiers(r.Context(), categoryID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteResult(w, r, http.StatusOK, map[string]any{"matches": bracket})
}

// GET /api/v1/categories/{id}/standings
func HandleStandings(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	categoryID, err := apiutil.IDParam(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	standings, err := svc.CategoryStandings(r.Context(), categoryID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteResult(w, r, http.StatusOK, map[string]any{"groups": standings})
}

// GET /api/v1/categories/{id}/matches
func HandleListMatches(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	categoryID, err := apiutil.IDParam(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	matches, err := svc.ListCategoryMatches(r.Context(), categoryID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if matches == nil {
		matches = []models.Match{}
	}
	apiutil.WriteResult(w, r, http.StatusOK, map[string]any{"matches": matches})
}
