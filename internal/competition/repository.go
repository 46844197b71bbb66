package competition

import (
	"context"
	"time"

	"github.com/codr1/padeldraw/internal/draw"
	"github.com/codr1/padeldraw/internal/models"
)

// Repository is the persistence the service needs. Lookups of missing rows return
// models.ErrNotFound. A repository handed to the RunInTx callback runs every call inside
// one transaction that commits only if the callback returns nil.
type Repository interface {
	RunInTx(ctx context.Context, fn func(Repository) error) error

	GetTournament(ctx context.Context, id int64) (models.Tournament, error)
	GetCategory(ctx context.Context, id int64) (models.Category, error)
	UpdateCategoryStatus(ctx context.Context, id int64, status models.CategoryStatus) error
	ListCourts(ctx context.Context, tournamentID int64) ([]models.Court, error)
	ListTeams(ctx context.Context, categoryID int64) ([]models.Team, error)

	ListGroups(ctx context.Context, categoryID int64) ([]models.Group, error)
	CreateGroup(ctx context.Context, categoryID int64, name string) (models.Group, error)
	ListAssignments(ctx context.Context, categoryID int64) ([]models.GroupAssignment, error)
	CreateAssignment(ctx context.Context, categoryID, groupID, teamID int64) (models.GroupAssignment, error)
	DeleteAssignment(ctx context.Context, id int64) error
	ApplyStandingDelta(ctx context.Context, groupID int64, delta draw.StandingDelta) error

	CreateMatch(ctx context.Context, match models.Match) (models.Match, error)
	GetMatch(ctx context.Context, id int64) (models.Match, error)
	ListMatches(ctx context.Context, categoryID int64) ([]models.Match, error)
	ListTournamentMatches(ctx context.Context, tournamentID int64) ([]models.Match, error)
	ListTournamentMatchesBetween(ctx context.Context, tournamentID int64, from, to time.Time) ([]models.Match, error)
	// CompleteMatch returns models.ErrAlreadyCompleted when the match was completed before.
	CompleteMatch(ctx context.Context, id int64, scoreA, scoreB *string, winner int64) error
	UpdateScores(ctx context.Context, id int64, scoreA, scoreB *string) error
	// SetBracketSlot reports false when no open match exists at the position.
	SetBracketSlot(ctx context.Context, categoryID int64, pos draw.BracketPosition, slot int, teamID int64) (bool, error)
	SaveBracketMatch(ctx context.Context, match models.Match) error

	// SetSchedule returns models.ErrSlotConflict when another match already starts on the
	// court at the same instant.
	SetSchedule(ctx context.Context, matchID, courtID int64, at time.Time) error
	ClearSchedule(ctx context.Context, matchID int64) error
	ListCourtBookings(ctx context.Context, courtID int64) ([]models.Booking, error)
	ListTournamentBookings(ctx context.Context, tournamentID int64) ([]models.Booking, error)
}
