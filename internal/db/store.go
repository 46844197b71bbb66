package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/codr1/padeldraw/internal/competition"
	"github.com/codr1/padeldraw/internal/db/queries"
	"github.com/codr1/padeldraw/internal/draw"
	"github.com/codr1/padeldraw/internal/models"
)

// Store is the SQLite implementation of competition.Repository.
type Store struct {
	db *DB
}

var _ competition.Repository = (*Store)(nil)

func NewStore(database *DB) *Store {
	return &Store{db: database}
}

func (s *Store) RunInTx(ctx context.Context, fn func(competition.Repository) error) error {
	return s.db.RunInTx(ctx, func(txDB *DB) error {
		return fn(&Store{db: txDB})
	})
}

func (s *Store) q() *queries.Queries {
	return s.db.Queries
}

func (s *Store) GetTournament(ctx context.Context, id int64) (models.Tournament, error) {
	tournament, err := s.q().GetTournament(ctx, id)
	if err != nil {
		return tournament, notFound(err, "tournament", id)
	}
	return tournament, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (models.Category, error) {
	category, err := s.q().GetCategory(ctx, id)
	if err != nil {
		return category, notFound(err, "category", id)
	}
	return category, nil
}

func (s *Store) UpdateCategoryStatus(ctx context.Context, id int64, status models.CategoryStatus) error {
	affected, err := s.q().UpdateCategoryStatus(ctx, queries.UpdateCategoryStatusParams{Status: status, ID: id})
	return checkAffectedRows(affected, err, "category", id)
}

func (s *Store) ListCourts(ctx context.Context, tournamentID int64) ([]models.Court, error) {
	return s.q().ListTournamentCourts(ctx, tournamentID)
}

func (s *Store) ListTeams(ctx context.Context, categoryID int64) ([]models.Team, error) {
	return s.q().ListCategoryTeams(ctx, categoryID)
}

func (s *Store) ListGroups(ctx context.Context, categoryID int64) ([]models.Group, error) {
	return s.q().ListCategoryGroups(ctx, categoryID)
}

func (s *Store) CreateGroup(ctx context.Context, categoryID int64, name string) (models.Group, error) {
	return s.q().CreateGroup(ctx, queries.CreateGroupParams{CategoryID: categoryID, Name: name})
}

func (s *Store) ListAssignments(ctx context.Context, categoryID int64) ([]models.GroupAssignment, error) {
	return s.q().ListCategoryAssignments(ctx, categoryID)
}

func (s *Store) CreateAssignment(ctx context.Context, categoryID, groupID, teamID int64) (models.GroupAssignment, error) {
	assignment, err := s.q().CreateGroupAssignment(ctx, queries.CreateGroupAssignmentParams{
		CategoryID: categoryID,
		GroupID:    groupID,
		TeamID:     teamID,
	})
	if err != nil {
		return assignment, fmt.Errorf("assign team %d to group %d: %w", teamID, groupID, err)
	}
	return assignment, nil
}

func (s *Store) DeleteAssignment(ctx context.Context, id int64) error {
	return s.q().DeleteGroupAssignment(ctx, id)
}

func (s *Store) ApplyStandingDelta(ctx context.Context, groupID int64, delta draw.StandingDelta) error {
	affected, err := s.q().IncrementStanding(ctx, queries.IncrementStandingParams{
		Played:  delta.Played,
		Won:     delta.Won,
		Lost:    delta.Lost,
		Points:  delta.Points,
		GroupID: groupID,
		TeamID:  delta.TeamID,
	})
	if err != nil {
		return fmt.Errorf("update standing for team %d: %w", delta.TeamID, err)
	}
	if affected == 0 {
		return fmt.Errorf("team %d is not assigned to group %d: %w", delta.TeamID, groupID, models.ErrNotFound)
	}
	return nil
}

func (s *Store) CreateMatch(ctx context.Context, match models.Match) (models.Match, error) {
	return s.q().CreateMatch(ctx, queries.CreateMatchParams{
		CategoryID: match.CategoryID,
		TeamAID:    match.TeamAID,
		TeamBID:    match.TeamBID,
		GroupID:    match.GroupID,
		Round:      match.Round,
		Position:   match.Position,
	})
}

func (s *Store) GetMatch(ctx context.Context, id int64) (models.Match, error) {
	match, err := s.q().GetMatch(ctx, id)
	if err != nil {
		return match, notFound(err, "match", id)
	}
	return match, nil
}

func (s *Store) ListMatches(ctx context.Context, categoryID int64) ([]models.Match, error) {
	return s.q().ListCategoryMatches(ctx, categoryID)
}

func (s *Store) ListTournamentMatches(ctx context.Context, tournamentID int64) ([]models.Match, error) {
	return s.q().ListTournamentMatches(ctx, tournamentID)
}

func (s *Store) ListTournamentMatchesBetween(ctx context.Context, tournamentID int64, from, to time.Time) ([]models.Match, error) {
	return s.q().ListTournamentMatchesBetween(ctx, queries.ListTournamentMatchesBetweenParams{
		TournamentID: tournamentID,
		From:         from,
		To:           to,
	})
}

func (s *Store) CompleteMatch(ctx context.Context, id int64, scoreA, scoreB *string, winner int64) error {
	affected, err := s.q().CompleteMatch(ctx, queries.CompleteMatchParams{
		ScoreA: scoreA,
		ScoreB: scoreB,
		Winner: winner,
		ID:     id,
	})
	if err != nil {
		return fmt.Errorf("complete match %d: %w", id, err)
	}
	if affected == 0 {
		return s.completedOrMissing(ctx, id)
	}
	return nil
}

func (s *Store) UpdateScores(ctx context.Context, id int64, scoreA, scoreB *string) error {
	affected, err := s.q().UpdateMatchScores(ctx, queries.UpdateMatchScoresParams{
		ScoreA: scoreA,
		ScoreB: scoreB,
		ID:     id,
	})
	if err != nil {
		return fmt.Errorf("update scores for match %d: %w", id, err)
	}
	if affected == 0 {
		return s.completedOrMissing(ctx, id)
	}
	return nil
}

func (s *Store) SetBracketSlot(ctx context.Context, categoryID int64, pos draw.BracketPosition, slot int, teamID int64) (bool, error) {
	affected, err := s.q().SetBracketSlot(ctx, queries.SetBracketSlotParams{
		TeamID:     teamID,
		CategoryID: categoryID,
		Round:      pos.Round,
		Position:   pos.Position,
		Slot:       slot,
	})
	if err != nil {
		return false, fmt.Errorf("fill %s match %d: %w", pos.Round, pos.Position, err)
	}
	return affected > 0, nil
}

func (s *Store) SaveBracketMatch(ctx context.Context, match models.Match) error {
	affected, err := s.q().UpdateBracketMatch(ctx, queries.UpdateBracketMatchParams{
		TeamAID:   match.TeamAID,
		TeamBID:   match.TeamBID,
		Winner:    match.Winner,
		Completed: match.Completed,
		ID:        match.ID,
	})
	return checkAffectedRows(affected, err, "bracket match", match.ID)
}

func (s *Store) SetSchedule(ctx context.Context, matchID, courtID int64, at time.Time) error {
	affected, err := s.q().SetMatchSchedule(ctx, queries.SetMatchScheduleParams{
		CourtID:       courtID,
		ScheduledTime: at,
		ID:            matchID,
	})
	if isUniqueViolation(err) {
		return models.SlotConflictError{MatchID: matchID, CourtID: courtID, ScheduledTime: at}
	}
	return checkAffectedRows(affected, err, "match", matchID)
}

func (s *Store) ClearSchedule(ctx context.Context, matchID int64) error {
	affected, err := s.q().ClearMatchSchedule(ctx, matchID)
	return checkAffectedRows(affected, err, "match", matchID)
}

func (s *Store) ListCourtBookings(ctx context.Context, courtID int64) ([]models.Booking, error) {
	return s.q().ListCourtBookings(ctx, courtID)
}

func (s *Store) ListTournamentBookings(ctx context.Context, tournamentID int64) ([]models.Booking, error) {
	return s.q().ListTournamentBookings(ctx, tournamentID)
}

func (s *Store) completedOrMissing(ctx context.Context, id int64) error {
	if _, err := s.GetMatch(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("match %d: %w", id, models.ErrAlreadyCompleted)
}

func notFound(err error, entity string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", entity, id, models.ErrNotFound)
	}
	return fmt.Errorf("load %s %d: %w", entity, id, err)
}

func checkAffectedRows(affected int64, err error, entity string, id int64) error {
	if err != nil {
		return fmt.Errorf("update %s %d: %w", entity, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, models.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
