package competition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/padeldraw/internal/models"
)

// ScheduleEntry places one match on a court at a start time.
type ScheduleEntry struct {
	MatchID       int64     `json:"matchId"`
	CourtID       int64     `json:"courtId"`
	ScheduledTime time.Time `json:"scheduledTime"`
}

type ScheduleFailure struct {
	MatchID int64  `json:"matchId"`
	Error   string `json:"error"`
}

// BatchResult reports every entry of a batch as either assigned or failed.
type BatchResult struct {
	Assigned []models.Match    `json:"assigned"`
	Failed   []ScheduleFailure `json:"failed"`
}

// AssignSchedule books a court for a match. The court must belong to a venue of the
// match's tournament and must be free: with duration-aware checking no other match on the
// court may overlap the match's playing time, otherwise no other match may start at the
// same instant.
func (s *Service) AssignSchedule(ctx context.Context, matchID, courtID int64, at time.Time) (models.Match, error) {
	return s.assignSchedule(ctx, 0, matchID, courtID, at)
}

func (s *Service) assignSchedule(ctx context.Context, tournamentID, matchID, courtID int64, at time.Time) (models.Match, error) {
	if courtID <= 0 || at.IsZero() {
		return models.Match{}, models.ErrInvalidSchedule
	}
	at = at.UTC().Truncate(time.Second)

	var result models.Match
	p := &pending{}
	err := s.repo.RunInTx(ctx, func(repo Repository) error {
		match, err := repo.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		category, err := s.loadCategory(ctx, repo, match.CategoryID)
		if err != nil {
			return err
		}
		if tournamentID != 0 && category.TournamentID != tournamentID {
			return fmt.Errorf("match %d is not part of tournament %d: %w", matchID, tournamentID, models.ErrNotFound)
		}

		courts, err := repo.ListCourts(ctx, category.TournamentID)
		if err != nil {
			return fmt.Errorf("list courts: %w", err)
		}
		if !hasCourt(courts, courtID) {
			return fmt.Errorf("court %d is not at a venue of tournament %d: %w", courtID, category.TournamentID, models.ErrNotFound)
		}

		bookings, err := repo.ListCourtBookings(ctx, courtID)
		if err != nil {
			return fmt.Errorf("list court bookings: %w", err)
		}
		wanted := models.Booking{MatchID: matchID, CourtID: courtID, Start: at, Duration: category.Duration()}
		for _, booking := range bookings {
			if booking.MatchID != matchID && s.clashes(wanted, booking) {
				return models.SlotConflictError{
					MatchID:            matchID,
					CourtID:            courtID,
					ScheduledTime:      at,
					ConflictingMatchID: booking.MatchID,
				}
			}
		}

		if err := repo.SetSchedule(ctx, matchID, courtID, at); err != nil {
			return err
		}
		if result, err = repo.GetMatch(ctx, matchID); err != nil {
			return err
		}
		p.publish(Event{Type: EventMatchUpdated, CategoryID: result.CategoryID, Matches: []models.Match{result}})
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrSlotConflict) {
			s.observer.ScheduleConflict()
			log.Ctx(ctx).Info().Err(err).Int64("match_id", matchID).Msg("Rejected conflicting schedule")
		}
		return models.Match{}, err
	}

	log.Ctx(ctx).Info().
		Int64("match_id", matchID).
		Int64("court_id", courtID).
		Time("scheduled_time", at).
		Msg("Match scheduled")
	s.observer.ScheduleAssigned(false)
	s.flush(p)
	return result, nil
}

func (s *Service) clashes(wanted, booked models.Booking) bool {
	if !s.opts.DurationAware {
		return wanted.Start.Equal(booked.Start)
	}
	if wanted.Start.Equal(booked.Start) {
		return true
	}
	return wanted.Start.Before(booked.End()) && booked.Start.Before(wanted.End())
}

func hasCourt(courts []models.Court, courtID int64) bool {
	for _, court := range courts {
		if court.ID == courtID {
			return true
		}
	}
	return false
}

// UnassignSchedule clears both the court and the start time of a match.
func (s *Service) UnassignSchedule(ctx context.Context, matchID int64) (models.Match, error) {
	var result models.Match
	p := &pending{}
	err := s.repo.RunInTx(ctx, func(repo Repository) error {
		if err := repo.ClearSchedule(ctx, matchID); err != nil {
			return err
		}
		var err error
		if result, err = repo.GetMatch(ctx, matchID); err != nil {
			return err
		}
		p.publish(Event{Type: EventMatchUpdated, CategoryID: result.CategoryID, Matches: []models.Match{result}})
		return nil
	})
	if err != nil {
		return models.Match{}, err
	}

	log.Ctx(ctx).Info().Int64("match_id", matchID).Msg("Match unscheduled")
	s.flush(p)
	return result, nil
}

// AssignAll schedules every entry independently. A failing entry is reported and does
// not undo the entries before it.
func (s *Service) AssignAll(ctx context.Context, tournamentID int64, entries []ScheduleEntry) (BatchResult, error) {
	if _, err := s.repo.GetTournament(ctx, tournamentID); err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Assigned: []models.Match{}, Failed: []ScheduleFailure{}}
	for _, entry := range entries {
		match, err := s.assignSchedule(ctx, tournamentID, entry.MatchID, entry.CourtID, entry.ScheduledTime)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed = append(result.Failed, ScheduleFailure{MatchID: entry.MatchID, Error: err.Error()})
			continue
		}
		result.Assigned = append(result.Assigned, match)
	}

	log.Ctx(ctx).Info().
		Int64("tournament_id", tournamentID).
		Int("assigned", len(result.Assigned)).
		Int("failed", len(result.Failed)).
		Msg("Processed schedule batch")
	return result, nil
}

func (s *Service) GetMatch(ctx context.Context, matchID int64) (models.Match, error) {
	if matchID <= 0 {
		return models.Match{}, models.ErrNotFound
	}
	return s.repo.GetMatch(ctx, matchID)
}

// ListCategoryMatches returns group matches first, ordered by group, then the bracket.
func (s *Service) ListCategoryMatches(ctx context.Context, categoryID int64) ([]models.Match, error) {
	if _, err := s.loadCategory(ctx, s.repo, categoryID); err != nil {
		return nil, err
	}
	return s.repo.ListMatches(ctx, categoryID)
}

// ListTournamentMatches returns the matches of every category in the tournament. When day
// is set only matches starting on that UTC calendar day are returned, in start order.
func (s *Service) ListTournamentMatches(ctx context.Context, tournamentID int64, day *time.Time) ([]models.Match, error) {
	if _, err := s.repo.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	if day == nil {
		return s.repo.ListTournamentMatches(ctx, tournamentID)
	}
	utc := day.UTC()
	from := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	return s.repo.ListTournamentMatchesBetween(ctx, tournamentID, from, from.Add(24*time.Hour))
}
