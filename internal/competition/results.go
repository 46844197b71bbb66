package competition

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/codr1/padeldraw/internal/draw"
	"github.com/codr1/padeldraw/internal/models"
)

// CompleteMatch records the result of a match exactly once. Group matches update both
// teams' standings; bracket matches move the winner into the next round. Completing the
// last match of a phase advances the category: the final or the last group match of a
// groups-only category completes it, and the last group match of a hybrid category seeds
// the bracket.
func (s *Service) CompleteMatch(ctx context.Context, matchID int64, scoreA, scoreB *string, winner int64) (models.Match, error) {
	var result models.Match
	p := &pending{}
	err := s.repo.RunInTx(ctx, func(repo Repository) error {
		match, err := repo.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if match.Completed {
			return fmt.Errorf("match %d: %w", matchID, models.ErrAlreadyCompleted)
		}
		if !match.HasTeam(winner) {
			return fmt.Errorf("team %d is not playing match %d: %w", winner, matchID, models.ErrInvalidWinner)
		}
		if match.TeamAID == 0 || match.TeamBID == 0 {
			return fmt.Errorf("match %d: %w", matchID, models.ErrMatchNotReady)
		}

		if err := repo.CompleteMatch(ctx, matchID, scoreA, scoreB, winner); err != nil {
			return err
		}
		p.completed = append(p.completed, completion{round: match.Round})

		category, err := s.loadCategory(ctx, repo, match.CategoryID)
		if err != nil {
			return err
		}

		if match.Round.IsBracket() {
			err = s.advanceWinner(ctx, repo, category, match, winner, p)
		} else {
			err = s.recordGroupResult(ctx, repo, category, match, winner, p)
		}
		if err != nil {
			return err
		}

		result, err = repo.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		p.publish(Event{Type: EventMatchUpdated, CategoryID: match.CategoryID, Matches: []models.Match{result}})
		return nil
	})
	if err != nil {
		return models.Match{}, err
	}

	log.Ctx(ctx).Info().
		Int64("match_id", matchID).
		Int64("category_id", result.CategoryID).
		Str("round", result.Round.String()).
		Int64("winner", winner).
		Msg("Match completed")
	s.flush(p)
	return result, nil
}

func (s *Service) recordGroupResult(ctx context.Context, repo Repository, category models.Category, match models.Match, winner int64, p *pending) error {
	if match.GroupID == nil {
		return fmt.Errorf("group match %d has no group: %w", match.ID, models.ErrNotFound)
	}
	deltaA, deltaB, err := draw.ResultDeltas(match.TeamAID, match.TeamBID, winner)
	if err != nil {
		return err
	}
	for _, delta := range []draw.StandingDelta{deltaA, deltaB} {
		if err := repo.ApplyStandingDelta(ctx, *match.GroupID, delta); err != nil {
			return err
		}
	}
	p.publish(Event{Type: EventStandingsUpdated, CategoryID: category.ID})

	matches, err := repo.ListMatches(ctx, category.ID)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	for _, other := range matches {
		if !other.Round.IsBracket() && !other.Completed {
			return nil
		}
	}

	logger := log.Ctx(ctx)
	switch category.Format {
	case models.FormatGroups:
		return s.completeCategory(ctx, repo, category.ID, p)
	case models.FormatGroupsAndElimination:
		if _, ok := draw.FirstRound(bracketMatches(matches)); !ok {
			logger.Debug().Int64("category_id", category.ID).Msg("Group stage finished before the bracket was generated")
			return nil
		}
		logger.Info().Int64("category_id", category.ID).Msg("Group stage finished, seeding bracket")
		bracket, err := s.seedQualifiers(ctx, repo, category, matches, p)
		if err != nil {
			return err
		}
		return s.completeIfFinalDecided(ctx, repo, category.ID, bracket, p)
	}
	return nil
}

func (s *Service) advanceWinner(ctx context.Context, repo Repository, category models.Category, match models.Match, winner int64, p *pending) error {
	next, slot, ok := draw.NextSlot(match.Round, match.Position)
	if !ok {
		return s.completeCategory(ctx, repo, category.ID, p)
	}

	filled, err := repo.SetBracketSlot(ctx, category.ID, next, slot, winner)
	if err != nil {
		return err
	}
	if !filled {
		log.Ctx(ctx).Debug().
			Int64("match_id", match.ID).
			Str("next_round", next.Round.String()).
			Int("next_position", next.Position).
			Msg("No open next-round match to advance into")
		return nil
	}

	matches, err := repo.ListMatches(ctx, category.ID)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	walkovers, err := resolveByes(ctx, repo, category.ID, matches)
	if err != nil {
		return err
	}
	for _, walkover := range walkovers {
		p.completed = append(p.completed, completion{round: walkover.Round, walkover: true})
	}
	return s.completeIfFinalDecided(ctx, repo, category.ID, walkovers, p)
}

// completeIfFinalDecided completes the category when the final is among matches and has
// a winner.
func (s *Service) completeIfFinalDecided(ctx context.Context, repo Repository, categoryID int64, matches []models.Match, p *pending) error {
	for _, match := range matches {
		if match.Round == models.RoundFinal && match.Completed {
			return s.completeCategory(ctx, repo, categoryID, p)
		}
	}
	return nil
}

func (s *Service) completeCategory(ctx context.Context, repo Repository, categoryID int64, p *pending) error {
	if err := repo.UpdateCategoryStatus(ctx, categoryID, models.StatusCompleted); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Int64("category_id", categoryID).Msg("Category completed")
	p.publish(Event{Type: EventCategoryCompleted, CategoryID: categoryID})
	return nil
}

// UpdateScores replaces the score text of a match that has not been completed.
func (s *Service) UpdateScores(ctx context.Context, matchID int64, scoreA, scoreB *string) (models.Match, error) {
	var result models.Match
	p := &pending{}
	err := s.repo.RunInTx(ctx, func(repo Repository) error {
		if err := repo.UpdateScores(ctx, matchID, scoreA, scoreB); err != nil {
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

	log.Ctx(ctx).Debug().Int64("match_id", matchID).Msg("Updated match scores")
	s.flush(p)
	return result, nil
}
