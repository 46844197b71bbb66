package competition

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/padeldraw/internal/draw"
	"github.com/codr1/padeldraw/internal/models"
)

// GenerateResult is the outcome of generating a category's fixtures.
type GenerateResult struct {
	Matches     []models.Match `json:"matches"`
	Scheduled   int            `json:"scheduled"`
	Unscheduled int            `json:"unscheduled"`
}

// GenerateMatches creates the group fixtures and/or elimination bracket of a category and
// marks the category ACTIVE. matchType limits generation to one phase. When
// autoAssignCourts is set the new matches are placed on free court slots; matches that do
// not fit are reported as unscheduled.
func (s *Service) GenerateMatches(ctx context.Context, categoryID int64, matchType models.MatchType, autoAssignCourts bool) (GenerateResult, error) {
	if matchType == "" {
		matchType = models.MatchTypeAll
	}

	var result GenerateResult
	p := &pending{generated: make(map[string]int)}
	err := s.repo.RunInTx(ctx, func(repo Repository) error {
		category, err := s.loadCategory(ctx, repo, categoryID)
		if err != nil {
			return err
		}
		if category.Status == models.StatusCompleted {
			return fmt.Errorf("category %d is completed: %w", categoryID, models.ErrCategoryLocked)
		}

		wantGroups := category.Format.HasGroups() && matchType != models.MatchTypeElimination
		wantBracket := category.Format.HasBracket() && matchType != models.MatchTypeGroup
		if !wantGroups && !wantBracket {
			return fmt.Errorf("%s matches for a %s category: %w", matchType, category.Format, models.ErrInvalidFormat)
		}

		existing, err := repo.ListMatches(ctx, categoryID)
		if err != nil {
			return fmt.Errorf("list matches: %w", err)
		}
		for _, match := range existing {
			if (wantGroups && !match.Round.IsBracket()) || (wantBracket && match.Round.IsBracket()) {
				return fmt.Errorf("category %d: %w", categoryID, models.ErrMatchesExist)
			}
		}

		var planned []models.Match
		if wantGroups {
			groupMatches, err := s.planGroupMatches(ctx, repo, categoryID)
			if err != nil {
				return err
			}
			planned = append(planned, groupMatches...)
			p.generated["group"] = len(groupMatches)
		}
		if wantBracket {
			bracket, err := s.planBracket(ctx, repo, category)
			if err != nil {
				return err
			}
			planned = append(planned, bracket...)
			p.generated["elimination"] = len(bracket)
		}

		created := make([]models.Match, 0, len(planned))
		for _, match := range planned {
			saved, err := repo.CreateMatch(ctx, match)
			if err != nil {
				return fmt.Errorf("create %s match: %w", match.Round, err)
			}
			created = append(created, saved)
		}

		if wantBracket {
			walkovers, err := resolveByes(ctx, repo, categoryID, created)
			if err != nil {
				return err
			}
			for _, match := range walkovers {
				p.completed = append(p.completed, completion{round: match.Round, walkover: true})
			}
			if created, err = repo.ListMatches(ctx, categoryID); err != nil {
				return fmt.Errorf("list matches: %w", err)
			}
			created = onlyPhases(created, wantGroups, wantBracket)
		}

		if category.Status == models.StatusRegistrationOpen {
			if err := repo.UpdateCategoryStatus(ctx, categoryID, models.StatusActive); err != nil {
				return err
			}
		}

		if autoAssignCourts {
			scheduled, unscheduled, err := s.autoSchedule(ctx, repo, category, created)
			if err != nil {
				return err
			}
			result.Scheduled = scheduled
			result.Unscheduled = unscheduled
			p.autoAssigned = scheduled
			if created, err = repo.ListMatches(ctx, categoryID); err != nil {
				return fmt.Errorf("list matches: %w", err)
			}
			created = onlyPhases(created, wantGroups, wantBracket)
		}

		result.Matches = created
		p.publish(Event{Type: EventMatchesGenerated, CategoryID: categoryID, Matches: created})
		return nil
	})
	if err != nil {
		return GenerateResult{}, err
	}

	log.Ctx(ctx).Info().
		Int64("category_id", categoryID).
		Str("match_type", string(matchType)).
		Int("matches", len(result.Matches)).
		Int("scheduled", result.Scheduled).
		Int("unscheduled", result.Unscheduled).
		Msg("Generated matches")
	s.flush(p)
	return result, nil
}

func (s *Service) planGroupMatches(ctx context.Context, repo Repository, categoryID int64) ([]models.Match, error) {
	groups, err := repo.ListGroups(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	if len(groups) == 0 {
		return nil, models.ErrNoGroups
	}
	assignments, err := repo.ListAssignments(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	teamsByGroup := make(map[int64][]models.Team, len(groups))
	for _, assignment := range assignments {
		teamsByGroup[assignment.GroupID] = append(teamsByGroup[assignment.GroupID], models.Team{ID: assignment.TeamID, CategoryID: categoryID})
	}

	logger := log.Ctx(ctx)
	var matches []models.Match
	for _, group := range groups {
		fixtures, err := draw.GenerateRoundRobin(categoryID, group.ID, teamsByGroup[group.ID])
		if err != nil {
			logger.Warn().Int64("category_id", categoryID).Int64("group_id", group.ID).Int("teams", len(teamsByGroup[group.ID])).Msg("Skipping group without enough teams")
			continue
		}
		matches = append(matches, fixtures...)
	}
	if len(matches) == 0 {
		return nil, models.ErrInsufficientTeams
	}
	return matches, nil
}

func (s *Service) planBracket(ctx context.Context, repo Repository, category models.Category) ([]models.Match, error) {
	if category.Format == models.FormatSingleElimination {
		teams, err := repo.ListTeams(ctx, category.ID)
		if err != nil {
			return nil, fmt.Errorf("list teams: %w", err)
		}
		return draw.BuildBracket(category.ID, teams)
	}

	groups, err := repo.ListGroups(ctx, category.ID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	if len(groups) == 0 {
		return nil, models.ErrNoGroups
	}
	return draw.BuildPlaceholderBracket(category.ID, len(groups)*s.opts.QualifiersPerGroup)
}

// AdvanceQualifiers seeds the bracket of a groups-and-elimination category from the final
// group standings once every group match is complete.
func (s *Service) AdvanceQualifiers(ctx context.Context, categoryID int64) ([]models.Match, error) {
	var bracket []models.Match
	p := &pending{}
	err := s.repo.RunInTx(ctx, func(repo Repository) error {
		category, err := s.loadCategory(ctx, repo, categoryID)
		if err != nil {
			return err
		}
		if category.Format != models.FormatGroupsAndElimination {
			return fmt.Errorf("%s category has no qualifiers: %w", category.Format, models.ErrInvalidFormat)
		}

		matches, err := repo.ListMatches(ctx, categoryID)
		if err != nil {
			return fmt.Errorf("list matches: %w", err)
		}
		for _, match := range matches {
			if !match.Round.IsBracket() && !match.Completed {
				return fmt.Errorf("group match %d is not completed: %w", match.ID, models.ErrGroupsIncomplete)
			}
		}

		bracket, err = s.seedQualifiers(ctx, repo, category, matches, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Int64("category_id", categoryID).Msg("Seeded qualifiers into bracket")
	s.flush(p)
	return bracket, nil
}

// seedQualifiers places the top teams of every group into the first bracket round and
// resolves the byes that leaves.
func (s *Service) seedQualifiers(ctx context.Context, repo Repository, category models.Category, matches []models.Match, p *pending) ([]models.Match, error) {
	bracket := bracketMatches(matches)
	first, ok := draw.FirstRound(bracket)
	if !ok {
		return nil, fmt.Errorf("category %d has no bracket: %w", category.ID, models.ErrNotFound)
	}
	for _, match := range bracket {
		if match.Round == first && (match.TeamAID != 0 || match.TeamBID != 0) {
			return nil, fmt.Errorf("bracket of category %d is already seeded: %w", category.ID, models.ErrMatchesExist)
		}
	}

	standings, err := groupStandings(ctx, repo, category.ID)
	if err != nil {
		return nil, err
	}
	ranked := make([][]int64, 0, len(standings))
	for _, group := range standings {
		ids := make([]int64, 0, len(group.Standings))
		for _, row := range group.Standings {
			ids = append(ids, row.TeamID)
		}
		ranked = append(ranked, ids)
	}

	pairings := draw.SeedQualifiers(ranked, s.opts.QualifiersPerGroup, draw.MatchesInRound(first))
	for i := range bracket {
		match := &bracket[i]
		if match.Round != first || match.Position >= len(pairings) {
			continue
		}
		match.TeamAID = pairings[match.Position][0]
		match.TeamBID = pairings[match.Position][1]
		if err := repo.SaveBracketMatch(ctx, *match); err != nil {
			return nil, err
		}
	}

	walkovers, err := resolveByes(ctx, repo, category.ID, bracket)
	if err != nil {
		return nil, err
	}
	for _, match := range walkovers {
		p.completed = append(p.completed, completion{round: match.Round, walkover: true})
	}

	updated, err := repo.ListMatches(ctx, category.ID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	bracket = bracketMatches(updated)
	p.publish(Event{Type: EventMatchesGenerated, CategoryID: category.ID, Matches: bracket})
	return bracket, nil
}

// resolveByes walks over every bracket match whose opponent can never arrive and
// persists the result. It returns the matches that were walked over.
func resolveByes(ctx context.Context, repo Repository, categoryID int64, matches []models.Match) ([]models.Match, error) {
	changed := draw.ResolveByes(bracketMatches(matches))
	var walkovers []models.Match
	for _, match := range changed {
		if err := repo.SaveBracketMatch(ctx, match); err != nil {
			return nil, err
		}
		if match.Completed {
			walkovers = append(walkovers, match)
		}
	}
	if len(walkovers) > 0 {
		log.Ctx(ctx).Debug().Int64("category_id", categoryID).Int("walkovers", len(walkovers)).Msg("Advanced teams with byes")
	}
	return walkovers, nil
}

// autoSchedule puts matches onto the first free court slots of the tournament, skipping
// void bracket matches. Matches of a later phase start only after every match of the
// earlier phase has ended, and a team is never booked twice at overlapping times.
func (s *Service) autoSchedule(ctx context.Context, repo Repository, category models.Category, matches []models.Match) (int, int, error) {
	tournament, err := repo.GetTournament(ctx, category.TournamentID)
	if err != nil {
		return 0, 0, err
	}
	courts, err := repo.ListCourts(ctx, tournament.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("list courts: %w", err)
	}
	if len(courts) == 0 {
		return 0, 0, fmt.Errorf("tournament %d: %w", tournament.ID, models.ErrNoCourts)
	}
	grid, err := draw.BuildSlots(tournament.StartDate, tournament.EndDate, courts, s.opts.DailyHours, category.Duration())
	if err != nil {
		return 0, 0, fmt.Errorf("%v: %w", err, models.ErrInvalidSchedule)
	}

	bookings, err := repo.ListTournamentBookings(ctx, tournament.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("list bookings: %w", err)
	}
	courtsByID := make(map[int64]models.Court, len(courts))
	for _, court := range courts {
		courtsByID[court.ID] = court
	}
	busy := make([]draw.Slot, 0, len(bookings))
	for _, booking := range bookings {
		busy = append(busy, draw.Slot{Court: courtsByID[booking.CourtID], Start: booking.Start, End: booking.End()})
	}
	free := draw.FreeSlots(grid, busy)

	dead := draw.DeadSlots(bracketMatches(matches))
	teamBusy := make(map[int64][]draw.Slot)
	var (
		scheduled, unscheduled int
		phase                  = models.Round(-1)
		phaseEnd, latestEnd    time.Time
	)
	for _, match := range matches {
		if match.Completed || match.IsScheduled() || isVoid(match, dead) {
			continue
		}
		if match.Round != phase && (match.Round.IsBracket() || phase.IsBracket()) {
			phase = match.Round
			phaseEnd = latestEnd
		}

		chosen := -1
		for i, slot := range free {
			if slot.Start.Before(phaseEnd) || teamClash(teamBusy, match, slot) {
				continue
			}
			chosen = i
			break
		}
		if chosen < 0 {
			unscheduled++
			continue
		}

		slot := free[chosen]
		free = append(free[:chosen], free[chosen+1:]...)
		if err := repo.SetSchedule(ctx, match.ID, slot.Court.ID, slot.Start); err != nil {
			return scheduled, unscheduled, err
		}
		for _, teamID := range []int64{match.TeamAID, match.TeamBID} {
			if teamID != 0 {
				teamBusy[teamID] = append(teamBusy[teamID], slot)
			}
		}
		if slot.End.After(latestEnd) {
			latestEnd = slot.End
		}
		scheduled++
	}

	if unscheduled > 0 {
		log.Ctx(ctx).Warn().Int64("category_id", category.ID).Int("unscheduled", unscheduled).Msg("Not enough free court slots for every match")
	}
	return scheduled, unscheduled, nil
}

// isVoid reports whether a bracket match can never be played because neither slot can
// ever be filled.
func isVoid(match models.Match, dead map[draw.BracketPosition][2]bool) bool {
	if match.TeamAID != 0 || match.TeamBID != 0 {
		return false
	}
	slots := dead[draw.BracketPosition{Round: match.Round, Position: match.Position}]
	return slots[0] && slots[1]
}

func teamClash(teamBusy map[int64][]draw.Slot, match models.Match, slot draw.Slot) bool {
	for _, teamID := range []int64{match.TeamAID, match.TeamBID} {
		if teamID == 0 {
			continue
		}
		for _, booked := range teamBusy[teamID] {
			if booked.Start.Before(slot.End) && slot.Start.Before(booked.End) {
				return true
			}
		}
	}
	return false
}

func bracketMatches(matches []models.Match) []models.Match {
	var bracket []models.Match
	for _, match := range matches {
		if match.Round.IsBracket() {
			bracket = append(bracket, match)
		}
	}
	return bracket
}

func onlyPhases(matches []models.Match, groups, bracket bool) []models.Match {
	filtered := make([]models.Match, 0, len(matches))
	for _, match := range matches {
		if (groups && !match.Round.IsBracket()) || (bracket && match.Round.IsBracket()) {
			filtered = append(filtered, match)
		}
	}
	return filtered
}
