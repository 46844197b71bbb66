package competition

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/codr1/padeldraw/internal/draw"
	"github.com/codr1/padeldraw/internal/models"
)

// CreateGroups appends count empty groups to the category, labelled with the next unused
// letters.
func (s *Service) CreateGroups(ctx context.Context, categoryID int64, count int) ([]models.Group, error) {
	if count < 1 {
		return nil, models.ErrInvalidGroupCount
	}

	var created []models.Group
	p := &pending{}
	err := s.repo.RunInTx(ctx, func(repo Repository) error {
		category, err := s.openCategory(ctx, repo, categoryID)
		if err != nil {
			return err
		}
		if !category.Format.HasGroups() {
			return fmt.Errorf("%s category has no groups: %w", category.Format, models.ErrInvalidFormat)
		}

		existing, err := repo.ListGroups(ctx, categoryID)
		if err != nil {
			return fmt.Errorf("list groups: %w", err)
		}
		used := make(map[string]bool, len(existing))
		for _, group := range existing {
			used[group.Name] = true
		}

		for index := 0; len(created) < count; index++ {
			name := draw.GroupName(index)
			if used[name] {
				continue
			}
			group, err := repo.CreateGroup(ctx, categoryID, name)
			if err != nil {
				return fmt.Errorf("create group %s: %w", name, err)
			}
			created = append(created, group)
		}
		p.publish(Event{Type: EventGroupsChanged, CategoryID: categoryID})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Int64("category_id", categoryID).Int("groups", len(created)).Msg("Created groups")
	s.flush(p)
	return created, nil
}

// AutoAssignTeams distributes every unassigned team of the category across its groups.
func (s *Service) AutoAssignTeams(ctx context.Context, categoryID int64, shuffler draw.Shuffler) ([]models.GroupAssignment, error) {
	var created []models.GroupAssignment
	p := &pending{}
	err := s.repo.RunInTx(ctx, func(repo Repository) error {
		if _, err := s.openCategory(ctx, repo, categoryID); err != nil {
			return err
		}

		groups, err := repo.ListGroups(ctx, categoryID)
		if err != nil {
			return fmt.Errorf("list groups: %w", err)
		}
		teams, err := repo.ListTeams(ctx, categoryID)
		if err != nil {
			return fmt.Errorf("list teams: %w", err)
		}
		existing, err := repo.ListAssignments(ctx, categoryID)
		if err != nil {
			return fmt.Errorf("list assignments: %w", err)
		}
		assigned := make(map[int64]int64, len(existing))
		for _, assignment := range existing {
			assigned[assignment.TeamID] = assignment.GroupID
		}

		placement, err := draw.Partition(teams, groups, assigned, shuffler)
		if err != nil {
			return err
		}

		for _, team := range teams {
			groupID, ok := placement[team.ID]
			if !ok {
				continue
			}
			assignment, err := repo.CreateAssignment(ctx, categoryID, groupID, team.ID)
			if err != nil {
				return err
			}
			created = append(created, assignment)
		}
		p.publish(Event{Type: EventGroupsChanged, CategoryID: categoryID})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Int64("category_id", categoryID).Int("assigned", len(created)).Msg("Auto-assigned teams to groups")
	s.flush(p)
	return created, nil
}

// SetGroupAssignments makes the given placements the category's complete set of group
// assignments. Pairs that already exist keep their standings; teams left out are removed
// from their group. Repeating the same call changes nothing.
func (s *Service) SetGroupAssignments(ctx context.Context, categoryID int64, placements []models.TeamGroup) ([]models.GroupAssignment, error) {
	var result []models.GroupAssignment
	p := &pending{}
	err := s.repo.RunInTx(ctx, func(repo Repository) error {
		if _, err := s.openCategory(ctx, repo, categoryID); err != nil {
			return err
		}

		groups, err := repo.ListGroups(ctx, categoryID)
		if err != nil {
			return fmt.Errorf("list groups: %w", err)
		}
		teams, err := repo.ListTeams(ctx, categoryID)
		if err != nil {
			return fmt.Errorf("list teams: %w", err)
		}
		validGroup := make(map[int64]bool, len(groups))
		for _, group := range groups {
			validGroup[group.ID] = true
		}
		validTeam := make(map[int64]bool, len(teams))
		for _, team := range teams {
			validTeam[team.ID] = true
		}

		desired := make(map[int64]int64, len(placements))
		for _, placement := range placements {
			if !validTeam[placement.TeamID] {
				return fmt.Errorf("team %d: %w", placement.TeamID, models.ErrInvalidAssignment)
			}
			if !validGroup[placement.GroupID] {
				return fmt.Errorf("group %d: %w", placement.GroupID, models.ErrInvalidAssignment)
			}
			if groupID, dup := desired[placement.TeamID]; dup && groupID != placement.GroupID {
				return fmt.Errorf("team %d listed in two groups: %w", placement.TeamID, models.ErrInvalidAssignment)
			}
			desired[placement.TeamID] = placement.GroupID
		}

		existing, err := repo.ListAssignments(ctx, categoryID)
		if err != nil {
			return fmt.Errorf("list assignments: %w", err)
		}
		kept := make(map[int64]bool, len(existing))
		for _, assignment := range existing {
			if groupID, ok := desired[assignment.TeamID]; ok && groupID == assignment.GroupID {
				kept[assignment.TeamID] = true
				continue
			}
			if err := repo.DeleteAssignment(ctx, assignment.ID); err != nil {
				return fmt.Errorf("remove team %d from group %d: %w", assignment.TeamID, assignment.GroupID, err)
			}
		}

		for _, team := range teams {
			groupID, ok := desired[team.ID]
			if !ok || kept[team.ID] {
				continue
			}
			if _, err := repo.CreateAssignment(ctx, categoryID, groupID, team.ID); err != nil {
				return err
			}
		}

		result, err = repo.ListAssignments(ctx, categoryID)
		if err != nil {
			return fmt.Errorf("list assignments: %w", err)
		}
		p.publish(Event{Type: EventGroupsChanged, CategoryID: categoryID})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Int64("category_id", categoryID).Int("assignments", len(result)).Msg("Replaced group assignments")
	s.flush(p)
	return result, nil
}

// CategoryStandings returns every group of the category with its teams ranked by points
// and wins.
func (s *Service) CategoryStandings(ctx context.Context, categoryID int64) ([]models.GroupStandings, error) {
	if _, err := s.loadCategory(ctx, s.repo, categoryID); err != nil {
		return nil, err
	}
	return groupStandings(ctx, s.repo, categoryID)
}

func groupStandings(ctx context.Context, repo Repository, categoryID int64) ([]models.GroupStandings, error) {
	groups, err := repo.ListGroups(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	assignments, err := repo.ListAssignments(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	teams, err := repo.ListTeams(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	teamsByID := make(map[int64]*models.Team, len(teams))
	for i := range teams {
		teamsByID[teams[i].ID] = &teams[i]
	}

	byGroup := make(map[int64][]models.GroupStanding, len(groups))
	for _, assignment := range assignments {
		byGroup[assignment.GroupID] = append(byGroup[assignment.GroupID], models.GroupStanding{
			GroupAssignment: assignment,
			Team:            teamsByID[assignment.TeamID],
		})
	}

	result := make([]models.GroupStandings, 0, len(groups))
	for _, group := range groups {
		rows := byGroup[group.ID]
		if rows == nil {
			rows = []models.GroupStanding{}
		}
		draw.RankGroupStandings(rows)
		result = append(result, models.GroupStandings{Group: group, Standings: rows})
	}
	return result, nil
}

// openCategory loads a category whose group structure can still change.
func (s *Service) openCategory(ctx context.Context, repo Repository, categoryID int64) (models.Category, error) {
	category, err := s.loadCategory(ctx, repo, categoryID)
	if err != nil {
		return category, err
	}
	if category.Status != models.StatusRegistrationOpen {
		return category, fmt.Errorf("category %d is %s: %w", categoryID, category.Status, models.ErrCategoryLocked)
	}
	return category, nil
}
