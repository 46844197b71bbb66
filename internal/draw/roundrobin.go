package draw

import (
	"github.com/codr1/padeldraw/internal/models"
)

// GenerateRoundRobin pairs every team in a group with every other team exactly once.
// Pairs follow input order (i, j) with i < j and carry no schedule, score or winner.
func GenerateRoundRobin(categoryID, groupID int64, teams []models.Team) ([]models.Match, error) {
	if len(teams) < 2 {
		return nil, models.ErrInsufficientTeams
	}

	matches := make([]models.Match, 0, len(teams)*(len(teams)-1)/2)
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			group := groupID
			matches = append(matches, models.Match{
				CategoryID: categoryID,
				TeamAID:    teams[i].ID,
				TeamBID:    teams[j].ID,
				GroupID:    &group,
				Round:      models.RoundGroup,
				Position:   len(matches),
			})
		}
	}
	return matches, nil
}
