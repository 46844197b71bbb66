// Package draw holds the pure generation rules for a category's draw: group
// partitioning, round-robin pairings, elimination brackets, standings arithmetic and
// court slot grids. Nothing in here touches storage.
package draw

import (
	"github.com/codr1/padeldraw/internal/models"
)

// Shuffler permutes n elements in place through swap. *math/rand/v2.Rand satisfies it,
// so callers thread an explicit generator and tests can make the draw reproducible.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Partition distributes every team that is not already assigned across groups.
// Seeded and non-seeded teams are shuffled separately. Each seeded team goes to the group
// holding the fewest seeded teams, then each non-seeded team to the smallest group; ties
// go to the group with fewer teams and then to the earlier group. Teams already holding a
// place count towards both totals, so repeated calls keep seeds spread and group sizes
// as even as the seeds allow. The result maps team id to group id.
func Partition(teams []models.Team, groups []models.Group, assigned map[int64]int64, shuffler Shuffler) (map[int64]int64, error) {
	if len(groups) == 0 {
		return nil, models.ErrNoGroups
	}

	index := make(map[int64]int, len(groups))
	for i, group := range groups {
		index[group.ID] = i
	}
	sizes := make([]int, len(groups))
	seeds := make([]int, len(groups))

	var seeded, unseeded []models.Team
	for _, team := range teams {
		if groupID, ok := assigned[team.ID]; ok {
			if i, known := index[groupID]; known {
				sizes[i]++
				if team.Seeded {
					seeds[i]++
				}
			}
			continue
		}
		if team.Seeded {
			seeded = append(seeded, team)
		} else {
			unseeded = append(unseeded, team)
		}
	}
	if len(seeded)+len(unseeded) == 0 {
		return nil, models.ErrNoTeams
	}

	shuffleTeams(shuffler, seeded)
	shuffleTeams(shuffler, unseeded)

	result := make(map[int64]int64, len(seeded)+len(unseeded))
	for _, team := range seeded {
		i := emptiest(seeds, sizes)
		result[team.ID] = groups[i].ID
		seeds[i]++
		sizes[i]++
	}
	for _, team := range unseeded {
		i := emptiest(sizes, sizes)
		result[team.ID] = groups[i].ID
		sizes[i]++
	}
	return result, nil
}

// emptiest returns the first index with the lowest primary count, breaking ties on the
// lowest secondary count.
func emptiest(primary, secondary []int) int {
	best := 0
	for i := 1; i < len(primary); i++ {
		if primary[i] < primary[best] || (primary[i] == primary[best] && secondary[i] < secondary[best]) {
			best = i
		}
	}
	return best
}

func shuffleTeams(shuffler Shuffler, teams []models.Team) {
	if shuffler == nil || len(teams) < 2 {
		return
	}
	shuffler.Shuffle(len(teams), func(i, j int) {
		teams[i], teams[j] = teams[j], teams[i]
	})
}

// GroupName labels the group at index: A to Z, then AA, AB and so on.
func GroupName(index int) string {
	name := ""
	for index >= 0 {
		name = string(rune('A'+index%26)) + name
		index = index/26 - 1
	}
	return name
}
