package draw

import (
	"sort"

	"github.com/codr1/padeldraw/internal/models"
)

// BracketPosition locates a match inside an elimination bracket.
type BracketPosition struct {
	Round    models.Round
	Position int
}

// BracketRounds returns ceil(log2(n)), the number of rounds needed to reduce n teams to
// one winner.
func BracketRounds(n int) (int, error) {
	if n < 2 {
		return 0, models.ErrInsufficientTeams
	}
	rounds := 0
	for size := 1; size < n; size <<= 1 {
		rounds++
	}
	return rounds, nil
}

// MatchesInRound is the number of matches at the given distance from the final.
func MatchesInRound(round models.Round) int {
	if !round.IsBracket() {
		return 0
	}
	return 1 << (round.Distance() - 1)
}

// BuildBracket creates a single-elimination bracket for known teams. The first round pairs
// team 2i with team 2i+1; a team without a partner faces an open slot (team id 0) and
// first-round positions with no team at all are left out. Later rounds are created with
// both slots open, except for positions neither of whose feeders exists.
func BuildBracket(categoryID int64, teams []models.Team) ([]models.Match, error) {
	rounds, err := BracketRounds(len(teams))
	if err != nil {
		return nil, err
	}

	var matches []models.Match
	var fed map[int]bool
	for distance := rounds; distance >= 1; distance-- {
		round := models.EarlyRound(distance)
		created := make(map[int]bool)
		for i := 0; i < MatchesInRound(round); i++ {
			match := models.Match{
				CategoryID: categoryID,
				Round:      round,
				Position:   i,
			}
			if distance == rounds {
				if seed := 2 * i; seed < len(teams) {
					match.TeamAID = teams[seed].ID
				}
				if seed := 2*i + 1; seed < len(teams) {
					match.TeamBID = teams[seed].ID
				}
				if match.TeamAID == 0 && match.TeamBID == 0 {
					continue
				}
			} else if !fed[2*i] && !fed[2*i+1] {
				continue
			}
			created[i] = true
			matches = append(matches, match)
		}
		fed = created
	}
	return matches, nil
}

// BuildPlaceholderBracket creates every match of a bracket sized for count teams with all
// slots open. It is used when the entrants are only known later, after group play.
func BuildPlaceholderBracket(categoryID int64, count int) ([]models.Match, error) {
	rounds, err := BracketRounds(count)
	if err != nil {
		return nil, err
	}

	matches := make([]models.Match, 0, (1<<rounds)-1)
	for distance := rounds; distance >= 1; distance-- {
		round := models.EarlyRound(distance)
		for i := 0; i < MatchesInRound(round); i++ {
			matches = append(matches, models.Match{
				CategoryID: categoryID,
				Round:      round,
				Position:   i,
			})
		}
	}
	return matches, nil
}

// NextSlot returns the match and slot that the winner of the match at (round, position)
// moves into: match i feeds slot i%2 of match i/2 one round closer to the final. It
// returns false for the final.
func NextSlot(round models.Round, position int) (BracketPosition, int, bool) {
	next, ok := round.Next()
	if !ok || !round.IsBracket() {
		return BracketPosition{}, 0, false
	}
	return BracketPosition{Round: next, Position: position / 2}, position % 2, true
}

// FirstRound returns the round furthest from the final among the bracket matches.
func FirstRound(bracket []models.Match) (models.Round, bool) {
	first := models.RoundGroup
	for _, match := range bracket {
		if match.Round.IsBracket() && match.Round > first {
			first = match.Round
		}
	}
	return first, first.IsBracket()
}

// DeadSlots reports which slots of each bracket match can never receive a team. A
// first-round slot is dead when it holds no team; a later slot is dead when the match
// feeding it is missing or has two dead slots itself. A bracket whose first round has no
// teams at all is still waiting to be seeded and has no dead slots.
func DeadSlots(bracket []models.Match) map[BracketPosition][2]bool {
	dead := make(map[BracketPosition][2]bool)

	first, ok := FirstRound(bracket)
	if !ok {
		return dead
	}

	byPosition := indexBracket(bracket)
	seeded := false
	for _, match := range bracket {
		if match.Round == first && (match.TeamAID != 0 || match.TeamBID != 0) {
			seeded = true
			break
		}
	}
	if !seeded {
		return dead
	}

	for distance := first.Distance(); distance >= 1; distance-- {
		round := models.EarlyRound(distance)
		for i := 0; i < MatchesInRound(round); i++ {
			pos := BracketPosition{Round: round, Position: i}
			match, exists := byPosition[pos]
			if !exists {
				continue
			}

			var slots [2]bool
			for slot := 0; slot < 2; slot++ {
				if match.Slot(slot) != 0 {
					continue
				}
				if round == first {
					slots[slot] = true
					continue
				}
				feeder := BracketPosition{Round: models.EarlyRound(distance + 1), Position: 2*i + slot}
				_, present := byPosition[feeder]
				if feederSlots := dead[feeder]; !present || (feederSlots[0] && feederSlots[1]) {
					slots[slot] = true
				}
			}
			dead[pos] = slots
		}
	}

	return dead
}

// ResolveByes completes every match whose lone team can never receive an opponent and
// moves that team on, repeating until the bracket is stable. It returns the matches that
// changed, in their final state.
func ResolveByes(bracket []models.Match) []models.Match {
	working := make([]models.Match, len(bracket))
	copy(working, bracket)

	index := make(map[BracketPosition]int, len(working))
	for i, match := range working {
		if match.Round.IsBracket() {
			index[BracketPosition{Round: match.Round, Position: match.Position}] = i
		}
	}

	changed := make(map[int]bool)
	for {
		dead := DeadSlots(working)
		progressed := false
		for i := range working {
			match := &working[i]
			if match.Completed || !match.Round.IsBracket() {
				continue
			}
			slots := dead[BracketPosition{Round: match.Round, Position: match.Position}]
			var winner int64
			switch {
			case match.TeamAID != 0 && match.TeamBID == 0 && slots[1]:
				winner = match.TeamAID
			case match.TeamBID != 0 && match.TeamAID == 0 && slots[0]:
				winner = match.TeamBID
			default:
				continue
			}

			walkover := winner
			match.Winner = &walkover
			match.Completed = true
			changed[i] = true
			progressed = true

			if next, slot, ok := NextSlot(match.Round, match.Position); ok {
				if target, exists := index[next]; exists && !working[target].Completed {
					if slot == 0 {
						working[target].TeamAID = winner
					} else {
						working[target].TeamBID = winner
					}
					changed[target] = true
				}
			}
		}
		if !progressed {
			break
		}
	}

	positions := make([]int, 0, len(changed))
	for i := range changed {
		positions = append(positions, i)
	}
	sort.Ints(positions)

	result := make([]models.Match, 0, len(positions))
	for _, i := range positions {
		result = append(result, working[i])
	}
	return result
}

// SeedQualifiers pairs group qualifiers into firstRound matches. ranked holds each
// group's team ids in finishing order. The first perGroup teams of every group qualify,
// ordered by rank and alternating group direction per rank, so winners of early groups
// meet runners-up of late groups. Qualifiers fill slot A of every match before any slot B.
func SeedQualifiers(ranked [][]int64, perGroup, firstRound int) [][2]int64 {
	var qualifiers []int64
	for rank := 0; rank < perGroup; rank++ {
		for g := range ranked {
			group := ranked[g]
			if rank%2 == 1 {
				group = ranked[len(ranked)-1-g]
			}
			if rank < len(group) {
				qualifiers = append(qualifiers, group[rank])
			}
		}
	}

	pairings := make([][2]int64, firstRound)
	for i, teamID := range qualifiers {
		if i >= 2*firstRound {
			break
		}
		pairings[i%firstRound][i/firstRound] = teamID
	}
	return pairings
}

func indexBracket(bracket []models.Match) map[BracketPosition]models.Match {
	index := make(map[BracketPosition]models.Match, len(bracket))
	for _, match := range bracket {
		if match.Round.IsBracket() {
			index[BracketPosition{Round: match.Round, Position: match.Position}] = match
		}
	}
	return index
}
