package queries

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codr1/padeldraw/internal/models"
)

const matchColumns = `m.id, m.category_id, m.team_a_id, m.team_b_id, m.group_id, m.round, m.position,
    m.score_a, m.score_b, m.winner, m.court_id, m.scheduled_time, m.completed`

const createMatch = `
INSERT INTO matches (category_id, team_a_id, team_b_id, group_id, round, position)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, category_id, team_a_id, team_b_id, group_id, round, position,
    score_a, score_b, winner, court_id, scheduled_time, completed
`

type CreateMatchParams struct {
	CategoryID int64
	TeamAID    int64
	TeamBID    int64
	GroupID    *int64
	Round      models.Round
	Position   int
}

func (q *Queries) CreateMatch(ctx context.Context, arg CreateMatchParams) (models.Match, error) {
	row := q.db.QueryRowContext(ctx, createMatch,
		arg.CategoryID,
		arg.TeamAID,
		arg.TeamBID,
		nullInt64(arg.GroupID),
		arg.Round.String(),
		arg.Position,
	)
	return scanMatch(row)
}

const getMatch = `
SELECT ` + matchColumns + `
FROM matches m
WHERE m.id = ?
`

func (q *Queries) GetMatch(ctx context.Context, id int64) (models.Match, error) {
	row := q.db.QueryRowContext(ctx, getMatch, id)
	return scanMatch(row)
}

const listCategoryMatches = `
SELECT ` + matchColumns + `
FROM matches m
WHERE m.category_id = ?
ORDER BY m.group_id IS NULL, m.group_id, m.id
`

func (q *Queries) ListCategoryMatches(ctx context.Context, categoryID int64) ([]models.Match, error) {
	rows, err := q.db.QueryContext(ctx, listCategoryMatches, categoryID)
	if err != nil {
		return nil, err
	}
	return collectMatches(rows)
}

const listTournamentMatches = `
SELECT ` + matchColumns + `
FROM matches m
JOIN categories c ON c.id = m.category_id
WHERE c.tournament_id = ?
ORDER BY m.scheduled_time IS NULL, m.scheduled_time, m.court_id, m.id
`

func (q *Queries) ListTournamentMatches(ctx context.Context, tournamentID int64) ([]models.Match, error) {
	rows, err := q.db.QueryContext(ctx, listTournamentMatches, tournamentID)
	if err != nil {
		return nil, err
	}
	return collectMatches(rows)
}

const listTournamentMatchesBetween = `
SELECT ` + matchColumns + `
FROM matches m
JOIN categories c ON c.id = m.category_id
WHERE c.tournament_id = ?
  AND m.scheduled_time >= ?
  AND m.scheduled_time < ?
ORDER BY m.scheduled_time, m.court_id, m.id
`

type ListTournamentMatchesBetweenParams struct {
	TournamentID int64
	From         time.Time
	To           time.Time
}

func (q *Queries) ListTournamentMatchesBetween(ctx context.Context, arg ListTournamentMatchesBetweenParams) ([]models.Match, error) {
	rows, err := q.db.QueryContext(ctx, listTournamentMatchesBetween, arg.TournamentID, arg.From.UTC(), arg.To.UTC())
	if err != nil {
		return nil, err
	}
	return collectMatches(rows)
}

const completeMatch = `
UPDATE matches
SET score_a = ?,
    score_b = ?,
    winner = ?,
    completed = 1
WHERE id = ? AND completed = 0
`

type CompleteMatchParams struct {
	ScoreA *string
	ScoreB *string
	Winner int64
	ID     int64
}

func (q *Queries) CompleteMatch(ctx context.Context, arg CompleteMatchParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, completeMatch,
		nullString(arg.ScoreA),
		nullString(arg.ScoreB),
		arg.Winner,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateMatchScores = `
UPDATE matches
SET score_a = ?,
    score_b = ?
WHERE id = ? AND completed = 0
`

type UpdateMatchScoresParams struct {
	ScoreA *string
	ScoreB *string
	ID     int64
}

func (q *Queries) UpdateMatchScores(ctx context.Context, arg UpdateMatchScoresParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateMatchScores, nullString(arg.ScoreA), nullString(arg.ScoreB), arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setBracketSlotA = `
UPDATE matches
SET team_a_id = ?
WHERE category_id = ? AND round = ? AND position = ? AND group_id IS NULL AND completed = 0
`

const setBracketSlotB = `
UPDATE matches
SET team_b_id = ?
WHERE category_id = ? AND round = ? AND position = ? AND group_id IS NULL AND completed = 0
`

type SetBracketSlotParams struct {
	TeamID     int64
	CategoryID int64
	Round      models.Round
	Position   int
	Slot       int
}

// SetBracketSlot fills slot 0 (team A) or slot 1 (team B) of an open bracket match.
func (q *Queries) SetBracketSlot(ctx context.Context, arg SetBracketSlotParams) (int64, error) {
	var query string
	switch arg.Slot {
	case 0:
		query = setBracketSlotA
	case 1:
		query = setBracketSlotB
	default:
		return 0, fmt.Errorf("invalid bracket slot %d", arg.Slot)
	}
	result, err := q.db.ExecContext(ctx, query, arg.TeamID, arg.CategoryID, arg.Round.String(), arg.Position)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateBracketMatch = `
UPDATE matches
SET team_a_id = ?,
    team_b_id = ?,
    winner = ?,
    completed = ?
WHERE id = ? AND group_id IS NULL
`

type UpdateBracketMatchParams struct {
	TeamAID   int64
	TeamBID   int64
	Winner    *int64
	Completed bool
	ID        int64
}

func (q *Queries) UpdateBracketMatch(ctx context.Context, arg UpdateBracketMatchParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateBracketMatch,
		arg.TeamAID,
		arg.TeamBID,
		nullInt64(arg.Winner),
		arg.Completed,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setMatchSchedule = `
UPDATE matches
SET court_id = ?,
    scheduled_time = ?
WHERE id = ?
`

type SetMatchScheduleParams struct {
	CourtID       int64
	ScheduledTime time.Time
	ID            int64
}

func (q *Queries) SetMatchSchedule(ctx context.Context, arg SetMatchScheduleParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setMatchSchedule, arg.CourtID, arg.ScheduledTime.UTC(), arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const clearMatchSchedule = `
UPDATE matches
SET court_id = NULL,
    scheduled_time = NULL
WHERE id = ?
`

func (q *Queries) ClearMatchSchedule(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, clearMatchSchedule, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listCourtBookings = `
SELECT m.id, m.court_id, m.scheduled_time, c.match_duration
FROM matches m
JOIN categories c ON c.id = m.category_id
WHERE m.court_id = ?
ORDER BY m.scheduled_time
`

func (q *Queries) ListCourtBookings(ctx context.Context, courtID int64) ([]models.Booking, error) {
	rows, err := q.db.QueryContext(ctx, listCourtBookings, courtID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

const listTournamentBookings = `
SELECT m.id, m.court_id, m.scheduled_time, c.match_duration
FROM matches m
JOIN categories c ON c.id = m.category_id
WHERE c.tournament_id = ? AND m.court_id IS NOT NULL
ORDER BY m.scheduled_time, m.court_id
`

func (q *Queries) ListTournamentBookings(ctx context.Context, tournamentID int64) ([]models.Booking, error) {
	rows, err := q.db.QueryContext(ctx, listTournamentBookings, tournamentID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func scanMatch(row scanner) (models.Match, error) {
	var (
		m         models.Match
		groupID   sql.NullInt64
		round     string
		scoreA    sql.NullString
		scoreB    sql.NullString
		winner    sql.NullInt64
		courtID   sql.NullInt64
		scheduled sql.NullTime
	)
	err := row.Scan(
		&m.ID,
		&m.CategoryID,
		&m.TeamAID,
		&m.TeamBID,
		&groupID,
		&round,
		&m.Position,
		&scoreA,
		&scoreB,
		&winner,
		&courtID,
		&scheduled,
		&m.Completed,
	)
	if err != nil {
		return m, err
	}
	if m.Round, err = models.ParseRound(round); err != nil {
		return m, fmt.Errorf("match %d: %w", m.ID, err)
	}
	m.GroupID = int64Ptr(groupID)
	m.ScoreA = stringPtr(scoreA)
	m.ScoreB = stringPtr(scoreB)
	m.Winner = int64Ptr(winner)
	m.CourtID = int64Ptr(courtID)
	if scheduled.Valid {
		at := scheduled.Time.UTC()
		m.ScheduledTime = &at
	}
	return m, nil
}

func collectMatches(rows *sql.Rows) ([]models.Match, error) {
	defer rows.Close()
	var items []models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func collectBookings(rows *sql.Rows) ([]models.Booking, error) {
	defer rows.Close()
	var items []models.Booking
	for rows.Next() {
		var (
			b       models.Booking
			minutes int
		)
		if err := rows.Scan(&b.MatchID, &b.CourtID, &b.Start, &minutes); err != nil {
			return nil, err
		}
		b.Start = b.Start.UTC()
		b.Duration = time.Duration(minutes) * time.Minute
		items = append(items, b)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
