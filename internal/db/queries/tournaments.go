package queries

import (
	"context"
	"database/sql"

	"github.com/codr1/padeldraw/internal/models"
)

const getTournament = `
SELECT id, name, start_date, end_date
FROM tournaments
WHERE id = ?
`

func (q *Queries) GetTournament(ctx context.Context, id int64) (models.Tournament, error) {
	row := q.db.QueryRowContext(ctx, getTournament, id)
	var t models.Tournament
	err := row.Scan(&t.ID, &t.Name, &t.StartDate, &t.EndDate)
	return t, err
}

const getCategory = `
SELECT id, tournament_id, name, format, match_duration, status
FROM categories
WHERE id = ?
`

func (q *Queries) GetCategory(ctx context.Context, id int64) (models.Category, error) {
	row := q.db.QueryRowContext(ctx, getCategory, id)
	var c models.Category
	err := row.Scan(&c.ID, &c.TournamentID, &c.Name, &c.Format, &c.MatchDuration, &c.Status)
	return c, err
}

const updateCategoryStatus = `
UPDATE categories
SET status = ?
WHERE id = ?
`

type UpdateCategoryStatusParams struct {
	Status models.CategoryStatus
	ID     int64
}

func (q *Queries) UpdateCategoryStatus(ctx context.Context, arg UpdateCategoryStatusParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateCategoryStatus, arg.Status, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listTournamentCourts = `
SELECT c.id, c.venue_id, c.name
FROM courts c
JOIN venues v ON v.id = c.venue_id
WHERE v.tournament_id = ?
ORDER BY v.id, c.id
`

func (q *Queries) ListTournamentCourts(ctx context.Context, tournamentID int64) ([]models.Court, error) {
	rows, err := q.db.QueryContext(ctx, listTournamentCourts, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []models.Court
	for rows.Next() {
		var c models.Court
		if err := rows.Scan(&c.ID, &c.VenueID, &c.Name); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listCategoryTeams = `
SELECT id, category_id, name, player1, player2, seeded
FROM teams
WHERE category_id = ?
ORDER BY id
`

func (q *Queries) ListCategoryTeams(ctx context.Context, categoryID int64) ([]models.Team, error) {
	rows, err := q.db.QueryContext(ctx, listCategoryTeams, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []models.Team
	for rows.Next() {
		var t models.Team
		var player2 sql.NullString
		if err := rows.Scan(&t.ID, &t.CategoryID, &t.Name, &t.Player1, &player2, &t.Seeded); err != nil {
			return nil, err
		}
		t.Player2 = player2.String
		items = append(items, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
