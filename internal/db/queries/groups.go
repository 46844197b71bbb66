package queries

import (
	"context"

	"github.com/codr1/padeldraw/internal/models"
)

const listCategoryGroups = `
SELECT id, category_id, name
FROM category_groups
WHERE category_id = ?
ORDER BY id
`

func (q *Queries) ListCategoryGroups(ctx context.Context, categoryID int64) ([]models.Group, error) {
	rows, err := q.db.QueryContext(ctx, listCategoryGroups, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.CategoryID, &g.Name); err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createGroup = `
INSERT INTO category_groups (category_id, name)
VALUES (?, ?)
RETURNING id, category_id, name
`

type CreateGroupParams struct {
	CategoryID int64
	Name       string
}

func (q *Queries) CreateGroup(ctx context.Context, arg CreateGroupParams) (models.Group, error) {
	row := q.db.QueryRowContext(ctx, createGroup, arg.CategoryID, arg.Name)
	var g models.Group
	err := row.Scan(&g.ID, &g.CategoryID, &g.Name)
	return g, err
}

const assignmentColumns = `id, group_id, team_id, played, won, lost, points`

const listCategoryAssignments = `
SELECT ` + assignmentColumns + `
FROM group_assignments
WHERE category_id = ?
ORDER BY group_id, id
`

func (q *Queries) ListCategoryAssignments(ctx context.Context, categoryID int64) ([]models.GroupAssignment, error) {
	rows, err := q.db.QueryContext(ctx, listCategoryAssignments, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []models.GroupAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createGroupAssignment = `
INSERT INTO group_assignments (category_id, group_id, team_id)
VALUES (?, ?, ?)
RETURNING ` + assignmentColumns

type CreateGroupAssignmentParams struct {
	CategoryID int64
	GroupID    int64
	TeamID     int64
}

func (q *Queries) CreateGroupAssignment(ctx context.Context, arg CreateGroupAssignmentParams) (models.GroupAssignment, error) {
	row := q.db.QueryRowContext(ctx, createGroupAssignment, arg.CategoryID, arg.GroupID, arg.TeamID)
	return scanAssignment(row)
}

const deleteGroupAssignment = `
DELETE FROM group_assignments
WHERE id = ?
`

func (q *Queries) DeleteGroupAssignment(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteGroupAssignment, id)
	return err
}

const incrementStanding = `
UPDATE group_assignments
SET played = played + ?,
    won = won + ?,
    lost = lost + ?,
    points = points + ?
WHERE group_id = ? AND team_id = ?
`

type IncrementStandingParams struct {
	Played  int
	Won     int
	Lost    int
	Points  int
	GroupID int64
	TeamID  int64
}

func (q *Queries) IncrementStanding(ctx context.Context, arg IncrementStandingParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, incrementStanding,
		arg.Played,
		arg.Won,
		arg.Lost,
		arg.Points,
		arg.GroupID,
		arg.TeamID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanAssignment(row scanner) (models.GroupAssignment, error) {
	var a models.GroupAssignment
	err := row.Scan(&a.ID, &a.GroupID, &a.TeamID, &a.Played, &a.Won, &a.Lost, &a.Points)
	return a, err
}
