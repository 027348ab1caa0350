package ideas

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ideaboard/internal/common"
	"github.com/dmitrijs2005/ideaboard/internal/dbx"
	"github.com/dmitrijs2005/ideaboard/internal/server/models"
	"github.com/google/uuid"
)

const ideaColumns = `id, created_at, modified_at, name, description, upvoted_by, downvoted_by, creator_id`

var orderClauses = map[SortOrder]string{
	SortNewest: `created_at DESC, id`,
	SortOldest: `created_at ASC, id`,
	SortName:   `name ASC, id`,
	SortTop:    `jsonb_array_length(upvoted_by) - jsonb_array_length(downvoted_by) DESC, created_at DESC, id`,
}

// PostgresRepository stores ideas over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts idea, assigning an id and timestamps when they are unset.
func (r *PostgresRepository) Create(ctx context.Context, idea *models.Idea) (*models.Idea, error) {
	prepareForInsert(idea)

	query := `
		INSERT INTO ideas (` + ideaColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		idea.ID, idea.CreatedAt, idea.ModifiedAt, idea.Name, idea.Description,
		idea.UpvotedBy, idea.DownvotedBy, idea.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return idea, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Idea, error) {
	query := `
		SELECT ` + ideaColumns + `
		FROM ideas
		WHERE id = $1
	`
	idea := &models.Idea{}
	if err := scanIdea(r.db.QueryRowContext(ctx, query, id), idea); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return idea, nil
}

func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]*models.Idea, error) {
	order, ok := orderClauses[opts.Sort]
	if !ok {
		order = orderClauses[SortNewest]
	}

	query := `
		SELECT ` + ideaColumns + `
		FROM ideas
		ORDER BY ` + order + `
		OFFSET $1 LIMIT $2
	`
	return r.query(ctx, query, opts.Skip, opts.Limit)
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM ideas`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Idea, error) {
	query := `
		SELECT ` + ideaColumns + `
		FROM ideas
		WHERE creator_id = $1
		ORDER BY name, id
	`
	return r.query(ctx, query, creatorID)
}

// ListByIDs passes the ids as a JSON array so the query needs one parameter.
func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Idea, error) {
	if len(ids) == 0 {
		return []*models.Idea{}, nil
	}

	query := `
		SELECT ` + ideaColumns + `
		FROM ideas
		WHERE id IN (SELECT jsonb_array_elements_text($1::jsonb)::uuid)
		ORDER BY name, id
	`
	return r.query(ctx, query, models.IDSet(ids))
}

func (r *PostgresRepository) Update(ctx context.Context, idea *models.Idea) error {
	query := `
		UPDATE ideas SET name = $2, description = $3, modified_at = $4
		WHERE id = $1
	`
	return r.execOne(ctx, query, idea.ID, idea.Name, idea.Description, idea.ModifiedAt)
}

func (r *PostgresRepository) UpdateVotes(ctx context.Context, idea *models.Idea) error {
	query := `
		UPDATE ideas SET upvoted_by = $2, downvoted_by = $3
		WHERE id = $1
	`
	return r.execOne(ctx, query, idea.ID, idea.UpvotedBy, idea.DownvotedBy)
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM ideas
		WHERE id = $1
	`
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Idea, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select ideas: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Idea, 0)
	for rows.Next() {
		item := &models.Idea{}
		if err := scanIdea(rows, item); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIdea(s scanner, i *models.Idea) error {
	return s.Scan(&i.ID, &i.CreatedAt, &i.ModifiedAt, &i.Name, &i.Description,
		&i.UpvotedBy, &i.DownvotedBy, &i.CreatorID)
}

func prepareForInsert(i *models.Idea) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	now := time.Now().UTC()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	if i.ModifiedAt.IsZero() {
		i.ModifiedAt = i.CreatedAt
	}
	if i.UpvotedBy == nil {
		i.UpvotedBy = models.IDSet{}
	}
	if i.DownvotedBy == nil {
		i.DownvotedBy = models.IDSet{}
	}
}
