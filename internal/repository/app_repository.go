package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AppRepository manages application catalog persistence.
type AppRepository interface {
	Create(ctx context.Context, app *domain.App) error
	GetByID(ctx context.Context, id string) (*domain.App, error)
	List(ctx context.Context) ([]domain.App, error)
	Delete(ctx context.Context, id string) error
}

type appRepository struct {
	pool *pgxpool.Pool
}

// NewAppRepository builds the repository.
func NewAppRepository(pool *pgxpool.Pool) AppRepository {
	return &appRepository{pool: pool}
}

func (r *appRepository) Create(ctx context.Context, app *domain.App) error {
	const query = `
        INSERT INTO apps (name, description)
        VALUES ($1,$2)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, app.Name, app.Description).Scan(&app.ID, &app.CreatedAt)
}

func (r *appRepository) GetByID(ctx context.Context, id string) (*domain.App, error) {
	var app domain.App
	if err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM apps WHERE id=$1`, id,
	).Scan(&app.ID, &app.Name, &app.Description, &app.CreatedAt); err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *appRepository) List(ctx context.Context) ([]domain.App, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at FROM apps ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.App
	for rows.Next() {
		var app domain.App
		if err := rows.Scan(&app.ID, &app.Name, &app.Description, &app.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, app)
	}
	return result, rows.Err()
}

func (r *appRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM apps WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
