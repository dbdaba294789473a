package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// UserRepository defines persistence access for principals and their
// relation sets (authorized branches, agent departments, app entitlements).
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, status *domain.UserStatus) ([]domain.User, error)

	DepartmentsOf(ctx context.Context, userID string) ([]string, error)
	SetDepartments(ctx context.Context, userID string, departmentIDs []string) error
	BranchesOf(ctx context.Context, userID string) ([]string, error)
	SetBranches(ctx context.Context, userID string, branchIDs []string) error
	AppsOf(ctx context.Context, userID string) ([]string, error)
	SetApps(ctx context.Context, userID string, appIDs []string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, status, branch_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.BranchID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, password_hash=$3, role=$4, status=$5, branch_id=$6, updated_at=NOW()
        WHERE id=$7`

	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.BranchID,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const userColumns = `id, name, email, password_hash, role, status, branch_id, created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.BranchID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, status *domain.UserStatus) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if status != nil {
		query += ` WHERE status=$1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]domain.User, error) {
	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.Status,
			&user.BranchID,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepository) DepartmentsOf(ctx context.Context, userID string) ([]string, error) {
	return r.relationIDs(ctx, `SELECT department_id FROM agent_departments WHERE agent_id=$1`, userID)
}

func (r *userRepository) SetDepartments(ctx context.Context, userID string, departmentIDs []string) error {
	return r.replaceRelation(ctx, "agent_departments", "agent_id", "department_id", userID, departmentIDs)
}

func (r *userRepository) BranchesOf(ctx context.Context, userID string) ([]string, error) {
	return r.relationIDs(ctx, `SELECT branch_id FROM user_branches WHERE user_id=$1`, userID)
}

func (r *userRepository) SetBranches(ctx context.Context, userID string, branchIDs []string) error {
	return r.replaceRelation(ctx, "user_branches", "user_id", "branch_id", userID, branchIDs)
}

func (r *userRepository) AppsOf(ctx context.Context, userID string) ([]string, error) {
	return r.relationIDs(ctx, `SELECT app_id FROM user_apps WHERE user_id=$1`, userID)
}

func (r *userRepository) SetApps(ctx context.Context, userID string, appIDs []string) error {
	return r.replaceRelation(ctx, "user_apps", "user_id", "app_id", userID, appIDs)
}

func (r *userRepository) relationIDs(ctx context.Context, query, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}

// replaceRelation swaps a join-table row set in one transaction.
func (r *userRepository) replaceRelation(ctx context.Context, table, ownerCol, relCol, ownerID string, relIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE `+ownerCol+`=$1`, ownerID); err != nil {
		return err
	}
	for _, relID := range relIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO `+table+` (`+ownerCol+`,`+relCol+`) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			ownerID, relID,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
