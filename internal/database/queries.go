package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"textdigest/internal/domain"
)

// CreateRecord inserts r and fills in its ID and CreatedAt.
func (d *Database) CreateRecord(ctx context.Context, r *domain.Record) error {
	createdAt := time.Now().UTC()

	query, args, err := d.sb.
		Insert("records").
		Columns("original_text", "summary", "bullet_points", "created_at").
		Values(r.OriginalText, r.Summary, r.BulletPoints, createdAt).
		Suffix("returning id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	var id int64
	if err = d.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	r.ID = id
	r.CreatedAt = createdAt

	return nil
}

func (d *Database) CountRecords(ctx context.Context) (int64, error) {
	return d.count(ctx, "records")
}

func (d *Database) CreateUser(
	ctx context.Context,
	username string,
	passwordHash string,
) (*domain.User, error) {
	username = normalizeUsername(username)
	if username == "" {
		return nil, errors.New("username is empty")
	}

	u := domain.User{
		Username:     username,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	query, args, err := d.sb.
		Insert("users").
		Columns("username", "password_hash", "is_active", "created_at").
		Values(u.Username, u.PasswordHash, u.IsActive, u.CreatedAt).
		Suffix("returning id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	if err = d.db.QueryRowContext(ctx, query, args...).Scan(&u.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &u, nil
}

func (d *Database) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return d.getUser(ctx, "username", normalizeUsername(username))
}

func (d *Database) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return d.getUser(ctx, "id", id)
}

func (d *Database) CountUsers(ctx context.Context) (int64, error) {
	return d.count(ctx, "users")
}

// Optimize runs the driver's housekeeping statement, if it has one.
func (d *Database) Optimize(ctx context.Context) error {
	if d.driver != DriverSQLite {
		return nil
	}

	_, err := d.db.ExecContext(ctx, "pragma optimize")

	return err
}

// normalizeUsername is applied on both write and lookup.
func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func (d *Database) getUser(ctx context.Context, column string, value any) (*domain.User, error) {
	query, args, err := d.sb.
		Select("id", "username", "password_hash", "is_active", "created_at").
		From("users").
		Where(sq.Eq{column: value}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var u domain.User
	err = d.db.QueryRowContext(ctx, query, args...).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}

	u.CreatedAt = u.CreatedAt.UTC()

	return &u, nil
}

func (d *Database) count(ctx context.Context, table string) (int64, error) {
	query, args, err := d.sb.Select("count(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var n int64
	if err = d.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}

	return n, nil
}
