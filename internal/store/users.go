package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizmind/internal/model"
)

// ErrDuplicate is returned when a unique column already holds the value.
var ErrDuplicate = errors.New("duplicate")

// UserRepo persists users.
type UserRepo struct {
	q querier
}

var userColumns = []string{"id", "username", "skill", "role", "created_at"}

// Create inserts u. A taken username yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	ins := sqlite().Insert(tableUsers).
		Columns(userColumns...).
		Values(u.ID, u.Username, string(u.Skill), string(u.Role), u.CreatedAt.UTC())
	if _, err := execQuery(ctx, r.q, ins); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user %q: %w", u.Username, ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Get returns the user with id, or ErrNotFound.
func (r *UserRepo) Get(ctx context.Context, id string) (*model.User, error) {
	return r.getBy(ctx, entsql.EQ("id", id))
}

// GetByUsername returns the user with the given username, or ErrNotFound.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getBy(ctx, entsql.EQ("username", username))
}

func (r *UserRepo) getBy(ctx context.Context, pred *entsql.Predicate) (*model.User, error) {
	sel := sqlite().Select(userColumns...).
		From(sqlite().Table(tableUsers)).
		Where(pred)

	var u model.User
	var skill, role string
	err := queryRow(ctx, r.q, sel).Scan(&u.ID, &u.Username, &skill, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Skill = model.Skill(skill)
	u.Role = model.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// Delete removes the user. Sessions, questions, leaderboard entries and the
// adaptive profile go with it through ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := execQuery(ctx, r.q, sqlite().Delete(tableUsers).Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
