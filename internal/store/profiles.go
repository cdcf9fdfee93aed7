package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// ProfileRepo persists encoded adaptive profiles, one row per user.
type ProfileRepo struct {
	q querier
}

// LoadProfileState returns the stored profile of the user, or nil if none
// was saved yet.
func (r *ProfileRepo) LoadProfileState(ctx context.Context, userID string) ([]byte, error) {
	sel := sqlite().Select("state").
		From(sqlite().Table(tableProfiles)).
		Where(entsql.EQ("user_id", userID))
	var state []byte
	err := queryRow(ctx, r.q, sel).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return state, nil
}

// SaveProfileState writes the user's profile, replacing any previous one.
func (r *ProfileRepo) SaveProfileState(ctx context.Context, userID, currentDifficulty string, state []byte, updatedAt time.Time) error {
	ins := sqlite().Insert(tableProfiles).
		Columns("user_id", "current_difficulty", "state", "updated_at").
		Values(userID, currentDifficulty, string(state), updatedAt.UTC()).
		OnConflict(
			entsql.ConflictColumns("user_id"),
			entsql.ResolveWithNewValues(),
		)
	if _, err := execQuery(ctx, r.q, ins); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
