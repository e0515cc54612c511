package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/healthbot/core/logger"
	"github.com/m3rciful/healthbot/internal/tracker"
)

const (
	selectProfileSQL = `SELECT user_id, weight_kg, height_cm, age_years, activity_minutes, city,
	water_goal_ml, calorie_goal_kcal, logged_water_ml, logged_calories_kcal, burned_calories_kcal, updated_at
FROM profiles WHERE user_id = ?`

	upsertProfileSQL = `INSERT INTO profiles (user_id, weight_kg, height_cm, age_years, activity_minutes, city,
	water_goal_ml, calorie_goal_kcal, logged_water_ml, logged_calories_kcal, burned_calories_kcal, updated_at)
VALUES (:user_id, :weight_kg, :height_cm, :age_years, :activity_minutes, :city,
	:water_goal_ml, :calorie_goal_kcal, :logged_water_ml, :logged_calories_kcal, :burned_calories_kcal, :updated_at)
ON CONFLICT (user_id) DO UPDATE SET
	weight_kg = excluded.weight_kg,
	height_cm = excluded.height_cm,
	age_years = excluded.age_years,
	activity_minutes = excluded.activity_minutes,
	city = excluded.city,
	water_goal_ml = excluded.water_goal_ml,
	calorie_goal_kcal = excluded.calorie_goal_kcal,
	logged_water_ml = excluded.logged_water_ml,
	logged_calories_kcal = excluded.logged_calories_kcal,
	burned_calories_kcal = excluded.burned_calories_kcal,
	updated_at = excluded.updated_at`

	countProfilesSQL = `SELECT COUNT(*) FROM profiles`
)

// SQL stores profiles in postgres or sqlite through sqlx.
type SQL struct {
	db         *sqlx.DB
	selectStmt string
}

// NewSQL wraps an open database that already has the profiles table.
func NewSQL(db *sqlx.DB) (*SQL, error) {
	if db == nil {
		return nil, errors.New("store: nil database")
	}
	return &SQL{db: db, selectStmt: db.Rebind(selectProfileSQL)}, nil
}

// Get loads the profile for userID.
func (s *SQL) Get(ctx context.Context, userID int64) (tracker.Profile, bool, error) {
	var p tracker.Profile
	err := s.db.GetContext(ctx, &p, s.selectStmt, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.Profile{}, false, nil
	}
	if err != nil {
		logger.Error(ctx, logger.CompStore, "get",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return tracker.Profile{}, false, fmt.Errorf("store: get profile: %w", err)
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, true, nil
}

// Save upserts the profile.
func (s *SQL) Save(ctx context.Context, p tracker.Profile) error {
	start := time.Now()
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	if _, err := s.db.NamedExecContext(ctx, upsertProfileSQL, p); err != nil {
		logger.Error(ctx, logger.CompStore, "save",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("store: save profile: %w", err)
	}
	logger.Debug(ctx, logger.CompStore, "save",
		slog.String("status", "ok"),
		slog.Duration("elapsed_ms", logger.Took(start)),
	)
	return nil
}

// Count returns the number of stored profiles.
func (s *SQL) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, countProfilesSQL); err != nil {
		return 0, fmt.Errorf("store: count profiles: %w", err)
	}
	return n, nil
}
