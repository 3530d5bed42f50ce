// Package store reads users, meals and activities from Postgres for the
// analytics service.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"calora/backend/internal/analytics"
)

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type Store struct {
	q Querier
}

func New(q Querier) *Store {
	return &Store{q: q}
}

func (s *Store) GetProfile(ctx context.Context, ownerID string) (analytics.UserProfile, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return analytics.UserProfile{}, analytics.ErrUserNotFound
	}

	var (
		profile analytics.UserProfile
		name    *string
		email   *string
	)
	err := s.q.QueryRow(
		ctx,
		`SELECT id, name, email, daily_calorie_target, goal, weight
		 FROM users
		 WHERE id = $1`,
		ownerID,
	).Scan(&profile.ID, &name, &email, &profile.DailyCalorieTarget, &profile.Goal, &profile.WeightKg)
	if errors.Is(err, pgx.ErrNoRows) {
		return analytics.UserProfile{}, analytics.ErrUserNotFound
	}
	if err != nil {
		return analytics.UserProfile{}, fmt.Errorf("query user %s: %w", ownerID, err)
	}
	if name != nil {
		profile.Name = *name
	}
	if email != nil {
		profile.Email = *email
	}
	return profile, nil
}

// ListMeals returns meals logged in [from, to), newest first.
func (s *Store) ListMeals(ctx context.Context, ownerID string, from, to time.Time) ([]analytics.MealRecord, error) {
	rows, err := s.q.Query(
		ctx,
		`SELECT id, user_id, name, calories, protein, carbs, fats, date, meal_type, quantity, unit
		 FROM meals
		 WHERE user_id = $1
		   AND date >= $2
		   AND date < $3
		 ORDER BY date DESC, id DESC`,
		ownerID,
		from.UTC(),
		to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query meals: %w", err)
	}
	defer rows.Close()

	meals := make([]analytics.MealRecord, 0)
	for rows.Next() {
		var (
			m        analytics.MealRecord
			name     *string
			mealType *string
			unit     *string
		)
		if err := rows.Scan(
			&m.ID,
			&m.OwnerID,
			&name,
			&m.Calories,
			&m.Protein,
			&m.Carbs,
			&m.Fats,
			&m.LoggedAt,
			&mealType,
			&m.Quantity,
			&unit,
		); err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		m.Name = derefString(name)
		m.MealType = derefString(mealType)
		m.Unit = derefString(unit)
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meals: %w", err)
	}
	return meals, nil
}

// ListActivities returns activities logged in [from, to), newest first.
func (s *Store) ListActivities(ctx context.Context, ownerID string, from, to time.Time) ([]analytics.ActivityRecord, error) {
	rows, err := s.q.Query(
		ctx,
		`SELECT id, user_id, type, duration, calories_burned, date
		 FROM activities
		 WHERE user_id = $1
		   AND date >= $2
		   AND date < $3
		 ORDER BY date DESC, id DESC`,
		ownerID,
		from.UTC(),
		to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	activities := make([]analytics.ActivityRecord, 0)
	for rows.Next() {
		var (
			a    analytics.ActivityRecord
			kind *string
		)
		if err := rows.Scan(&a.ID, &a.OwnerID, &kind, &a.DurationMinutes, &a.CaloriesBurned, &a.LoggedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Type = derefString(kind)
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return activities, nil
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
