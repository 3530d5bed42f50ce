package store

import (
	"context"
	"fmt"
	"strings"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT,
		email TEXT,
		daily_calorie_target INTEGER,
		goal TEXT,
		weight DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS meals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT,
		calories INTEGER,
		protein INTEGER,
		carbs INTEGER,
		fats INTEGER,
		date TIMESTAMPTZ,
		meal_type TEXT,
		quantity DOUBLE PRECISION,
		unit TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS meals_user_date_idx ON meals (user_id, date)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type TEXT,
		duration INTEGER,
		calories_burned INTEGER,
		date TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS activities_user_date_idx ON activities (user_id, date)`,
}

// EnsureSchema creates the tables the store reads when they are missing.
// Existing tables are left untouched.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, stmt := range schemaStatements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// ValidateRuntimeSchema fails fast at startup when a column the store
// selects is missing.
func ValidateRuntimeSchema(ctx context.Context, q Querier) error {
	if q == nil {
		return fmt.Errorf("database querier is nil")
	}

	requiredColumns := []struct {
		table  string
		column string
	}{
		{table: "users", column: "daily_calorie_target"},
		{table: "users", column: "goal"},
		{table: "users", column: "weight"},
		{table: "meals", column: "date"},
		{table: "meals", column: "calories"},
		{table: "meals", column: "meal_type"},
		{table: "meals", column: "quantity"},
		{table: "meals", column: "unit"},
		{table: "activities", column: "date"},
		{table: "activities", column: "duration"},
		{table: "activities", column: "calories_burned"},
	}

	for _, item := range requiredColumns {
		ok, err := columnExists(ctx, q, item.table, item.column)
		if err != nil {
			return fmt.Errorf("failed checking schema for %s.%s: %w", item.table, item.column, err)
		}
		if !ok {
			return fmt.Errorf("required column %s.%s is missing; run with DB_AUTO_MIGRATE=true or apply the schema", item.table, item.column)
		}
	}
	return nil
}

func columnExists(ctx context.Context, q Querier, tableName, columnName string) (bool, error) {
	table := strings.TrimSpace(tableName)
	column := strings.TrimSpace(columnName)
	if table == "" || column == "" {
		return false, fmt.Errorf("table/column must not be empty")
	}
	var exists bool
	err := q.QueryRow(
		ctx,
		`SELECT EXISTS (
		   SELECT 1
		   FROM information_schema.columns
		   WHERE table_schema = current_schema()
		     AND lower(table_name) = lower($1)
		     AND lower(column_name) = lower($2)
		 )`,
		table,
		column,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
