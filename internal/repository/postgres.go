// Package repository provides PostgreSQL persistence for user tasks.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"taskpulse/internal/task"
)

// TaskRepository loads the task history the analytics functions consume.
type TaskRepository interface {
	GetTasksForUser(ctx context.Context, userID string, since time.Time) ([]task.Record, error)
	GetRecentUserIDs(ctx context.Context, since time.Time) ([]string, error)
	Close() error
}

type PostgresTaskRepository struct {
	db *sql.DB
}

func NewPostgresTaskRepository(connectionString string) (*PostgresTaskRepository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresTaskRepository{db: db}, nil
}

func (r *PostgresTaskRepository) GetTasksForUser(ctx context.Context, userID string, since time.Time) ([]task.Record, error) {
	query := `
		SELECT
			task_id, user_id, title, status, priority, tags,
			created_at, updated_at, completed_at, due_date,
			estimated_hours, actual_hours
		FROM tasks
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var records []task.Record
	for rows.Next() {
		var rec task.Record
		var tags pq.StringArray
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Title,
			&rec.Status,
			&rec.Priority,
			&tags,
			&rec.CreatedAt,
			&rec.UpdatedAt,
			&rec.CompletedAt,
			&rec.DueDate,
			&rec.EstimatedHours,
			&rec.ActualHours,
		); err != nil {
			// A malformed row should not poison the whole history fetch.
			log.Printf("skipping unreadable task row for user %s: %v", userID, err)
			continue
		}
		rec.Tags = tags

		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *PostgresTaskRepository) GetRecentUserIDs(ctx context.Context, since time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT user_id
		FROM tasks
		WHERE created_at >= $1 OR updated_at >= $1
		ORDER BY user_id
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		users = append(users, id)
	}

	return users, rows.Err()
}

func (r *PostgresTaskRepository) Close() error {
	return r.db.Close()
}
