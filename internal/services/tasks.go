package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"croplands/server/internal/room"
)

// TaskDefinition is one classroom exercise a loot table can hand out.
type TaskDefinition struct {
	ID     string
	Prompt string
	Answer string
}

// Tasks grants pending exercises and evaluates submissions. Definitions
// live in memory; per-user progress is durable.
type Tasks struct {
	store *Store
	defs  map[string]TaskDefinition
}

func NewTasks(store *Store, defs []TaskDefinition) *Tasks {
	indexed := make(map[string]TaskDefinition, len(defs))
	for _, def := range defs {
		indexed[def.ID] = def
	}
	return &Tasks{store: store, defs: indexed}
}

// DefaultTaskDefinitions is the built-in exercise set referenced by the
// default drop tables.
func DefaultTaskDefinitions() []TaskDefinition {
	return []TaskDefinition{
		{ID: "botany-1", Prompt: "How many growth stages does a turnip have?", Answer: "3"},
		{ID: "botany-2", Prompt: "Which soil state do seeds require?", Answer: "tilled"},
		{ID: "geology-1", Prompt: "What material does granite break into?", Answer: "stone"},
	}
}

// Grant marks a task pending for the user. Granting twice is a no-op.
func (t *Tasks) Grant(ctx context.Context, userID, taskID string) error {
	if _, ok := t.defs[taskID]; !ok {
		return room.ErrUnknownTask
	}
	_, err := t.store.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO player_tasks (user_id, task_id, status) VALUES (?, ?, 'pending')`,
		userID, taskID)
	return err
}

// Pending lists the user's unanswered task ids.
func (t *Tasks) Pending(ctx context.Context, userID string) ([]string, error) {
	rows, err := t.store.db.QueryContext(ctx,
		`SELECT task_id FROM player_tasks WHERE user_id = ? AND status = 'pending' ORDER BY task_id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []string
	for rows.Next() {
		var taskID string
		if err := rows.Scan(&taskID); err != nil {
			return nil, err
		}
		pending = append(pending, taskID)
	}
	return pending, rows.Err()
}

// Submit evaluates an answer against a pending task. Answers compare
// case-insensitively after trimming.
func (t *Tasks) Submit(ctx context.Context, userID, taskID, answer string) (room.TaskOutcome, error) {
	def, ok := t.defs[taskID]
	if !ok {
		return room.TaskOutcome{}, room.ErrUnknownTask
	}

	var status string
	err := t.store.db.QueryRowContext(ctx,
		`SELECT status FROM player_tasks WHERE user_id = ? AND task_id = ?`,
		userID, taskID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return room.TaskOutcome{}, room.ErrUnknownTask
	}
	if err != nil {
		return room.TaskOutcome{}, err
	}

	correct := strings.EqualFold(strings.TrimSpace(answer), def.Answer)
	newStatus := "failed"
	detail := "Not quite. Try again after the next one."
	if correct {
		newStatus = "completed"
		detail = "Correct!"
	}
	if _, err := t.store.db.ExecContext(ctx,
		`UPDATE player_tasks SET status = ? WHERE user_id = ? AND task_id = ?`,
		newStatus, userID, taskID); err != nil {
		return room.TaskOutcome{}, fmt.Errorf("update task: %w", err)
	}
	return room.TaskOutcome{TaskID: taskID, Correct: correct, Detail: detail}, nil
}
