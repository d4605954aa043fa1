package services

import (
	"context"
	"database/sql"
	"errors"
)

// Classrooms answers membership checks for room join gating.
type Classrooms struct {
	store *Store
}

func NewClassrooms(store *Store) *Classrooms {
	return &Classrooms{store: store}
}

// AddMember enrolls a user. Enrollment is idempotent.
func (c *Classrooms) AddMember(ctx context.Context, userID, classroomID string) error {
	_, err := c.store.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO classroom_members (user_id, classroom_id) VALUES (?, ?)`,
		userID, classroomID)
	return err
}

// RemoveMember withdraws a user from a classroom.
func (c *Classrooms) RemoveMember(ctx context.Context, userID, classroomID string) error {
	_, err := c.store.db.ExecContext(ctx,
		`DELETE FROM classroom_members WHERE user_id = ? AND classroom_id = ?`,
		userID, classroomID)
	return err
}

// IsUserInClassroom reports whether the user may join the classroom's room.
func (c *Classrooms) IsUserInClassroom(ctx context.Context, userID, classroomID string) (bool, error) {
	var one int
	err := c.store.db.QueryRowContext(ctx,
		`SELECT 1 FROM classroom_members WHERE user_id = ? AND classroom_id = ?`,
		userID, classroomID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
