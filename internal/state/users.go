package state

import (
	"database/sql"
	"fmt"
	"time"
)

// User is a minimal persisted user record, enough to validate requesters and
// own commitments.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	OrgID     string    `json:"org_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUser persists a new user.
func (db *DB) CreateUser(u *User) error {
	_, err := db.Exec(`
		INSERT INTO users (id, email, name, org_id, created_at) VALUES (?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.Name, u.OrgID, formatTime(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID. Returns (nil, nil) if not found.
func (db *DB) GetUser(id string) (*User, error) {
	row := db.QueryRow(`SELECT id, email, name, org_id, created_at FROM users WHERE id = ?`, id)

	var u User
	var createdAt string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.OrgID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt, _ = parseTime(createdAt)
	return &u, nil
}

// GetUserByEmail retrieves a user by email address. Returns (nil, nil) if not found.
func (db *DB) GetUserByEmail(email string) (*User, error) {
	row := db.QueryRow(`SELECT id, email, name, org_id, created_at FROM users WHERE email = ?`, email)

	var u User
	var createdAt string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.OrgID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	u.CreatedAt, _ = parseTime(createdAt)
	return &u, nil
}

// ResolveAddress maps a participant email address to a user ID. The second
// return is false when no user carries the address.
func (db *DB) ResolveAddress(address string) (string, bool) {
	u, err := db.GetUserByEmail(address)
	if err != nil || u == nil {
		return "", false
	}
	return u.ID, true
}
