package data

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, is_active, last_login, date_joined`

// SQLUserRepository stores accounts using sqlx.
type SQLUserRepository struct {
	db *sqlx.DB
}

// NewSQLUserRepository creates a new SQLUserRepository.
func NewSQLUserRepository(db *sqlx.DB) *SQLUserRepository {
	return &SQLUserRepository{db: db}
}

// CreateUser inserts a user and sets its ID.
func (r *SQLUserRepository) CreateUser(ctx context.Context, user *User) error {
	query := `INSERT INTO users (username, email, first_name, last_name, password_hash, is_active, last_login, date_joined)
		VALUES (:username, :email, :first_name, :last_name, :password_hash, :is_active, :last_login, :date_joined)`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("failed to execute create user query: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetUserByID retrieves a user by primary key.
func (r *SQLUserRepository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, notFound(err, "user with id %d", id)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *SQLUserRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, notFound(err, "user %q", username)
	}
	return &user, nil
}

// GetUserByEmail retrieves the oldest account registered with the email.
func (r *SQLUserRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? ORDER BY id LIMIT 1`
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, notFound(err, "user with email %q", email)
	}
	return &user, nil
}

// EmailExists reports whether any account, active or pending, uses the email.
func (r *SQLUserRepository) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	ok, err := exists(ctx, r.db, `SELECT COUNT(*) FROM users WHERE email = ? AND id <> ?`, email, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return ok, nil
}

// UsernameExists reports whether the username is taken.
func (r *SQLUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	ok, err := exists(ctx, r.db, `SELECT COUNT(*) FROM users WHERE username = ?`, username)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return ok, nil
}

// UpdateUser persists every mutable user column.
func (r *SQLUserRepository) UpdateUser(ctx context.Context, user *User) error {
	query := `UPDATE users SET email = :email, first_name = :first_name, last_name = :last_name,
		password_hash = :password_hash, is_active = :is_active, last_login = :last_login WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no user found to update with id %d: %w", user.ID, ErrNotFound)
	}
	return nil
}

// DeleteUser removes a user; profiles, pages and blogs cascade.
func (r *SQLUserRepository) DeleteUser(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no user found to delete with id %d: %w", id, ErrNotFound)
	}
	return nil
}

// getUsersByIDs loads the users referenced by content rows.
func getUsersByIDs(ctx context.Context, db *sqlx.DB, ids []int64) (map[int64]*User, error) {
	users := make(map[int64]*User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	query, args, err := in(db, `SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []*User
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for _, u := range rows {
		users[u.ID] = u
	}
	return users, nil
}
