package data

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const profileColumns = `p.id, p.user_id, p.job, p.birth_date, p.bio, p.profile_picture, p.created_at`

// SQLProfileRepository stores profiles using sqlx.
type SQLProfileRepository struct {
	db *sqlx.DB
}

// NewSQLProfileRepository creates a new SQLProfileRepository.
func NewSQLProfileRepository(db *sqlx.DB) *SQLProfileRepository {
	return &SQLProfileRepository{db: db}
}

// CreateProfile inserts a profile. The unique user_id column rejects a second
// profile per user. A non-nil user has its name and email saved in the same
// transaction.
func (r *SQLProfileRepository) CreateProfile(ctx context.Context, profile *Profile, user *User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO profiles (user_id, job, birth_date, bio, profile_picture, created_at)
		VALUES (:user_id, :job, :birth_date, :bio, :profile_picture, :created_at)`
	res, err := tx.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("failed to execute create profile query: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read profile id: %w", err)
	}
	if err := updateContact(ctx, tx, user); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit profile: %w", err)
	}
	profile.ID = id
	return nil
}

// GetProfileByUserID retrieves the profile of a user.
func (r *SQLProfileRepository) GetProfileByUserID(ctx context.Context, userID int64) (*Profile, error) {
	var profile Profile
	query := `SELECT ` + profileColumns + ` FROM profiles p WHERE p.user_id = ?`
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, notFound(err, "profile for user %d", userID)
	}
	return &profile, nil
}

// GetProfileByUsername retrieves a profile together with its user.
func (r *SQLProfileRepository) GetProfileByUsername(ctx context.Context, username string) (*Profile, error) {
	var profile Profile
	query := `SELECT ` + profileColumns + ` FROM profiles p JOIN users u ON u.id = p.user_id WHERE u.username = ?`
	if err := r.db.GetContext(ctx, &profile, query, username); err != nil {
		return nil, notFound(err, "profile for %q", username)
	}
	users, err := getUsersByIDs(ctx, r.db, []int64{profile.UserID})
	if err != nil {
		return nil, err
	}
	profile.User = users[profile.UserID]
	return &profile, nil
}

// ProfileExists reports whether the user has created a profile.
func (r *SQLProfileRepository) ProfileExists(ctx context.Context, userID int64) (bool, error) {
	ok, err := exists(ctx, r.db, `SELECT COUNT(*) FROM profiles WHERE user_id = ?`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check profile: %w", err)
	}
	return ok, nil
}

// UpdateProfile persists the editable profile fields and, for a non-nil user,
// the user's name and email in one transaction.
func (r *SQLProfileRepository) UpdateProfile(ctx context.Context, profile *Profile, user *User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE profiles SET job = :job, birth_date = :birth_date, bio = :bio, profile_picture = :profile_picture WHERE id = :id`
	result, err := tx.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no profile found to update with id %d: %w", profile.ID, ErrNotFound)
	}
	if err := updateContact(ctx, tx, user); err != nil {
		return err
	}
	return tx.Commit()
}

// updateContact saves the profile-editable user columns.
func updateContact(ctx context.Context, tx *sqlx.Tx, user *User) error {
	if user == nil {
		return nil
	}
	query := `UPDATE users SET email = :email, first_name = :first_name, last_name = :last_name WHERE id = :id`
	result, err := tx.NamedExecContext(ctx, query, user)
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
