package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/avikl/user-admin-be/internal/apierr"
	"github.com/avikl/user-admin-be/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	CreateUser(ctx context.Context, username, email, password string) (models.User, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, page, limit int, search string) ([]models.User, int, error)
	AuthenticateUser(ctx context.Context, email, password string) (models.User, error)
	AuthenticateAdmin(ctx context.Context, email, password string) (models.User, error)
	CountUsers(ctx context.Context) (total, admins int, err error)
}

// UserService provides business logic for user management.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

const userColumns = "id, username, email, password_hash, profile_picture, is_admin, created_at, updated_at"

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.ProfilePicture, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apierr.NotFound("User not found")
		}
		return models.User{}, err
	}
	return user, nil
}

// getUserByEmail retrieves a single user by their email, including the password hash.
// When adminOnly is set, only admin accounts match.
func (s *UserService) getUserByEmail(ctx context.Context, email string, adminOnly bool) (models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	if adminOnly {
		query += " AND is_admin = TRUE"
	}
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

// CreateUser creates a new user account, hashing the password. The isAdmin
// flag is never settable here: admins exist only by direct store
// manipulation.
func (s *UserService) CreateUser(ctx context.Context, username, email, password string) (models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:             uuid.New().String(),
		Username:       username,
		Email:          email,
		PasswordHash:   string(hashedPassword),
		ProfilePicture: models.DefaultProfilePicture,
		IsAdmin:        false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users(id, username, email, password_hash, profile_picture, is_admin, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?)",
		user.ID, user.Username, user.Email, user.PasswordHash, user.ProfilePicture, user.IsAdmin, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, apierr.Conflict("Username or email already exists")
		}
		return models.User{}, err
	}

	return user, nil
}

// UpdateUser applies a partial update: only the patch fields that are
// present are written, and a present password is re-hashed first.
func (s *UserService) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	// Resolve the id first so an unknown user is a NotFound, not a no-op.
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return models.User{}, err
	}

	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}

	if patch.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *patch.Username)
	}
	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, fmt.Errorf("failed to hash password: %w", err)
		}
		sets = append(sets, "password_hash = ?")
		args = append(args, string(hashedPassword))
	}
	if patch.ProfilePicture != nil {
		sets = append(sets, "profile_picture = ?")
		args = append(args, *patch.ProfilePicture)
	}

	args = append(args, id)
	_, err := s.db.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, apierr.Conflict("Username or email already exists")
		}
		return models.User{}, err
	}

	return s.GetUserByID(ctx, id)
}

// DeleteUser removes a user from the database. Deleting an id that does
// not exist is not an error: the operation is idempotent and always
// reports success.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	return err
}

// ListUsers returns the requested page of non-admin users whose username
// or email contains search (case-insensitive, empty matches all), in
// insertion order, along with the total match count. Out-of-range page and
// limit fall back to 1 and 5.
func (s *UserService) ListUsers(ctx context.Context, page, limit int, search string) ([]models.User, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 5
	}

	const where = "WHERE is_admin = FALSE AND (lower(username) LIKE '%' || lower(?) || '%' OR lower(email) LIKE '%' || lower(?) || '%')"

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users "+where, search, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users "+where+" ORDER BY rowid LIMIT ? OFFSET ?",
		search, search, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
			&user.ProfilePicture, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, 0, err
		}
		user.PasswordHash = ""
		users = append(users, user)
	}
	return users, total, rows.Err()
}

// AuthenticateUser verifies a user's credentials.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.getUserByEmail(ctx, email, false)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apierr.Unauthenticated("User not found")
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, apierr.Unauthenticated("wrong credentials")
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// AuthenticateAdmin verifies credentials against admin accounts only. A
// matching non-admin account is indistinguishable from an absent one.
func (s *UserService) AuthenticateAdmin(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.getUserByEmail(ctx, email, true)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apierr.Unauthenticated("Not authorised as admin")
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, apierr.Unauthenticated("wrong credentials")
	}

	user.PasswordHash = ""
	return user, nil
}

// CountUsers returns the total number of accounts and how many are admins.
func (s *UserService) CountUsers(ctx context.Context) (int, int, error) {
	var total, admins int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_admin THEN 1 ELSE 0 END), 0) FROM users").Scan(&total, &admins)
	return total, admins, err
}

// isUniqueViolation reports whether err is the store rejecting a duplicate
// username or email.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
