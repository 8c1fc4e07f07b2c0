package services_test

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/avikl/user-admin-be/internal/apierr"
	"github.com/avikl/user-admin-be/internal/database"
	"github.com/avikl/user-admin-be/internal/models"
	"github.com/avikl/user-admin-be/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err, "Failed to open in-memory database")
	// A single connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { db.Close() })
	return db
}

func makeAdmin(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec("UPDATE users SET is_admin = TRUE WHERE id = ?", id)
	require.NoError(t, err)
}

func storedHash(t *testing.T, db *sql.DB, id string) string {
	t.Helper()
	var hash string
	require.NoError(t, db.QueryRow("SELECT password_hash FROM users WHERE id = ?", id).Scan(&hash))
	return hash
}

func TestCreateUserHashesPassword(t *testing.T) {
	db := setupDB(t)
	svc := services.NewUserService(db)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.IsAdmin)
	assert.Equal(t, models.DefaultProfilePicture, user.ProfilePicture)

	hash := storedHash(t, db, user.ID)
	assert.NotEqual(t, "secret1", hash, "password must never be stored in plaintext")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret1")))
}

func TestCreateUserConflicts(t *testing.T) {
	db := setupDB(t)
	svc := services.NewUserService(db)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)

	testCases := []struct {
		name     string
		username string
		email    string
	}{
		{name: "duplicate username", username: "alice", email: "other@x.com"},
		{name: "duplicate email", username: "other", email: "a@x.com"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, tc.username, tc.email, "secret1")
			var apiErr *apierr.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
		})
	}
}

func TestAuthenticateUser(t *testing.T) {
	db := setupDB(t)
	svc := services.NewUserService(db)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		user, err := svc.AuthenticateUser(ctx, "a@x.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
		assert.Empty(t, user.PasswordHash)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.AuthenticateUser(ctx, "nobody@x.com", "secret1")
		var apiErr *apierr.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "User not found", apiErr.Message)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.AuthenticateUser(ctx, "a@x.com", "nope")
		var apiErr *apierr.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "wrong credentials", apiErr.Message)
	})
}

func TestAuthenticateAdmin(t *testing.T) {
	db := setupDB(t)
	svc := services.NewUserService(db)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "bob", "b@x.com", "secret1")
	require.NoError(t, err)

	// A correct-password non-admin must be rejected exactly like an
	// absent account.
	_, err = svc.AuthenticateAdmin(ctx, "b@x.com", "secret1")
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Not authorised as admin", apiErr.Message)

	makeAdmin(t, db, user.ID)

	admin, err := svc.AuthenticateAdmin(ctx, "b@x.com", "secret1")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.Empty(t, admin.PasswordHash)

	_, err = svc.AuthenticateAdmin(ctx, "b@x.com", "nope")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "wrong credentials", apiErr.Message)
}

func seedUsers(t *testing.T, svc *services.UserService, n int) []models.User {
	t.Helper()
	ctx := context.Background()
	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := svc.CreateUser(ctx, fmt.Sprintf("user%02d", i), fmt.Sprintf("user%02d@x.com", i), "secret1")
		require.NoError(t, err)
		users = append(users, user)
	}
	return users
}

func TestListUsersPagination(t *testing.T) {
	db := setupDB(t)
	svc := services.NewUserService(db)
	ctx := context.Background()

	seeded := seedUsers(t, svc, 12)

	// An admin account must never show up in the listing.
	admin, err := svc.CreateUser(ctx, "root", "root@x.com", "secret1")
	require.NoError(t, err)
	makeAdmin(t, db, admin.ID)

	page, total, err := svc.ListUsers(ctx, 2, 5, "")
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, page, 5)
	// Page 2 at limit 5 is the 6th through 10th user in insertion order.
	for i, user := range page {
		assert.Equal(t, seeded[5+i].ID, user.ID)
		assert.Empty(t, user.PasswordHash)
	}

	// Last page is the remainder.
	page, total, err = svc.ListUsers(ctx, 3, 5, "")
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, page, 2)

	// Past the end: empty page, same totals.
	page, _, err = svc.ListUsers(ctx, 4, 5, "")
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestListUsersSearch(t *testing.T) {
	db := setupDB(t)
	svc := services.NewUserService(db)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "Alice", "alice@wonder.org", "secret1")
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "bob", "bob@x.com", "secret1")
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "carol", "CAROL@ALICEMAIL.com", "secret1")
	require.NoError(t, err)

	testCases := []struct {
		name     string
		search   string
		expected []string
	}{
		{name: "matches username case-insensitively", search: "aLiC", expected: []string{"Alice", "carol"}},
		{name: "matches email case-insensitively", search: "x.com", expected: []string{"bob"}},
		{name: "empty search matches all", search: "", expected: []string{"Alice", "bob", "carol"}},
		{name: "no match", search: "zzz", expected: nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			users, total, err := svc.ListUsers(ctx, 1, 10, tc.search)
			require.NoError(t, err)
			assert.Equal(t, len(tc.expected), total)
			var names []string
			for _, user := range users {
				names = append(names, user.Username)
			}
			assert.Equal(t, tc.expected, names)
		})
	}
}

func TestUpdateUserPartialPatch(t *testing.T) {
	db := setupDB(t)
	svc := services.NewUserService(db)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)
	originalHash := storedHash(t, db, user.ID)

	email := "new@x.com"
	updated, err := svc.UpdateUser(ctx, user.ID, models.UserPatch{Email: &email})
	require.NoError(t, err)

	// Only the patched field changes.
	assert.Equal(t, "new@x.com", updated.Email)
	assert.Equal(t, "alice", updated.Username)
	assert.Equal(t, originalHash, storedHash(t, db, user.ID))

	// A patched password is re-hashed before storage.
	password := "secret2"
	_, err = svc.UpdateUser(ctx, user.ID, models.UserPatch{Password: &password})
	require.NoError(t, err)
	newHash := storedHash(t, db, user.ID)
	assert.NotEqual(t, originalHash, newHash)
	assert.NotEqual(t, "secret2", newHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(newHash), []byte("secret2")))
}

func TestUpdateUserNotFound(t *testing.T) {
	db := setupDB(t)
	svc := services.NewUserService(db)

	username := "ghost"
	_, err := svc.UpdateUser(context.Background(), "no-such-id", models.UserPatch{Username: &username})
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "User not found", apiErr.Message)
}

func TestDeleteUser(t *testing.T) {
	db := setupDB(t)
	svc := services.NewUserService(db)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, user.ID))
	_, err = svc.GetUserByID(ctx, user.ID)
	assert.Error(t, err)

	// Deleting an unknown id reports success. This is contract, not an
	// oversight: the operation is idempotent.
	assert.NoError(t, svc.DeleteUser(ctx, "no-such-id"))
}

func TestCountUsers(t *testing.T) {
	db := setupDB(t)
	svc := services.NewUserService(db)
	ctx := context.Background()

	seedUsers(t, svc, 3)
	admin, err := svc.CreateUser(ctx, "root", "root@x.com", "secret1")
	require.NoError(t, err)
	makeAdmin(t, db, admin.ID)

	total, admins, err := svc.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, 1, admins)
}
