package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validUser() User {
	return User{
		Name:            "Ada",
		Email:           "ada@example.com",
		Password:        "longenough",
		PasswordConfirm: "longenough",
		Role:            RoleUser,
	}
}

func TestUserValidate(t *testing.T) {
	u := validUser()
	assert.NoError(t, u.Validate())

	short := validUser()
	short.Name = "A"
	assert.Error(t, short.Validate())

	badMail := validUser()
	badMail.Email = "not-an-email"
	assert.Error(t, badMail.Validate())

	weak := validUser()
	weak.Password = "short"
	weak.PasswordConfirm = "short"
	assert.Error(t, weak.Validate())

	mismatch := validUser()
	mismatch.PasswordConfirm = "different-pass"
	assert.Error(t, mismatch.Validate())

	badRole := validUser()
	badRole.Role = "superadmin"
	assert.Error(t, badRole.Validate())
}

func TestNormalizeNewDefaults(t *testing.T) {
	u := User{Email: "  Ada@Example.COM "}
	u.NormalizeNew()

	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, RoleUser, u.Role)
	assert.True(t, u.Active)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestHashPasswordIsIdempotent(t *testing.T) {
	u := validUser()
	require.NoError(t, u.HashPassword(4))
	first := u.Password
	assert.True(t, CheckPassword(first, "longenough"))
	assert.Empty(t, u.PasswordConfirm)

	// A second save must not re-hash the hash.
	require.NoError(t, u.HashPassword(4))
	assert.Equal(t, first, u.Password)

	// A hashed password still passes validation on later saves.
	assert.NoError(t, u.Validate())
}

func TestPasswordChangedAfter(t *testing.T) {
	issued := time.Now()

	never := validUser()
	assert.False(t, PasswordChangedAfter(&never, issued))

	before := issued.Add(-time.Hour)
	u := validUser()
	u.PasswordChangedAt = &before
	assert.False(t, PasswordChangedAfter(&u, issued))

	after := issued.Add(time.Hour)
	u.PasswordChangedAt = &after
	assert.True(t, PasswordChangedAfter(&u, issued))
}

func TestResetTokenLifecycle(t *testing.T) {
	raw, hash, expires, err := NewResetToken()
	require.NoError(t, err)

	assert.Len(t, raw, 64)
	assert.NotEqual(t, raw, hash)
	assert.Equal(t, HashResetToken(raw), hash)
	assert.WithinDuration(t, time.Now().Add(ResetTokenTTL), expires, 5*time.Second)

	u := validUser()
	u.PasswordResetToken = hash
	u.PasswordResetExpires = &expires

	assert.True(t, ResetTokenMatches(&u, raw, time.Now()))
	assert.False(t, ResetTokenMatches(&u, "deadbeef", time.Now()))
	assert.False(t, ResetTokenMatches(&u, raw, expires.Add(time.Minute)))
}
