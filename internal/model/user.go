package model

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meshly/asset-marketplace/internal/apperror"
	"github.com/meshly/asset-marketplace/internal/utils"
)

// Roles a user account can carry. Role gating on routes compares against
// these values.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ResetTokenTTL bounds how long a password-reset token stays redeemable.
const ResetTokenTTL = 10 * time.Minute

// User is a document in the `users` collection. Password is never
// serialized to JSON; PasswordConfirm is input-only and never persisted.
// Active is the soft-delete flag: deactivated accounts are excluded from
// every read path unless the caller explicitly includes hidden documents.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Photo    string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Role     string             `bson:"role" json:"role"`
	Password string             `bson:"password" json:"-"`

	PasswordConfirm string `bson:"-" json:"passwordConfirm,omitempty"`

	PasswordChangedAt    *time.Time `bson:"passwordChangedAt,omitempty" json:"-"`
	PasswordResetToken   string     `bson:"passwordResetToken,omitempty" json:"-"`
	PasswordResetExpires *time.Time `bson:"passwordResetExpires,omitempty" json:"-"`

	Active    bool      `bson:"active" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// SetID and GetID satisfy the accessor document contract.
func (u *User) SetID(id primitive.ObjectID) { u.ID = id }
func (u *User) GetID() primitive.ObjectID  { return u.ID }

// Validate enforces the user field constraints before the document is
// persisted. Runs as a pre-persist hook on the users accessor.
func (u *User) Validate() error {
	if len(strings.TrimSpace(u.Name)) < 2 {
		return apperror.New("Name must be at least 2 characters long", http.StatusBadRequest)
	}
	if !validEmail(u.Email) {
		return apperror.New("Email is not valid", http.StatusBadRequest)
	}
	if len(u.Password) < 8 && !looksHashed(u.Password) {
		return apperror.New("Password must be at least 8 characters long", http.StatusBadRequest)
	}
	if u.PasswordConfirm != "" && u.PasswordConfirm != u.Password && !looksHashed(u.Password) {
		return apperror.New("Passwords must match", http.StatusBadRequest)
	}
	if u.Role != RoleUser && u.Role != RoleAdmin {
		return apperror.New("Role must be one of: user, admin", http.StatusBadRequest)
	}
	return nil
}

// NormalizeNew fills defaults for a freshly created account.
func (u *User) NormalizeNew() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleUser
	}
	u.Active = true
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
}

// HashPassword replaces the plaintext password with its bcrypt hash and
// clears the confirmation field. Idempotent on an already-hashed password.
func (u *User) HashPassword(cost int) error {
	if looksHashed(u.Password) {
		return nil
	}
	hash, err := utils.HashPassword(u.Password, cost)
	if err != nil {
		return err
	}
	u.Password = hash
	u.PasswordConfirm = ""
	return nil
}

// CheckPassword safely compares the stored bcrypt hash and a candidate.
func CheckPassword(hash, plain string) bool {
	return utils.VerifyPassword(hash, plain)
}

// PasswordChangedAfter reports whether the account's password changed after
// the given token issue time. A token issued before a password change is
// rejected even though its signature is still valid.
func PasswordChangedAfter(u *User, issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	// Compare at second precision; JWT iat carries Unix seconds.
	return u.PasswordChangedAt.Unix() > issuedAt.Unix()
}

// NewResetToken generates the opaque password-reset token. The raw value
// goes to the user out-of-band; only its SHA-256 hex digest plus the expiry
// are stored on the account.
func NewResetToken() (raw, hash string, expires time.Time, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", time.Time{}, err
	}
	raw = hex.EncodeToString(buf)
	hash = HashResetToken(raw)
	expires = time.Now().UTC().Add(ResetTokenTTL)
	return raw, hash, expires, nil
}

// HashResetToken returns the SHA-256 hex digest of a presented reset token.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ResetTokenMatches compares a presented token against the stored hash and
// expiry in constant time.
func ResetTokenMatches(u *User, raw string, now time.Time) bool {
	if u.PasswordResetToken == "" || u.PasswordResetExpires == nil {
		return false
	}
	if now.After(*u.PasswordResetExpires) {
		return false
	}
	presented := HashResetToken(raw)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(u.PasswordResetToken)) == 1
}

// validEmail is a light structural check; uniqueness and the rest is the
// database's business.
func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t\n")
}

// looksHashed detects a bcrypt digest so validation and hashing stay
// idempotent across repeated saves.
func looksHashed(pw string) bool {
	return strings.HasPrefix(pw, "$2a$") || strings.HasPrefix(pw, "$2b$") || strings.HasPrefix(pw, "$2y$")
}
