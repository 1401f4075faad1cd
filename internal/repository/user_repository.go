package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/meshly/asset-marketplace/internal/model"
)

// UserRepo is the entity accessor for user accounts. Deactivated accounts
// are hidden from every read; passwords are hashed by a pre-persist hook so
// plaintext never reaches the database.
type UserRepo struct {
	*Collection[model.User, *model.User]
}

func NewUserRepo(db *mongo.Database, bcryptCost int) *UserRepo {
	coll := NewCollection[model.User, *model.User](db, "users", bson.M{"active": bson.M{"$ne": false}})
	coll.PreSave(func(ctx context.Context, u *model.User) error {
		return u.HashPassword(bcryptCost)
	})
	return &UserRepo{coll}
}

// CreateUser inserts a new account, translating the unique-email collision
// into ErrEmailExists.
func (r *UserRepo) CreateUser(ctx context.Context, u *model.User) error {
	err := r.Create(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailExists
	}
	return err
}

// FindByEmail fetches a live account by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.Raw().FindOne(ctx, bson.M{
		"email":  email,
		"active": bson.M{"$ne": false},
	}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByResetToken resolves an unexpired password-reset token hash to its
// account.
func (r *UserRepo) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	var u model.User
	err := r.Raw().FindOne(ctx, bson.M{
		"passwordResetToken":   tokenHash,
		"passwordResetExpires": bson.M{"$gt": now},
		"active":               bson.M{"$ne": false},
	}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetResetToken stores the reset token hash and its expiry on the account.
func (r *UserRepo) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error {
	_, err := r.Raw().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"passwordResetToken":   tokenHash,
		"passwordResetExpires": expires,
	}})
	return err
}

// ClearResetToken removes any pending reset token, e.g. after the reset
// email could not be delivered.
func (r *UserRepo) ClearResetToken(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Raw().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$unset": bson.M{
		"passwordResetToken":   "",
		"passwordResetExpires": "",
	}})
	return err
}

// SavePassword rotates the account's password hash, stamps
// passwordChangedAt and clears any pending reset token. The changed-at
// stamp is backdated one second so a session token issued in the same
// second still verifies.
func (r *UserRepo) SavePassword(ctx context.Context, u *model.User) error {
	changedAt := time.Now().UTC().Add(-time.Second)
	_, err := r.Raw().UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{
		"$set": bson.M{
			"password":          u.Password,
			"passwordChangedAt": changedAt,
		},
		"$unset": bson.M{
			"passwordResetToken":   "",
			"passwordResetExpires": "",
		},
	})
	if err == nil {
		u.PasswordChangedAt = &changedAt
	}
	return err
}

// Deactivate soft-deletes an account. Subsequent reads exclude it.
func (r *UserRepo) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Raw().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"active": false}})
	return err
}
