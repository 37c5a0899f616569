package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"userauth/api/internal/models"
	"userauth/api/internal/security"
)

type MongoUserRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoUserRepository(db *mongo.Database, collection string) *MongoUserRepository {
	return &MongoUserRepository{
		col: db.Collection(collection),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the unique email index the duplicate check relies on
// when two registrations race.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Create(ctx context.Context, input models.NewUser) (string, error) {
	user, err := buildUser(input, r.now())
	if err != nil {
		return "", err
	}

	if _, err := r.col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrEmailTaken
		}
		return "", err
	}
	return user.ID, nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) SetRefreshToken(ctx context.Context, id string, token string, expiresAt time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{
			"refreshToken":          token,
			"refreshTokenExpiresAt": expiresAt,
			"updatedAt":             r.now(),
		},
	})
}

func (r *MongoUserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{
		"$unset": bson.M{"refreshToken": "", "refreshTokenExpiresAt": ""},
		"$set":   bson.M{"updatedAt": r.now()},
	})
}

func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id string, password string) error {
	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{"password": hash, "updatedAt": r.now()},
	})
}

func (r *MongoUserRepository) ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"refreshTokenExpiresAt": bson.M{"$lte": now}},
		bson.M{
			"$unset": bson.M{"refreshToken": "", "refreshTokenExpiresAt": ""},
			"$set":   bson.M{"updatedAt": r.now()},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoUserRepository) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, readpref.Primary())
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *MongoUserRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
