package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Username       string             `bson:"username"`
	Email          string             `bson:"email"`
	Password       []byte             `bson:"password"`
	GitHubUsername string             `bson:"github_username"`
	LoginTokens    []LoginToken       `bson:"login_tokens"`
	CreatedAt      primitive.DateTime `bson:"created_at"`
	UpdatedAt      primitive.DateTime `bson:"updated_at"`
}

type LoginToken struct {
	TokenID    string             `bson:"token_id"`
	Token      []byte             `bson:"token"`
	Expiration primitive.DateTime `bson:"expiration"`
	CreatedAt  primitive.DateTime `bson:"created_at"`
}

func (db Database) UserInsert(ctx context.Context, u User) (id string, err error) {
	u.LoginTokens = []LoginToken{}
	u.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	u.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	r, err := db.Collection(CollectionUsers).InsertOne(ctx, u)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting User with username: %s", u.Username)
	}
	return r.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (db Database) UserFindByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := db.Collection(CollectionUsers).FindOne(ctx, bson.M{"username": username}).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with username: %s", username)
}

func (db Database) UserFindByGitHubUsername(ctx context.Context, githubUsername string) (User, error) {
	var u User
	err := db.Collection(CollectionUsers).FindOne(ctx, bson.M{"github_username": githubUsername}).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with GitHub username: %s", githubUsername)
}

func (db Database) UserFindByID(ctx context.Context, id string) (User, error) {
	var u User
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return u, errors.Wrapf(err, "error creating ObjectID from hex: %s", id)
	}
	err = db.Collection(CollectionUsers).FindOne(ctx, bson.M{"_id": objID}).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with ID: %s", id)
}

func (db Database) UserAddLoginToken(ctx context.Context, userID string, lt LoginToken) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", userID)
	}

	lt.CreatedAt = primitive.NewDateTimeFromTime(time.Now())

	// Newest token first, keep at most 8 so the list cannot grow unbounded.
	res, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": objID},
		bson.M{"$push": bson.M{
			"login_tokens": bson.M{
				"$each":     []LoginToken{lt},
				"$position": 0,
				"$slice":    8,
			},
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error when adding login token to User with ID: %s", userID)
	}
	if res.ModifiedCount == 0 {
		return errors.Errorf("User not modified when adding login token to User with ID: %s", userID)
	}
	return nil
}

func (db Database) UserRemoveLoginToken(ctx context.Context, userID string, tokenID string) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", userID)
	}

	res, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": objID},
		bson.M{"$pull": bson.M{"login_tokens": bson.M{"token_id": tokenID}}},
	)
	if err != nil {
		return errors.Wrapf(err, "error when removing login token from User with ID: %s, token ID: %s", userID, tokenID)
	}
	if res.ModifiedCount == 0 {
		return errors.Errorf("User not modified when removing login token from User with ID: %s, token ID: %s", userID, tokenID)
	}
	return nil
}

func (db Database) UserGitHubUsernameUpdate(ctx context.Context, userID string, githubUsername string) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", userID)
	}

	_, err = db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{
			"github_username": githubUsername,
			"updated_at":      primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	return errors.Wrapf(err, "error updating GitHub username for User with ID: %s", userID)
}
