package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Wish unlock condition kinds. A Wish with an empty ConditionType has no
// unlock gate and starts unlocked.
const (
	ConditionWeeklyCommits = "weekly_commits"
	ConditionTotalStars    = "total_stars"
)

type Wish struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	UserID        primitive.ObjectID `bson:"user_id"`
	ItemID        primitive.ObjectID `bson:"item_id"`
	TargetPrice   float64            `bson:"target_price"`
	Active        bool               `bson:"active"`
	Unlocked      bool               `bson:"unlocked"`
	ConditionType string             `bson:"condition_type"`
	TargetValue   int                `bson:"target_value"`
	CreatedAt     primitive.DateTime `bson:"created_at"`
	UpdatedAt     primitive.DateTime `bson:"updated_at"`
}

func (db Database) WishInsert(ctx context.Context, w Wish) (id string, err error) {
	w.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	w.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())
	r, err := db.Collection(CollectionWishes).InsertOne(ctx, w)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting Wish for UserID: %s, ItemID: %s", w.UserID.Hex(), w.ItemID.Hex())
	}
	return r.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (db Database) WishFindByUserAndItem(ctx context.Context, userID, itemID primitive.ObjectID) (Wish, error) {
	var w Wish
	err := db.Collection(CollectionWishes).FindOne(ctx, bson.M{"user_id": userID, "item_id": itemID}).Decode(&w)
	return w, errors.Wrapf(err, "error finding Wish for UserID: %s, ItemID: %s", userID.Hex(), itemID.Hex())
}

func (db Database) WishesFindByUser(ctx context.Context, userID primitive.ObjectID) ([]Wish, error) {
	var ws []Wish
	cur, err := db.Collection(CollectionWishes).Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Wishes for UserID: %s", userID.Hex())
	}
	if err = cur.All(ctx, &ws); err != nil {
		return nil, errors.Wrapf(err, "error getting Wishes from cursor for UserID: %s", userID.Hex())
	}
	return ws, nil
}

func (db Database) WishesFindActiveByItem(ctx context.Context, itemID primitive.ObjectID) ([]Wish, error) {
	var ws []Wish
	cur, err := db.Collection(CollectionWishes).Find(ctx, bson.M{"item_id": itemID, "active": true})
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find active Wishes for ItemID: %s", itemID.Hex())
	}
	if err = cur.All(ctx, &ws); err != nil {
		return nil, errors.Wrapf(err, "error getting active Wishes from cursor for ItemID: %s", itemID.Hex())
	}
	return ws, nil
}

// WishesFindLockedByUser returns the user's active wishes that carry an
// unlock condition and have not been unlocked yet.
func (db Database) WishesFindLockedByUser(ctx context.Context, userID primitive.ObjectID) ([]Wish, error) {
	var ws []Wish
	cur, err := db.Collection(CollectionWishes).Find(ctx, bson.M{
		"user_id":        userID,
		"active":         true,
		"unlocked":       false,
		"condition_type": bson.M{"$ne": ""},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find locked Wishes for UserID: %s", userID.Hex())
	}
	if err = cur.All(ctx, &ws); err != nil {
		return nil, errors.Wrapf(err, "error getting locked Wishes from cursor for UserID: %s", userID.Hex())
	}
	return ws, nil
}

// WishUnlock flips a Wish to unlocked. The filter requires unlocked=false so
// the transition is one-way: an already unlocked Wish is never touched.
func (db Database) WishUnlock(ctx context.Context, wishID primitive.ObjectID) error {
	_, err := db.Collection(CollectionWishes).UpdateOne(
		ctx,
		bson.M{"_id": wishID, "unlocked": false},
		bson.M{"$set": bson.M{
			"unlocked":   true,
			"updated_at": primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	return errors.Wrapf(err, "error unlocking Wish with ID: %s", wishID.Hex())
}

func (db Database) WishDelete(ctx context.Context, wishID, userID primitive.ObjectID) (bool, error) {
	res, err := db.Collection(CollectionWishes).DeleteOne(ctx, bson.M{"_id": wishID, "user_id": userID})
	if err != nil {
		return false, errors.Wrapf(err, "error deleting Wish with ID: %s for UserID: %s", wishID.Hex(), userID.Hex())
	}
	return res.DeletedCount > 0, nil
}

func (db Database) WishCountsByUser(ctx context.Context, userID primitive.ObjectID) (total int64, unlocked int64, err error) {
	coll := db.Collection(CollectionWishes)
	total, err = coll.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, 0, errors.Wrapf(err, "error counting Wishes for UserID: %s", userID.Hex())
	}
	unlocked, err = coll.CountDocuments(ctx, bson.M{"user_id": userID, "unlocked": true})
	if err != nil {
		return 0, 0, errors.Wrapf(err, "error counting unlocked Wishes for UserID: %s", userID.Hex())
	}
	return total, unlocked, nil
}
