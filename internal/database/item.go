package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Item is a platform product shared by every Wish that references its URL.
// Items are never deleted when a Wish goes away.
type Item struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	PlatformItemID string             `bson:"platform_item_id" json:"platform_item_id"`
	URL            string             `bson:"url" json:"url"`
	Title          string             `bson:"title" json:"title"`
	ImageURL       string             `bson:"image_url" json:"image_url"`
	Platform       string             `bson:"platform" json:"platform"`
	CreatedAt      primitive.DateTime `bson:"created_at" json:"-"`
	UpdatedAt      primitive.DateTime `bson:"updated_at" json:"-"`
}

func (db Database) ItemInsert(ctx context.Context, i Item) (id string, err error) {
	i.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	i.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())
	r, err := db.Collection(CollectionItems).InsertOne(ctx, i)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting Item: %+v", i)
	}
	return r.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (db Database) ItemFindByURL(ctx context.Context, url string) (Item, error) {
	var i Item
	err := db.Collection(CollectionItems).FindOne(ctx, bson.M{"url": url}).Decode(&i)
	return i, errors.Wrapf(err, "error finding Item with URL: %s", url)
}

func (db Database) ItemFindByID(ctx context.Context, itemID primitive.ObjectID) (Item, error) {
	var i Item
	err := db.Collection(CollectionItems).FindOne(ctx, bson.M{"_id": itemID}).Decode(&i)
	return i, errors.Wrapf(err, "error finding Item with ID: %s", itemID.Hex())
}

func (db Database) ItemsFind(ctx context.Context, itemIDs []primitive.ObjectID) ([]Item, error) {
	var is []Item
	cur, err := db.Collection(CollectionItems).Find(ctx, bson.M{"_id": bson.M{"$in": itemIDs}})
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Items, itemIDs: %v", itemIDs)
	}
	if err = cur.All(ctx, &is); err != nil {
		return nil, errors.Wrapf(err, "error getting Items from cursor, itemIDs: %v", itemIDs)
	}
	return is, nil
}

// ItemsWithActiveWishes returns every distinct Item that at least one active
// Wish references. The monitor checks each of these at most once per run.
func (db Database) ItemsWithActiveWishes(ctx context.Context) ([]Item, error) {
	ids, err := db.Collection(CollectionWishes).Distinct(ctx, "item_id", bson.M{"active": true})
	if err != nil {
		return nil, errors.Wrap(err, "error getting distinct ItemIDs from active Wishes")
	}

	itemIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, ok := id.(primitive.ObjectID); ok {
			itemIDs = append(itemIDs, objID)
		}
	}
	if len(itemIDs) == 0 {
		return nil, nil
	}
	return db.ItemsFind(ctx, itemIDs)
}
