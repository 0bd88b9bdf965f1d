package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PriceHistory is an append-only price observation. Rows are never updated or
// deleted; the latest price of an Item is the row with the newest timestamp.
type PriceHistory struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	ItemID primitive.ObjectID `bson:"item_id"`
	Price  float64            `bson:"price"`
	Ts     primitive.DateTime `bson:"ts"`
}

func (db Database) PriceHistoryInsert(ctx context.Context, ph PriceHistory) (err error) {
	if ph.Ts == 0 {
		ph.Ts = primitive.NewDateTimeFromTime(time.Now())
	}
	_, err = db.Collection(CollectionPriceHistories).InsertOne(ctx, ph)
	return errors.Wrapf(err, "error inserting PriceHistory: %+v", ph)
}

func (db Database) PriceHistoryFindLatest(ctx context.Context, itemID primitive.ObjectID) (PriceHistory, error) {
	var ph PriceHistory
	opts := options.FindOne().SetSort(bson.M{"ts": -1})
	err := db.Collection(CollectionPriceHistories).FindOne(ctx, bson.M{"item_id": itemID}, opts).Decode(&ph)
	return ph, errors.Wrapf(err, "error finding latest PriceHistory for ItemID: %s", itemID.Hex())
}

func (db Database) PriceHistoryFindRange(
	ctx context.Context, itemID primitive.ObjectID, start time.Time, end time.Time,
) ([]PriceHistory, error) {
	var phs []PriceHistory
	opts := options.Find().SetSort(bson.M{"ts": -1})
	cur, err := db.Collection(CollectionPriceHistories).Find(ctx, bson.M{
		"item_id": itemID,
		"ts": bson.M{
			"$gte": primitive.NewDateTimeFromTime(start),
			"$lte": primitive.NewDateTimeFromTime(end),
		},
	}, opts)
	if err != nil {
		return nil, errors.Wrapf(err,
			"error getting cursor to find PriceHistory for ItemID: %s, start: %s, end: %s",
			itemID.Hex(), start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	if err = cur.All(ctx, &phs); err != nil {
		return nil, errors.Wrapf(err,
			"error getting all PriceHistory from cursor for ItemID: %s, start: %s, end: %s",
			itemID.Hex(), start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return phs, nil
}
