package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Analysis stores a generated GitHub profile report. The report payload is
// kept as raw JSON; only the username and timestamp are queried.
type Analysis struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	GitHubUsername string             `bson:"github_username"`
	AvatarURL      string             `bson:"avatar_url"`
	Report         string             `bson:"report"`
	Ts             primitive.DateTime `bson:"ts"`
}

func (db Database) AnalysisInsert(ctx context.Context, a Analysis) error {
	if a.Ts == 0 {
		a.Ts = primitive.NewDateTimeFromTime(time.Now())
	}
	_, err := db.Collection(CollectionAnalyses).InsertOne(ctx, a)
	return errors.Wrapf(err, "error inserting Analysis for GitHub username: %s", a.GitHubUsername)
}

func (db Database) AnalysisFindLatest(ctx context.Context, githubUsername string) (Analysis, error) {
	var a Analysis
	opts := options.FindOne().SetSort(bson.M{"ts": -1})
	err := db.Collection(CollectionAnalyses).FindOne(ctx, bson.M{"github_username": githubUsername}, opts).Decode(&a)
	return a, errors.Wrapf(err, "error finding latest Analysis for GitHub username: %s", githubUsername)
}
