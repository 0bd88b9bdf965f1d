// Package achievement decides whether a user's GitHub activity satisfies a
// wish's unlock condition, and flips eligible wishes open.
package achievement

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"devwish/internal/database"
)

// MetricSource provides the external activity metrics conditions are judged
// against. Implemented by client.Client.
type MetricSource interface {
	GitHubWeeklyCommitCount(username string) (int, error)
	GitHubTotalStars(ctx context.Context, username string) (int, error)
}

type logger interface {
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

type Checker struct {
	Metrics MetricSource
	Logger  logger
}

// Achieved reports whether the user's current metric meets the target. It
// fails closed: unknown condition kinds, missing usernames and metric fetch
// errors all come back false.
func (c Checker) Achieved(ctx context.Context, username string, conditionType string, targetValue int) bool {
	if username == "" {
		return false
	}

	switch conditionType {
	case database.ConditionWeeklyCommits:
		current, err := c.Metrics.GitHubWeeklyCommitCount(username)
		if err != nil {
			c.Logger.Errorf("achievement: Error getting weekly commit count for user: %s, err: %v", username, err)
			return false
		}
		c.Logger.Infof("achievement: User: %s has %d commit(s) this week, target: %d", username, current, targetValue)
		return current >= targetValue

	case database.ConditionTotalStars:
		current, err := c.Metrics.GitHubTotalStars(ctx, username)
		if err != nil {
			c.Logger.Errorf("achievement: Error getting total star count for user: %s, err: %v", username, err)
			return false
		}
		c.Logger.Infof("achievement: User: %s has %d star(s) in total, target: %d", username, current, targetValue)
		return current >= targetValue

	default:
		c.Logger.Warnf("achievement: Unknown condition type: %s", conditionType)
		return false
	}
}

// ConditionDescription renders a condition for notification text.
func ConditionDescription(conditionType string, targetValue int) string {
	switch conditionType {
	case database.ConditionWeeklyCommits:
		return fmt.Sprintf("at least %d commit(s) in the last week", targetValue)
	case database.ConditionTotalStars:
		return fmt.Sprintf("at least %d star(s) across your repositories", targetValue)
	default:
		return conditionType
	}
}

// WishStore is the slice of persistence the unlock sweep needs.
type WishStore interface {
	WishesFindLockedByUser(ctx context.Context, userID primitive.ObjectID) ([]database.Wish, error)
	WishUnlock(ctx context.Context, wishID primitive.ObjectID) error
	ItemFindByID(ctx context.Context, itemID primitive.ObjectID) (database.Item, error)
}

type Notifier interface {
	UnlockCongrats(ctx context.Context, userID string, itemTitle string, itemURL string, conditionDesc string)
}

// UnlockEligible checks every locked conditioned wish of the user and
// unlocks the ones whose condition is met, sending one unlock notification
// each. The transition is one-way; already unlocked wishes are never visited
// again. A failure on one wish does not stop the sweep.
func (c Checker) UnlockEligible(ctx context.Context, store WishStore, notifier Notifier, user database.User) (int, error) {
	wishes, err := store.WishesFindLockedByUser(ctx, user.ID)
	if err != nil {
		return 0, err
	}

	unlocked := 0
	for _, w := range wishes {
		if !c.Achieved(ctx, user.GitHubUsername, w.ConditionType, w.TargetValue) {
			continue
		}
		if err := store.WishUnlock(ctx, w.ID); err != nil {
			c.Logger.Errorf("achievement: Error unlocking Wish with ID: %s, err: %v", w.ID.Hex(), err)
			continue
		}
		unlocked++

		itemTitle, itemURL := "", ""
		if item, err := store.ItemFindByID(ctx, w.ItemID); err != nil {
			c.Logger.Errorf("achievement: Error finding Item with ID: %s for unlocked Wish, err: %v", w.ItemID.Hex(), err)
		} else {
			itemTitle, itemURL = item.Title, item.URL
		}
		notifier.UnlockCongrats(ctx, user.ID.Hex(), itemTitle, itemURL, ConditionDescription(w.ConditionType, w.TargetValue))
	}
	return unlocked, nil
}
