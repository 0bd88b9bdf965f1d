// Package monitor runs the periodic price scan over every Item with at least
// one active Wish.
package monitor

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"devwish/internal/database"
	"devwish/internal/misc"
	"devwish/internal/platform"
)

// Store is the slice of persistence a monitor run touches.
type Store interface {
	ItemsWithActiveWishes(ctx context.Context) ([]database.Item, error)
	WishesFindActiveByItem(ctx context.Context, itemID primitive.ObjectID) ([]database.Wish, error)
	PriceHistoryInsert(ctx context.Context, ph database.PriceHistory) error
}

type Notifier interface {
	PriceAlert(ctx context.Context, userID string, itemTitle string, currentPrice float64, targetPrice float64)
}

type logger interface {
	Info(v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

// Monitor is constructed once at startup and owned by the process lifecycle;
// it holds no global state.
type Monitor struct {
	Store     Store
	Platforms *platform.Registry
	Notifier  Notifier
	Logger    logger
	Interval  time.Duration
}

// Run blocks until ctx is cancelled, scanning on a fixed interval. A single
// goroutine consumes the ticker, so runs never overlap: while a slow run is
// in flight the ticker drops its ticks and the next scan starts at the
// following trigger.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	m.Logger.Infof("monitor: Started with interval: %v", m.Interval)
	for {
		select {
		case <-ctx.Done():
			m.Logger.Info("monitor: Stopped")
			return
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single best-effort scan. It never returns an error:
// per-item failures are logged and the loop moves on, so one broken platform
// cannot starve the others. Only a failure to list the items at all aborts
// the run, and the next trigger retries from scratch.
func (m *Monitor) RunOnce(ctx context.Context) {
	m.Logger.Info("monitor: Starting price scan")
	items, err := m.Store.ItemsWithActiveWishes(ctx)
	if err != nil {
		m.Logger.Errorf("monitor: Error getting Items with active Wishes, aborting run, err: %v", err)
		return
	}
	m.Logger.Infof("monitor: Retrieved %d Item(s) to check", len(items))

	recorded, alerts := 0, 0
	for _, i := range items {
		ok, n := m.checkItem(ctx, i)
		if ok {
			recorded++
		}
		alerts += n
	}
	m.Logger.Infof("monitor: Finished price scan, checked: %d, recorded: %d, alert(s) sent: %d",
		len(items), recorded, alerts)
}

func (m *Monitor) checkItem(ctx context.Context, i database.Item) (recorded bool, alerts int) {
	itemTitle := misc.StringLimit(i.Title, 45)

	adapter := m.Platforms.Resolve(i.URL)
	if adapter == nil {
		m.Logger.Warnf("monitor: No platform adapter for Item: %s, URL: %s, skipping", itemTitle, i.URL)
		return false, 0
	}

	m.Logger.Infof("monitor: Checking Item: %s, platform: %s, ID: %s", itemTitle, adapter.Name(), i.ID.Hex())
	data, err := adapter.FetchItemDetails(i.PlatformItemID, i.URL)
	if err != nil {
		m.Logger.Errorf("monitor: Error fetching details for Item: %s, ID: %s, err: %v", itemTitle, i.ID.Hex(), err)
		return false, 0
	}
	// A price of 0 means free and is recorded; only an unavailable price is
	// skipped.
	if !data.Price.Available {
		m.Logger.Warnf("monitor: Price unavailable for Item: %s, ID: %s, skipping record and alerts", itemTitle, i.ID.Hex())
		return false, 0
	}

	ph := database.PriceHistory{
		ItemID: i.ID,
		Price:  data.Price.Amount,
		Ts:     primitive.NewDateTimeFromTime(time.Now()),
	}
	if err = m.Store.PriceHistoryInsert(ctx, ph); err != nil {
		m.Logger.Errorf("monitor: Error inserting PriceHistory for Item: %s, ID: %s, err: %v", itemTitle, i.ID.Hex(), err)
		return false, 0
	}
	m.Logger.Infof("monitor: Recorded price %.2f for Item: %s, ID: %s", data.Price.Amount, itemTitle, i.ID.Hex())

	wishes, err := m.Store.WishesFindActiveByItem(ctx, i.ID)
	if err != nil {
		m.Logger.Errorf("monitor: Error getting active Wishes for Item: %s, ID: %s, err: %v", itemTitle, i.ID.Hex(), err)
		return true, 0
	}
	for _, w := range wishes {
		// Alerts are re-sent every run while the price stays at or below
		// target; there is no suppression of repeats.
		if data.Price.Amount <= w.TargetPrice {
			m.Notifier.PriceAlert(ctx, w.UserID.Hex(), i.Title, data.Price.Amount, w.TargetPrice)
			alerts++
		}
	}
	return true, alerts
}
