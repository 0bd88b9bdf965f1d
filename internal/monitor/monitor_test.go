package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"devwish/internal/database"
	"devwish/internal/platform"
)

type fakeStore struct {
	items     []database.Item
	wishes    map[primitive.ObjectID][]database.Wish
	listErr   error
	insertErr error

	history []database.PriceHistory
}

func (s *fakeStore) ItemsWithActiveWishes(ctx context.Context) ([]database.Item, error) {
	return s.items, s.listErr
}

func (s *fakeStore) WishesFindActiveByItem(ctx context.Context, itemID primitive.ObjectID) ([]database.Wish, error) {
	return s.wishes[itemID], nil
}

func (s *fakeStore) PriceHistoryInsert(ctx context.Context, ph database.PriceHistory) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.history = append(s.history, ph)
	return nil
}

type fakeAdapter struct {
	name     string
	data     platform.ItemData
	fetchErr error

	fetches int
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) ExtractItemID(url string) (string, error) { return "1", nil }

func (a *fakeAdapter) FetchItemDetails(itemID string, url string) (platform.ItemData, error) {
	a.fetches++
	if a.fetchErr != nil {
		return platform.ItemData{}, a.fetchErr
	}
	return a.data, nil
}

type alert struct {
	userID       string
	currentPrice float64
	targetPrice  float64
}

type fakeNotifier struct {
	alerts []alert
}

func (n *fakeNotifier) PriceAlert(ctx context.Context, userID string, itemTitle string, currentPrice float64, targetPrice float64) {
	n.alerts = append(n.alerts, alert{userID: userID, currentPrice: currentPrice, targetPrice: targetPrice})
}

type nopLogger struct{}

func (nopLogger) Info(v ...any)                  {}
func (nopLogger) Infof(format string, v ...any)  {}
func (nopLogger) Warnf(format string, v ...any)  {}
func (nopLogger) Errorf(format string, v ...any) {}

func testItem(url string) database.Item {
	return database.Item{
		ID:             primitive.NewObjectID(),
		PlatformItemID: "1",
		URL:            url,
		Title:          "Test Game",
	}
}

func testWish(itemID primitive.ObjectID, targetPrice float64) database.Wish {
	return database.Wish{
		ID:          primitive.NewObjectID(),
		UserID:      primitive.NewObjectID(),
		ItemID:      itemID,
		TargetPrice: targetPrice,
		Active:      true,
	}
}

func newTestMonitor(store *fakeStore, adapter *fakeAdapter, notifier *fakeNotifier) *Monitor {
	reg := platform.NewRegistry()
	reg.Register("store.example.com", adapter)
	return &Monitor{
		Store:     store,
		Platforms: reg,
		Notifier:  notifier,
		Logger:    nopLogger{},
		Interval:  time.Hour,
	}
}

func TestRunOnceRecordsPriceAndAlerts(t *testing.T) {
	t.Parallel()
	item := testItem("https://store.example.com/app/1")
	store := &fakeStore{
		items:  []database.Item{item},
		wishes: map[primitive.ObjectID][]database.Wish{item.ID: {testWish(item.ID, 200)}},
	}
	adapter := &fakeAdapter{name: "fake", data: platform.ItemData{
		Title: "Test Game", Price: platform.Price{Amount: 150, Available: true},
	}}
	notifier := &fakeNotifier{}

	newTestMonitor(store, adapter, notifier).RunOnce(context.Background())

	if got, want := len(store.history), 1; got != want {
		t.Fatalf("price history rows = %d, want %d", got, want)
	}
	if got, want := store.history[0].Price, 150.0; got != want {
		t.Errorf("recorded price = %v, want %v", got, want)
	}
	if got, want := len(notifier.alerts), 1; got != want {
		t.Fatalf("alerts = %d, want %d", got, want)
	}
	if got, want := notifier.alerts[0].currentPrice, 150.0; got != want {
		t.Errorf("alert price = %v, want %v", got, want)
	}
}

func TestRunOnceAboveTargetRecordsWithoutAlert(t *testing.T) {
	t.Parallel()
	item := testItem("https://store.example.com/app/1")
	store := &fakeStore{
		items:  []database.Item{item},
		wishes: map[primitive.ObjectID][]database.Wish{item.ID: {testWish(item.ID, 200)}},
	}
	adapter := &fakeAdapter{name: "fake", data: platform.ItemData{
		Price: platform.Price{Amount: 250, Available: true},
	}}
	notifier := &fakeNotifier{}

	newTestMonitor(store, adapter, notifier).RunOnce(context.Background())

	if got, want := len(store.history), 1; got != want {
		t.Errorf("price history rows = %d, want %d", got, want)
	}
	if got, want := len(notifier.alerts), 0; got != want {
		t.Errorf("alerts = %d, want %d", got, want)
	}
}

func TestRunOnceFreeItemIsRecordedAndAlerts(t *testing.T) {
	t.Parallel()
	item := testItem("https://store.example.com/app/1")
	store := &fakeStore{
		items:  []database.Item{item},
		wishes: map[primitive.ObjectID][]database.Wish{item.ID: {testWish(item.ID, 100)}},
	}
	adapter := &fakeAdapter{name: "fake", data: platform.ItemData{
		Price: platform.Price{Amount: 0, Available: true},
	}}
	notifier := &fakeNotifier{}

	newTestMonitor(store, adapter, notifier).RunOnce(context.Background())

	if got, want := len(store.history), 1; got != want {
		t.Fatalf("price history rows = %d, want %d", got, want)
	}
	if got, want := store.history[0].Price, 0.0; got != want {
		t.Errorf("recorded price = %v, want %v", got, want)
	}
	if got, want := len(notifier.alerts), 1; got != want {
		t.Errorf("alerts = %d, want %d", got, want)
	}
}

func TestRunOnceUnavailablePriceIsSkipped(t *testing.T) {
	t.Parallel()
	item := testItem("https://store.example.com/app/1")
	store := &fakeStore{
		items:  []database.Item{item},
		wishes: map[primitive.ObjectID][]database.Wish{item.ID: {testWish(item.ID, 100)}},
	}
	adapter := &fakeAdapter{name: "fake", data: platform.ItemData{
		Price: platform.Price{Available: false},
	}}
	notifier := &fakeNotifier{}

	newTestMonitor(store, adapter, notifier).RunOnce(context.Background())

	if got, want := len(store.history), 0; got != want {
		t.Errorf("price history rows = %d, want %d", got, want)
	}
	if got, want := len(notifier.alerts), 0; got != want {
		t.Errorf("alerts = %d, want %d", got, want)
	}
}

func TestRunOnceNoAdapterForItem(t *testing.T) {
	t.Parallel()
	item := testItem("https://unknown.example.org/product/1")
	store := &fakeStore{items: []database.Item{item}}
	adapter := &fakeAdapter{name: "fake"}
	notifier := &fakeNotifier{}

	newTestMonitor(store, adapter, notifier).RunOnce(context.Background())

	if adapter.fetches != 0 {
		t.Errorf("adapter fetched %d time(s), want 0", adapter.fetches)
	}
	if got, want := len(store.history), 0; got != want {
		t.Errorf("price history rows = %d, want %d", got, want)
	}
}

func TestRunOnceIsolatesItemFailures(t *testing.T) {
	t.Parallel()
	broken := testItem("https://broken.example.com/app/1")
	ok := testItem("https://store.example.com/app/2")
	store := &fakeStore{
		items:  []database.Item{broken, ok},
		wishes: map[primitive.ObjectID][]database.Wish{ok.ID: {testWish(ok.ID, 100)}},
	}
	brokenAdapter := &fakeAdapter{name: "broken", fetchErr: errors.New("upstream down")}
	okAdapter := &fakeAdapter{name: "fake", data: platform.ItemData{
		Price: platform.Price{Amount: 50, Available: true},
	}}
	notifier := &fakeNotifier{}

	reg := platform.NewRegistry()
	reg.Register("broken.example.com", brokenAdapter)
	reg.Register("store.example.com", okAdapter)
	m := &Monitor{Store: store, Platforms: reg, Notifier: notifier, Logger: nopLogger{}, Interval: time.Hour}
	m.RunOnce(context.Background())

	if got, want := len(store.history), 1; got != want {
		t.Fatalf("price history rows = %d, want %d", got, want)
	}
	if store.history[0].ItemID != ok.ID {
		t.Errorf("recorded ItemID = %s, want %s", store.history[0].ItemID.Hex(), ok.ID.Hex())
	}
	if got, want := len(notifier.alerts), 1; got != want {
		t.Errorf("alerts = %d, want %d", got, want)
	}
}

func TestRunOnceRepeatsAlertsEveryRun(t *testing.T) {
	t.Parallel()
	item := testItem("https://store.example.com/app/1")
	store := &fakeStore{
		items:  []database.Item{item},
		wishes: map[primitive.ObjectID][]database.Wish{item.ID: {testWish(item.ID, 200)}},
	}
	adapter := &fakeAdapter{name: "fake", data: platform.ItemData{
		Price: platform.Price{Amount: 150, Available: true},
	}}
	notifier := &fakeNotifier{}
	m := newTestMonitor(store, adapter, notifier)

	m.RunOnce(context.Background())
	m.RunOnce(context.Background())

	if got, want := len(store.history), 2; got != want {
		t.Errorf("price history rows = %d, want %d", got, want)
	}
	if got, want := len(notifier.alerts), 2; got != want {
		t.Errorf("alerts = %d, want %d", got, want)
	}
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	t.Parallel()
	m := newTestMonitor(&fakeStore{}, &fakeAdapter{name: "fake"}, &fakeNotifier{})
	m.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
