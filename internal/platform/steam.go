package platform

import (
	"fmt"
	"regexp"

	"github.com/pkg/errors"

	"devwish/internal/client"
)

var steamAppURLRe = regexp.MustCompile(`/app/(\d+)`)

// SteamAdapter resolves store.steampowered.com product pages through the
// Steam store API.
type SteamAdapter struct {
	Client *client.Client
	Logger logger
}

type logger interface {
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

func (a *SteamAdapter) Name() string {
	return "steam"
}

func (a *SteamAdapter) ExtractItemID(url string) (string, error) {
	// Steam URLs look like https://store.steampowered.com/app/1085660/Destiny_2/
	m := steamAppURLRe.FindStringSubmatch(url)
	if m == nil {
		return "", errors.Errorf("invalid Steam product URL: %s", url)
	}
	return m[1], nil
}

func (a *SteamAdapter) FetchItemDetails(itemID string, url string) (ItemData, error) {
	app, err := a.Client.SteamGetApp(itemID)
	if err != nil {
		// Fetch problems are soft failures: the caller gets placeholder data
		// with an unavailable price and decides what to skip.
		a.Logger.Errorf("SteamAdapter: Error fetching app details, appID: %s, err: %v", itemID, err)
		return ItemData{
			Title: fmt.Sprintf("Steam App %s (fetch failed)", itemID),
			Price: Price{Available: false},
		}, nil
	}
	return ItemData{
		Title:    app.Name,
		ImageURL: app.ImageURL,
		Price:    Price{Amount: app.Price, Available: app.PriceKnown},
	}, nil
}

// DefaultRegistry wires up every supported platform in resolution order.
func DefaultRegistry(c *client.Client, log logger) *Registry {
	r := NewRegistry()
	r.Register("steampowered.com", &SteamAdapter{Client: c, Logger: log})
	return r
}
