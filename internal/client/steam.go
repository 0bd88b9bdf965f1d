package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"devwish/internal/misc"
)

const defaultSteamAPIURL = "https://store.steampowered.com/api/appdetails"

var ErrSteam = errors.New("Steam error")
var ErrSteamAppNotFound = errors.New("Steam app not found")

type SteamApp struct {
	Name     string
	ImageURL string
	// Price is in yuan. PriceKnown is false when the store lists the app
	// without a price (unreleased, external package, region-locked); a free
	// app has Price 0 with PriceKnown true.
	Price      float64
	PriceKnown bool
}

type steamAppDetails struct {
	Success bool          `json:"success"`
	Data    *steamAppData `json:"data"`
}

type steamAppData struct {
	Name          string `json:"name"`
	IsFree        bool   `json:"is_free"`
	HeaderImage   string `json:"header_image"`
	PriceOverview *struct {
		Final int `json:"final"`
	} `json:"price_overview"`
}

func (c Client) SteamGetApp(appID string) (SteamApp, error) {
	baseURL := c.SteamAPIURL
	if baseURL == "" {
		baseURL = defaultSteamAPIURL
	}
	// cc=cn for yuan prices, l=chinese for localized titles.
	apiURL := fmt.Sprintf("%s?appids=%s&cc=cn&l=chinese", baseURL, appID)

	req, err := newRequest(http.MethodGet, apiURL, nil)
	if err != nil {
		return SteamApp{}, errors.Wrapf(err, "error creating request from apiURL: %s", apiURL)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return SteamApp{}, errors.Wrapf(ErrSteam, "error doing request to apiURL: %s, err: %v", apiURL, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("SteamGetApp: Error closing response body, apiURL: %s, err: %v", apiURL, err)
		}
	}()

	body, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 300*1024))
	if err != nil {
		return SteamApp{}, errors.Wrapf(err, "error reading SteamAppDetailsAPI response body, apiURL: %s", apiURL)
	}
	if resp.StatusCode != http.StatusOK {
		return SteamApp{}, errors.Wrapf(ErrSteam, "error getting data from SteamAppDetailsAPI, status: %s, body:\n%s",
			resp.Status, misc.BytesLimit(body, 2000))
	}

	// The response is keyed by app ID: {"<appID>": {"success": bool, "data": {...}}}
	detailsByID := map[string]steamAppDetails{}
	if err = json.Unmarshal(body, &detailsByID); err != nil {
		return SteamApp{}, errors.Wrapf(err,
			"error unmarshalling SteamAppDetailsAPI response body, apiURL: %s, body:\n%s", apiURL, misc.BytesLimit(body, 2000))
	}

	details, ok := detailsByID[appID]
	if !ok || !details.Success || details.Data == nil {
		return SteamApp{}, errors.Wrapf(ErrSteamAppNotFound, "appID: %s", appID)
	}
	d := details.Data

	app := SteamApp{
		Name:     d.Name,
		ImageURL: d.HeaderImage,
	}
	if app.Name == "" {
		app.Name = "Steam App " + appID
	}
	if app.ImageURL == "" {
		app.ImageURL = fmt.Sprintf("https://steamcdn-a.akamaihd.net/steam/apps/%s/header.jpg", appID)
	}

	switch {
	case d.IsFree:
		app.Price = 0
		app.PriceKnown = true
	case d.PriceOverview != nil:
		// The final price comes in cents.
		app.Price = float64(d.PriceOverview.Final) / 100.0
		app.PriceKnown = true
	default:
		c.Logger.Warnf("SteamGetApp: App %s has no price overview and is not free", appID)
	}
	return app, nil
}
