package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"devwish/internal/database"
	"devwish/internal/platform"
)

type wishItemResponse struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	ImageURL string `json:"image_url"`
	Platform string `json:"platform"`
}

func (s Server) wishAddHandler() http.HandlerFunc {
	type request struct {
		URL           string  `json:"url"`
		TargetPrice   float64 `json:"target_price"`
		ConditionType string  `json:"condition_type"`
		TargetValue   int     `json:"target_value"`
	}
	type response struct {
		WishID      string           `json:"wish_id"`
		Item        wishItemResponse `json:"item"`
		TargetPrice float64          `json:"target_price"`
		Unlocked    bool             `json:"unlocked"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.writeError(w, r, "Unauthorized", http.StatusUnauthorized)
			return
		}
		var req request
		if err := decodeJsonBody(w, r, &req, 2000); err != nil {
			s.writeError(w, r, "Invalid request body", http.StatusBadRequest)
			return
		}
		req.URL = strings.TrimSpace(req.URL)
		if req.URL == "" || req.TargetPrice < 0 {
			s.writeError(w, r, "A product URL and a non-negative target price are required", http.StatusUnprocessableEntity)
			return
		}
		if req.ConditionType != "" &&
			req.ConditionType != database.ConditionWeeklyCommits &&
			req.ConditionType != database.ConditionTotalStars {
			s.writeError(w, r, "Unknown unlock condition type", http.StatusUnprocessableEntity)
			return
		}
		adapter := s.Platforms.Resolve(req.URL)
		if adapter == nil {
			s.writeError(w, r, "Unsupported platform URL, supported: "+
				strings.Join(s.Platforms.SupportedPlatforms(), ", "), http.StatusBadRequest)
			return
		}
		platformItemID, err := adapter.ExtractItemID(req.URL)
		if err != nil {
			s.Logger.Debugf("%s: wish add: bad URL: %s, err: %v", tc, req.URL, err)
			s.writeError(w, r, "Could not extract a product ID from that URL", http.StatusBadRequest)
			return
		}

		item, err := s.DB.ItemFindByURL(r.Context(), req.URL)
		if err != nil {
			if !errors.Is(err, mongo.ErrNoDocuments) {
				s.Logger.Errorf("%s: wish add: error finding item, err: %+v", tc, err)
				s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
				return
			}
			item, err = s.createItem(r, adapter, platformItemID, req.URL)
			if err != nil {
				s.Logger.Errorf("%s: wish add: error creating item, err: %+v", tc, err)
				s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
				return
			}
		}

		if _, err := s.DB.WishFindByUserAndItem(r.Context(), uc.user.ID, item.ID); err == nil {
			s.writeError(w, r, "That item is already in your wishlist", http.StatusUnprocessableEntity)
			return
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			s.Logger.Errorf("%s: wish add: error checking for existing wish, err: %+v", tc, err)
			s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
			return
		}

		wish := database.Wish{
			UserID:        uc.user.ID,
			ItemID:        item.ID,
			TargetPrice:   req.TargetPrice,
			Active:        true,
			Unlocked:      req.ConditionType == "",
			ConditionType: req.ConditionType,
			TargetValue:   req.TargetValue,
		}
		wishID, err := s.DB.WishInsert(r.Context(), wish)
		if err != nil {
			if mongo.IsDuplicateKeyError(errors.Cause(err)) {
				s.writeError(w, r, "That item is already in your wishlist", http.StatusUnprocessableEntity)
				return
			}
			s.Logger.Errorf("%s: wish add: error inserting wish, err: %+v", tc, err)
			s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
			return
		}
		s.Logger.Infof("%s: wish added: %s, user: %s, item: %s", tc, wishID, uc.user.ID.Hex(), item.ID.Hex())
		s.writeJsonResponse(w, r, response{
			WishID: wishID,
			Item: wishItemResponse{
				Title:    item.Title,
				URL:      item.URL,
				ImageURL: item.ImageURL,
				Platform: item.Platform,
			},
			TargetPrice: req.TargetPrice,
			Unlocked:    wish.Unlocked,
		}, http.StatusCreated)
	}
}

// createItem fetches details from the platform and inserts a new Item,
// recording the fetched price as the first history point when one is known.
func (s Server) createItem(r *http.Request, adapter platform.Adapter, platformItemID, url string) (database.Item, error) {
	tc := getTraceContext(r.Context())
	data, err := adapter.FetchItemDetails(platformItemID, url)
	if err != nil {
		return database.Item{}, errors.Wrapf(err, "error fetching item details from %s", adapter.Name())
	}
	item := database.Item{
		PlatformItemID: platformItemID,
		URL:            url,
		Title:          data.Title,
		ImageURL:       data.ImageURL,
		Platform:       adapter.Name(),
	}
	itemIDHex, err := s.DB.ItemInsert(r.Context(), item)
	if err != nil {
		if mongo.IsDuplicateKeyError(errors.Cause(err)) {
			return s.DB.ItemFindByURL(r.Context(), url)
		}
		return database.Item{}, err
	}
	itemID, err := primitive.ObjectIDFromHex(itemIDHex)
	if err != nil {
		return database.Item{}, errors.Wrapf(err, "error parsing inserted ItemID: %s", itemIDHex)
	}
	item.ID = itemID
	if data.Price.Available {
		if err := s.DB.PriceHistoryInsert(r.Context(), database.PriceHistory{
			ItemID: itemID,
			Price:  data.Price.Amount,
		}); err != nil {
			s.Logger.Errorf("%s: error recording initial price for item: %s, err: %+v", tc, itemIDHex, err)
		}
	}
	return item, nil
}

func (s Server) wishListHandler() http.HandlerFunc {
	type wishResponse struct {
		WishID        string           `json:"wish_id"`
		Item          wishItemResponse `json:"item"`
		TargetPrice   float64          `json:"target_price"`
		LatestPrice   *float64         `json:"latest_price"`
		BelowTarget   bool             `json:"below_target"`
		Active        bool             `json:"active"`
		Unlocked      bool             `json:"unlocked"`
		ConditionType string           `json:"condition_type,omitempty"`
		TargetValue   int              `json:"target_value,omitempty"`
	}
	type response struct {
		Wishes []wishResponse `json:"wishes"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.writeError(w, r, "Unauthorized", http.StatusUnauthorized)
			return
		}
		wishes, err := s.DB.WishesFindByUser(r.Context(), uc.user.ID)
		if err != nil {
			s.Logger.Errorf("%s: wish list: error finding wishes, err: %+v", tc, err)
			s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
			return
		}
		resp := response{Wishes: make([]wishResponse, 0, len(wishes))}
		for _, wish := range wishes {
			wr := wishResponse{
				WishID:        wish.ID.Hex(),
				TargetPrice:   wish.TargetPrice,
				Active:        wish.Active,
				Unlocked:      wish.Unlocked,
				ConditionType: wish.ConditionType,
				TargetValue:   wish.TargetValue,
			}
			item, err := s.DB.ItemFindByID(r.Context(), wish.ItemID)
			if err != nil {
				s.Logger.Errorf("%s: wish list: error finding item: %s, err: %+v", tc, wish.ItemID.Hex(), err)
			} else {
				wr.Item = wishItemResponse{
					Title:    item.Title,
					URL:      item.URL,
					ImageURL: item.ImageURL,
					Platform: item.Platform,
				}
			}
			ph, err := s.DB.PriceHistoryFindLatest(r.Context(), wish.ItemID)
			if err != nil {
				if !errors.Is(err, mongo.ErrNoDocuments) {
					s.Logger.Errorf("%s: wish list: error finding latest price for item: %s, err: %+v",
						tc, wish.ItemID.Hex(), err)
				}
			} else {
				price := ph.Price
				wr.LatestPrice = &price
				wr.BelowTarget = price <= wish.TargetPrice
			}
			resp.Wishes = append(resp.Wishes, wr)
		}
		s.writeJsonResponse(w, r, resp, http.StatusOK)
	}
}

func (s Server) wishDeleteHandler() http.HandlerFunc {
	type response struct {
		Message string `json:"message"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.writeError(w, r, "Unauthorized", http.StatusUnauthorized)
			return
		}
		wishID, err := primitive.ObjectIDFromHex(mux.Vars(r)["wishID"])
		if err != nil {
			s.writeError(w, r, "Invalid wish ID", http.StatusBadRequest)
			return
		}
		deleted, err := s.DB.WishDelete(r.Context(), wishID, uc.user.ID)
		if err != nil {
			s.Logger.Errorf("%s: wish delete: err: %+v", tc, err)
			s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
			return
		}
		if !deleted {
			s.writeError(w, r, "Wish not found", http.StatusNotFound)
			return
		}
		s.writeJsonResponse(w, r, response{Message: "Wish deleted"}, http.StatusOK)
	}
}

func (s Server) wishHistoryHandler() http.HandlerFunc {
	type pricePoint struct {
		Price float64   `json:"price"`
		Ts    time.Time `json:"ts"`
	}
	type response struct {
		WishID  string       `json:"wish_id"`
		Days    int          `json:"days"`
		History []pricePoint `json:"history"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.writeError(w, r, "Unauthorized", http.StatusUnauthorized)
			return
		}
		wishID, err := primitive.ObjectIDFromHex(mux.Vars(r)["wishID"])
		if err != nil {
			s.writeError(w, r, "Invalid wish ID", http.StatusBadRequest)
			return
		}
		days := 90
		if d := r.URL.Query().Get("days"); d != "" {
			parsed, err := strconv.Atoi(d)
			if err != nil || parsed < 1 || parsed > 365 {
				s.writeError(w, r, "days must be between 1 and 365", http.StatusBadRequest)
				return
			}
			days = parsed
		}

		wishes, err := s.DB.WishesFindByUser(r.Context(), uc.user.ID)
		if err != nil {
			s.Logger.Errorf("%s: wish history: error finding wishes, err: %+v", tc, err)
			s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
			return
		}
		var wish *database.Wish
		for i := range wishes {
			if wishes[i].ID == wishID {
				wish = &wishes[i]
				break
			}
		}
		if wish == nil {
			s.writeError(w, r, "Wish not found", http.StatusNotFound)
			return
		}

		end := time.Now()
		phs, err := s.DB.PriceHistoryFindRange(r.Context(), wish.ItemID, end.AddDate(0, 0, -days), end)
		if err != nil {
			s.Logger.Errorf("%s: wish history: error finding price history, err: %+v", tc, err)
			s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
			return
		}
		resp := response{WishID: wishID.Hex(), Days: days, History: make([]pricePoint, 0, len(phs))}
		for _, ph := range phs {
			resp.History = append(resp.History, pricePoint{Price: ph.Price, Ts: ph.Ts.Time()})
		}
		s.writeJsonResponse(w, r, resp, http.StatusOK)
	}
}

func (s Server) wishCheckStatusHandler() http.HandlerFunc {
	type response struct {
		UnlockedCount int    `json:"unlocked_count"`
		Message       string `json:"message"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		uc, err := getUserContext(r.Context())
		if err != nil {
			s.writeError(w, r, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if uc.user.GitHubUsername == "" {
			s.writeError(w, r, "Set your GitHub username before checking unlock conditions", http.StatusUnprocessableEntity)
			return
		}
		count, err := s.Checker.UnlockEligible(r.Context(), s.DB, s.Dispatcher, uc.user)
		if err != nil {
			s.Logger.Errorf("%s: wish check: err: %+v", tc, err)
			s.writeError(w, r, "Internal server error", http.StatusInternalServerError)
			return
		}
		msg := "No wishes unlocked this time, keep shipping"
		if count > 0 {
			msg = "Congratulations, you unlocked new wishes"
		}
		s.writeJsonResponse(w, r, response{UnlockedCount: count, Message: msg}, http.StatusOK)
	}
}
