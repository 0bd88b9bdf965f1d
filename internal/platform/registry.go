// Package platform maps item source URLs to the adapter that knows how to
// fetch standardized product data for that platform.
package platform

import "strings"

// Price is an explicit fetch result. Available is false when the platform
// could not produce a price; an Amount of 0 with Available true means the
// item is free.
type Price struct {
	Amount    float64
	Available bool
}

type ItemData struct {
	Title    string
	ImageURL string
	Price    Price
}

type Adapter interface {
	Name() string
	// ExtractItemID parses the platform-specific product ID out of a source
	// URL and errors on malformed URLs.
	ExtractItemID(url string) (string, error)
	// FetchItemDetails fetches title, image and current price. A fetch that
	// fails upstream reports Price.Available=false rather than an error so
	// callers can tell "no price right now" from "broken call".
	FetchItemDetails(itemID string, url string) (ItemData, error)
}

type registration struct {
	keyword string
	adapter Adapter
}

// Registry resolves URLs against an ordered keyword list; the first adapter
// whose keyword is a substring of the URL wins.
type Registry struct {
	registrations []registration
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(keyword string, a Adapter) {
	r.registrations = append(r.registrations, registration{keyword: keyword, adapter: a})
}

// Resolve returns nil when no adapter matches; callers treat that as an
// unsupported platform, not an error.
func (r *Registry) Resolve(url string) Adapter {
	for _, reg := range r.registrations {
		if strings.Contains(url, reg.keyword) {
			return reg.adapter
		}
	}
	return nil
}

func (r *Registry) SupportedPlatforms() []string {
	keywords := make([]string, 0, len(r.registrations))
	for _, reg := range r.registrations {
		keywords = append(keywords, reg.keyword)
	}
	return keywords
}
