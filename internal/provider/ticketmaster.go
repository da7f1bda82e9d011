package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"event-hub/internal/debuglog"
	"event-hub/internal/metrics"
	"event-hub/internal/model"
)

const (
	ticketmasterName        = "ticketmaster"
	ticketmasterBaseURL     = "https://app.ticketmaster.com/discovery/v2"
	ticketmasterMaxPageSize = 200
)

type tmResponse struct {
	Embedded struct {
		Events []tmEvent `json:"events"`
	} `json:"_embedded"`
}

type tmEvent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Info   string `json:"info"`
	URL    string `json:"url"`
	Images []struct {
		URL   string `json:"url"`
		Width int    `json:"width"`
	} `json:"images"`
	Dates struct {
		Start struct {
			LocalDate string `json:"localDate"` // "2006-01-02"
			LocalTime string `json:"localTime"` // "15:04:05"
		} `json:"start"`
	} `json:"dates"`
	PriceRanges []struct {
		Min      float64 `json:"min"`
		Max      float64 `json:"max"`
		Currency string  `json:"currency"`
	} `json:"priceRanges"`
	Classifications []struct {
		Segment struct {
			Name string `json:"name"`
		} `json:"segment"`
		Genre struct {
			Name string `json:"name"`
		} `json:"genre"`
		SubGenre struct {
			Name string `json:"name"`
		} `json:"subGenre"`
	} `json:"classifications"`
	Embedded struct {
		Venues []struct {
			Name string `json:"name"`
			City struct {
				Name string `json:"name"`
			} `json:"city"`
			State struct {
				StateCode string `json:"stateCode"`
			} `json:"state"`
		} `json:"venues"`
	} `json:"_embedded"`
	Promoter struct {
		Name string `json:"name"`
	} `json:"promoter"`
}

// Ticketmaster wraps the Discovery v2 event search API.
type Ticketmaster struct {
	apiKey  string
	baseURL string
	client  *http.Client
	debug   *debuglog.Log
}

func NewTicketmaster(apiKey, baseURL string, debug *debuglog.Log) *Ticketmaster {
	if baseURL == "" {
		baseURL = ticketmasterBaseURL
	}
	return &Ticketmaster{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		debug:   debug,
	}
}

func (p *Ticketmaster) Name() string { return ticketmasterName }

func (p *Ticketmaster) FetchEvents(ctx context.Context, q Query) []model.Event {
	if p.apiKey == "" {
		p.debug.Logf(ticketmasterName, "skipped: no API key configured")
		return []model.Event{}
	}

	start := time.Now()
	raw, err := p.search(ctx, q)
	metrics.FetchDuration.WithLabelValues(ticketmasterName).Observe(time.Since(start).Seconds())
	if err != nil {
		p.debug.Logf(ticketmasterName, "fetch failed: %v", err)
		metrics.ProviderErrors.WithLabelValues(ticketmasterName).Inc()
		return []model.Event{}
	}

	events := make([]model.Event, 0, len(raw))
	for _, e := range raw {
		events = append(events, p.normalize(e))
	}
	p.debug.Logf(ticketmasterName, "fetched %d events for %q", len(events), q.Location)
	metrics.EventsFetched.WithLabelValues(ticketmasterName).Add(float64(len(events)))
	return events
}

func (p *Ticketmaster) search(ctx context.Context, q Query) ([]tmEvent, error) {
	params := url.Values{}
	params.Set("apikey", p.apiKey)
	params.Set("city", cityOf(q.Location))
	params.Set("radius", fmt.Sprintf("%d", clampRadius(q.RadiusMiles)))
	params.Set("unit", "miles")
	params.Set("size", fmt.Sprintf("%d", clampLimit(q.Limit, ticketmasterMaxPageSize)))
	params.Set("sort", "date,asc")

	u := p.baseURL + "/events.json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d from ticketmaster", resp.StatusCode)
	}

	var parsed tmResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return parsed.Embedded.Events, nil
}

func (p *Ticketmaster) normalize(e tmEvent) model.Event {
	date := e.Dates.Start.LocalDate
	tod := e.Dates.Start.LocalTime
	if len(tod) >= 5 {
		tod = tod[:5]
	}

	price := priceCheckWebsite
	if len(e.PriceRanges) > 0 {
		r := e.PriceRanges[0]
		price = formatPriceRange(r.Min, r.Max, r.Currency)
	}

	// Классификация: segment → genre → subGenre → Other
	category := categoryOther
	if len(e.Classifications) > 0 {
		c := e.Classifications[0]
		category = firstNonEmpty(categoryOther, c.Segment.Name, c.Genre.Name, c.SubGenre.Name)
	}

	var venue, location string
	if len(e.Embedded.Venues) > 0 {
		v := e.Embedded.Venues[0]
		venue = v.Name
		location = v.City.Name
		if location != "" && v.State.StateCode != "" {
			location += ", " + v.State.StateCode
		}
	}

	return model.Event{
		ID:          e.ID,
		Source:      model.SourceTicketmaster,
		Title:       stripHTML(e.Name),
		Description: stripHTML(e.Info),
		Date:        date,
		Time:        tod,
		Location:    location,
		Venue:       venue,
		Price:       price,
		URL:         e.URL,
		Image:       widestImage(e),
		Category:    category,
		Organizer:   e.Promoter.Name,
	}
}

// widestImage выбирает картинку с максимальной шириной в пикселях.
func widestImage(e tmEvent) string {
	best := ""
	bestWidth := -1
	for _, img := range e.Images {
		if img.Width > bestWidth {
			best = img.URL
			bestWidth = img.Width
		}
	}
	return best
}

// TestConnection запрашивает одну запись чтобы проверить ключ.
func (p *Ticketmaster) TestConnection(ctx context.Context) (bool, string) {
	if p.apiKey == "" {
		return false, "no API key configured"
	}
	u := p.baseURL + "/events.json?" + url.Values{"apikey": {p.apiKey}, "size": {"1"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Sprintf("build request: %v", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Sprintf("network error: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, "connection OK"
	case http.StatusUnauthorized:
		return false, "invalid API key"
	case http.StatusTooManyRequests:
		return false, "rate limited"
	default:
		return false, fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
}
