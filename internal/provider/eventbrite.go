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
	eventbriteName        = "eventbrite"
	eventbriteBaseURL     = "https://www.eventbriteapi.com/v3"
	eventbriteMaxPageSize = 50
)

type eventbriteResponse struct {
	Events []eventbriteEvent `json:"events"`
}

type eventbriteEvent struct {
	ID   string `json:"id"`
	Name struct {
		Text string `json:"text"`
	} `json:"name"`
	Description struct {
		Text string `json:"text"`
	} `json:"description"`
	Start struct {
		Local string `json:"local"` // "2006-01-02T15:04:05"
	} `json:"start"`
	URL    string `json:"url"`
	IsFree bool   `json:"is_free"`
	Logo   struct {
		URL string `json:"url"`
	} `json:"logo"`
	Venue struct {
		Name    string `json:"name"`
		Address struct {
			City                    string `json:"city"`
			Region                  string `json:"region"`
			LocalizedAddressDisplay string `json:"localized_address_display"`
		} `json:"address"`
	} `json:"venue"`
	Category struct {
		Name string `json:"name"`
	} `json:"category"`
	Subcategory struct {
		Name string `json:"name"`
	} `json:"subcategory"`
	TicketAvailability struct {
		MinimumTicketPrice struct {
			Display string `json:"display"`
		} `json:"minimum_ticket_price"`
	} `json:"ticket_availability"`
	Organizer struct {
		Name string `json:"name"`
	} `json:"organizer"`
}

// Eventbrite wraps the Eventbrite v3 search API.
type Eventbrite struct {
	token   string
	baseURL string
	client  *http.Client
	debug   *debuglog.Log
}

func NewEventbrite(token, baseURL string, debug *debuglog.Log) *Eventbrite {
	if baseURL == "" {
		baseURL = eventbriteBaseURL
	}
	return &Eventbrite{
		token:   token,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		debug:   debug,
	}
}

func (p *Eventbrite) Name() string { return eventbriteName }

func (p *Eventbrite) FetchEvents(ctx context.Context, q Query) []model.Event {
	if p.token == "" {
		p.debug.Logf(eventbriteName, "skipped: no API token configured")
		return []model.Event{}
	}

	start := time.Now()
	raw, err := p.search(ctx, q)
	metrics.FetchDuration.WithLabelValues(eventbriteName).Observe(time.Since(start).Seconds())
	if err != nil {
		p.debug.Logf(eventbriteName, "fetch failed: %v", err)
		metrics.ProviderErrors.WithLabelValues(eventbriteName).Inc()
		return []model.Event{}
	}

	events := make([]model.Event, 0, len(raw))
	for _, e := range raw {
		events = append(events, p.normalize(e))
	}
	p.debug.Logf(eventbriteName, "fetched %d events for %q", len(events), q.Location)
	metrics.EventsFetched.WithLabelValues(eventbriteName).Add(float64(len(events)))
	return events
}

func (p *Eventbrite) search(ctx context.Context, q Query) ([]eventbriteEvent, error) {
	params := url.Values{}
	params.Set("location.address", q.Location)
	params.Set("location.within", fmt.Sprintf("%dmi", clampRadius(q.RadiusMiles)))
	params.Set("expand", "venue,category,subcategory,ticket_availability,organizer")
	params.Set("page_size", fmt.Sprintf("%d", clampLimit(q.Limit, eventbriteMaxPageSize)))
	params.Set("sort_by", "date")

	u := p.baseURL + "/events/search/?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d from eventbrite", resp.StatusCode)
	}

	var parsed eventbriteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return parsed.Events, nil
}

func (p *Eventbrite) normalize(e eventbriteEvent) model.Event {
	date, tod := splitLocalDateTime(e.Start.Local)

	// Цена: флаг is_free → минимальная цена билета → заглушка
	price := priceCheckWebsite
	switch {
	case e.IsFree:
		price = priceFree
	case e.TicketAvailability.MinimumTicketPrice.Display != "":
		price = e.TicketAvailability.MinimumTicketPrice.Display
	}

	location := e.Venue.Address.LocalizedAddressDisplay
	if location == "" && e.Venue.Address.City != "" {
		location = e.Venue.Address.City
		if e.Venue.Address.Region != "" {
			location += ", " + e.Venue.Address.Region
		}
	}

	return model.Event{
		ID:          e.ID,
		Source:      model.SourceEventbrite,
		Title:       stripHTML(e.Name.Text),
		Description: stripHTML(e.Description.Text),
		Date:        date,
		Time:        tod,
		Location:    location,
		Venue:       e.Venue.Name,
		Price:       price,
		URL:         e.URL,
		Image:       e.Logo.URL,
		Category:    firstNonEmpty(categoryOther, e.Category.Name, e.Subcategory.Name),
		Organizer:   e.Organizer.Name,
	}
}

// TestConnection делает минимальный аутентифицированный запрос /users/me/.
func (p *Eventbrite) TestConnection(ctx context.Context) (bool, string) {
	if p.token == "" {
		return false, "no API token configured"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/users/me/", nil)
	if err != nil {
		return false, fmt.Sprintf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Sprintf("network error: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var me struct {
			Name   string `json:"name"`
			Emails []struct {
				Email string `json:"email"`
			} `json:"emails"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&me); err == nil && me.Name != "" {
			return true, "authenticated as " + me.Name
		}
		return true, "connection OK"
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, "invalid API token"
	default:
		return false, fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
}
