package model

import "time"

// Source — откуда пришло событие
type Source string

const (
	SourceEventbrite   Source = "eventbrite"
	SourceTicketmaster Source = "ticketmaster"
	SourceCustom       Source = "custom"
)

// Event — одно событие в каноническом виде. Каждый источник приводит свой
// формат к этой структуре; HTML в текстовых полях уже вырезан.
type Event struct {
	ID          string `json:"id"`     // идентификатор провайдера, уникален внутри source
	Source      Source `json:"source"` // eventbrite | ticketmaster | custom
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`           // "2006-01-02"; пустая строка = дата неизвестна
	Time        string `json:"time,omitempty"` // "15:04", опционально
	Location    string `json:"location,omitempty"`
	Venue       string `json:"venue,omitempty"`
	Price       string `json:"price,omitempty"` // "Free", "Check website" или диапазон цен
	URL         string `json:"url,omitempty"`
	Image       string `json:"image,omitempty"`
	Category    string `json:"category,omitempty"`
	Organizer   string `json:"organizer,omitempty"`

	// Поля AI-обогащения — присутствуют только когда enrichment выполнялся
	AICategory string `json:"ai_category,omitempty"`
	AISummary  string `json:"ai_summary,omitempty"`
	AIScore    *int   `json:"ai_score,omitempty"` // 0–100
}

// Key returns the "source:id" pair that uniquely identifies an event
// across the merged result and within the cache.
func (e Event) Key() string {
	return string(e.Source) + ":" + e.ID
}

// StartTime parses Date and Time into a single timestamp for sorting.
// Events with an empty or unparseable date return the zero time, so they
// sort before every dated event.
func (e Event) StartTime() time.Time {
	if e.Date == "" {
		return time.Time{}
	}
	if e.Time != "" {
		if t, err := time.Parse("2006-01-02 15:04", e.Date+" "+e.Time); err == nil {
			return t
		}
	}
	t, err := time.Parse("2006-01-02", e.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}
