package provider

import (
	"fmt"
	"html"
	"strings"
)

const (
	priceFree         = "Free"
	priceCheckWebsite = "Check website"
	categoryOther     = "Other"
)

// stripHTML removes markup and decodes entities. Провайдеры отдают
// описания с разметкой, в каноническом Event её быть не должно.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(strings.Join(strings.Fields(html.UnescapeString(b.String())), " "))
}

// clampLimit ограничивает limit максимальным размером страницы провайдера.
func clampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}

func clampRadius(radius int) int {
	if radius <= 0 {
		return 1
	}
	return radius
}

// splitLocalDateTime разбирает "2006-01-02T15:04:05" на дату и время.
// Время может отсутствовать.
func splitLocalDateTime(s string) (date, tod string) {
	if len(s) < 10 {
		return "", ""
	}
	date = s[:10]
	if len(s) >= 16 {
		tod = s[11:16]
	}
	return date, tod
}

// formatPriceRange renders a Ticketmaster-style price range.
// min==max==0 означает бесплатное событие.
func formatPriceRange(min, max float64, currency string) string {
	if min == 0 && max == 0 {
		return priceFree
	}
	suffix := ""
	if currency != "" && currency != "USD" {
		suffix = " " + currency
	}
	if min == max {
		return fmt.Sprintf("$%.2f%s", min, suffix)
	}
	return fmt.Sprintf("$%.2f - $%.2f%s", min, max, suffix)
}

// cityOf returns the first comma-separated segment of a location query,
// e.g. "Austin, TX" → "Austin".
func cityOf(location string) string {
	if i := strings.IndexByte(location, ','); i >= 0 {
		return strings.TrimSpace(location[:i])
	}
	return strings.TrimSpace(location)
}

// firstNonEmpty возвращает первый непустой вариант либо fallback.
func firstNonEmpty(fallback string, options ...string) string {
	for _, o := range options {
		if o != "" {
			return o
		}
	}
	return fallback
}
