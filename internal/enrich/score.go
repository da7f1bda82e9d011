package enrich

import (
	"time"

	"event-hub/internal/model"
)

// Score вычисляет детерминированную оценку релевантности без сетевых
// вызовов: база 50, бонусы за картинку/цену/площадку и за близость даты.
func Score(e model.Event, now time.Time) int {
	s := 50
	if e.Image != "" {
		s += 10
	}
	if e.Price != "" {
		s += 5
	}
	if e.Venue != "" {
		s += 5
	}
	if start := e.StartTime(); !start.IsZero() {
		// Дробные дни до сравнения с порогами
		days := start.Sub(now).Hours() / 24
		switch {
		case days <= 7:
			s += 20
		case days <= 30:
			s += 10
		}
	}
	if s > 100 {
		s = 100
	}
	if s < 0 {
		s = 0
	}
	return s
}
