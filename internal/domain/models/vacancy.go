// internal/domain/models/vacancy.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vacancy is a position candidates apply for. StartDate and EndDate bound the
// application window (inclusive, compared by calendar day).
type Vacancy struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"`
	Description string             `bson:"description" json:"description"`
	StartDate   time.Time          `bson:"start_date" json:"start_date"`
	EndDate     time.Time          `bson:"end_date" json:"end_date"`
	Active      bool               `bson:"active" json:"active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// OpenOn reports whether the vacancy accepts applications on the given day.
func (v Vacancy) OpenOn(now time.Time) bool {
	if !v.Active {
		return false
	}
	day := truncateDay(now)
	return !truncateDay(v.StartDate).After(day) && !truncateDay(v.EndDate).Before(day)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
