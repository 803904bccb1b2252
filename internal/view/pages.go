package view

import (
	"github.com/iliyamo/filmio/internal/model"
	"github.com/iliyamo/filmio/internal/session"
)

// Base is embedded in every page.
type Base struct {
	Title     string
	Flash     *session.Flash
	CSRF      string
	Principal *session.Principal
}

type LoginPage struct {
	Base
	TimedOut bool
}

// ScreeningRow is a screening with the viewer's join state.
type ScreeningRow struct {
	model.Screening
	Requested bool
}

type DashboardPage struct {
	Base
	Member     model.Member
	FilmCount  int
	Genres     []string
	Films      []model.Film
	Filter     model.FilmFilter
	TopRated   []model.RatingAggregate
	Screenings []ScreeningRow
}

type RatingsPage struct {
	Base
	Films          []model.Film
	SelectedFilmID uint64
	Recent         []model.Rating
	Averages       []model.RatingAggregate
}

// Scores lists the selectable star values.
func (RatingsPage) Scores() []int {
	out := make([]int, 0, model.MaxScore-model.MinScore+1)
	for s := model.MaxScore; s >= model.MinScore; s-- {
		out = append(out, s)
	}
	return out
}

type AdminPage struct {
	Base
	Query       string
	FilmCount   int
	Films       []model.Film
	Members     []model.Member
	Screenings  []model.Screening
	Editing     *model.Film
	Today       string
	ExportTypes []string
}
