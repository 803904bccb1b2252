package model

import "time"

// Film represents a catalog entry in the `films` table.  Films are created,
// edited and deleted by administrators only.  Deleting a film does not touch
// screenings or ratings that reference it; those render the film as
// "Unknown".
//
// Fields:
//  ID        – primary key identifier.
//  Title     – film title; required.
//  Director  – director name; required.
//  Year      – release year; must be positive.
//  Genre     – free-text genre used by the dashboard filter.
//  Synopsis  – optional Markdown description.
//  Runtime   – minutes; kept for schema compatibility and always 0.
//  CreatedAt – insertion timestamp.
type Film struct {
    ID        uint64    // films.id
    Title     string    // films.title
    Director  string    // films.director
    Year      int       // films.year
    Genre     string    // films.genre
    Synopsis  string    // films.synopsis
    Runtime   int       // films.runtime
    CreatedAt time.Time // films.created_at
}

// FilmSort selects the ordering of catalog listings.
type FilmSort string

const (
    SortByName    FilmSort = "name"     // title ascending (default)
    SortByYear    FilmSort = "year"     // newest first, then title
    SortByYearAsc FilmSort = "year_asc" // oldest first, then title
)

// ParseFilmSort maps the `sort` query parameter to a FilmSort, falling back
// to SortByName for anything unrecognised.
func ParseFilmSort(s string) FilmSort {
    switch FilmSort(s) {
    case SortByYear, SortByYearAsc:
        return FilmSort(s)
    }
    return SortByName
}

// FilmFilter narrows catalog queries.  Genre is a substring match on the
// genre column; Search matches title or director.
type FilmFilter struct {
    Genre  string
    Search string
    Sort   FilmSort
}
