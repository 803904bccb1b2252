package model

import "time"

const (
    MinScore = 1
    MaxScore = 5
)

// Rating is one member's score for one film.  Resubmitting for the same
// (FilmID, MemberID) pair overwrites Score and Comment and bumps UpdatedAt.
type Rating struct {
    ID         uint64
    FilmID     uint64
    MemberID   uint64
    Score      int
    Comment    string
    CreatedAt  time.Time
    UpdatedAt  time.Time
    FilmTitle  string // joined; empty when the film was deleted
    MemberName string // joined; empty when the member was deleted
}

// ValidScore reports whether s lies in [MinScore, MaxScore].
func ValidScore(s int) bool { return s >= MinScore && s <= MaxScore }

// RatingAggregate provides average and count for a film's ratings.
type RatingAggregate struct {
    FilmID    uint64
    FilmTitle string
    Director  string
    Average   float64
    Count     int64
}
