package model

// DefaultScreeningTime is used when the admin form omits a start time.
const DefaultScreeningTime = "19:00"

// Screening represents a scheduled club meetup in the `screenings` table.
//
// Fields:
//  ID        – primary key identifier.
//  FilmID    – film being shown; may point at a deleted film.
//  FilmTitle – joined film title, empty when the film no longer exists.
//  Date      – YYYY-MM-DD.
//  Time      – HH:MM.
//  Venue     – where the club meets.
type Screening struct {
    ID        uint64 // screenings.id
    FilmID    uint64 // screenings.film_id
    FilmTitle string // films.title via LEFT JOIN
    Date      string // screenings.screen_date
    Time      string // screenings.screen_time
    Venue     string // screenings.venue
}
