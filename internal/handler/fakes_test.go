package handler

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/filmio/internal/model"
	"github.com/iliyamo/filmio/internal/queue"
	"github.com/iliyamo/filmio/internal/repository"
)

type fakeMembers struct {
	mu   sync.Mutex
	rows []model.Member
	next uint64
}

func (f *fakeMembers) Create(_ context.Context, m *model.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	for _, r := range f.rows {
		if r.Email == m.Email {
			return repository.ErrDuplicate
		}
	}
	f.next++
	m.ID = f.next
	f.rows = append(f.rows, *m)
	return nil
}

func (f *fakeMembers) GetByEmail(_ context.Context, email string) (model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, r := range f.rows {
		if r.Email == email {
			return r, nil
		}
	}
	return model.Member{}, repository.ErrNotFound
}

func (f *fakeMembers) GetByID(_ context.Context, id uint64) (model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Member{}, repository.ErrNotFound
}

func (f *fakeMembers) List(context.Context) ([]model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]model.Member(nil), f.rows...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RegisteredOn != out[j].RegisteredOn {
			return out[i].RegisteredOn > out[j].RegisteredOn
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeMembers) UpdateMembership(_ context.Context, id uint64, membership string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Membership = membership
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeMembers) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeMembers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeFilms struct {
	mu   sync.Mutex
	rows map[uint64]model.Film
	next uint64
}

func newFakeFilms() *fakeFilms { return &fakeFilms{rows: make(map[uint64]model.Film)} }

func (f *fakeFilms) Create(_ context.Context, film *model.Film) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	film.ID = f.next
	f.rows[film.ID] = *film
	return nil
}

func (f *fakeFilms) Update(_ context.Context, film model.Film) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[film.ID]; !ok {
		return repository.ErrNotFound
	}
	f.rows[film.ID] = film
	return nil
}

func (f *fakeFilms) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeFilms) GetByID(_ context.Context, id uint64) (model.Film, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	film, ok := f.rows[id]
	if !ok {
		return model.Film{}, repository.ErrNotFound
	}
	return film, nil
}

func (f *fakeFilms) Exists(_ context.Context, id uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[id]
	return ok, nil
}

func (f *fakeFilms) title(id uint64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id].Title
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (f *fakeFilms) List(_ context.Context, filter model.FilmFilter) ([]model.Film, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Film
	for _, film := range f.rows {
		if filter.Genre != "" && !containsFold(film.Genre, filter.Genre) {
			continue
		}
		if filter.Search != "" && !containsFold(film.Title, filter.Search) && !containsFold(film.Director, filter.Search) {
			continue
		}
		out = append(out, film)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch filter.Sort {
		case model.SortByYear:
			if a.Year != b.Year {
				return a.Year > b.Year
			}
		case model.SortByYearAsc:
			if a.Year != b.Year {
				return a.Year < b.Year
			}
		}
		return a.Title < b.Title
	})
	return out, nil
}

func (f *fakeFilms) SearchByTitle(ctx context.Context, title string) ([]model.Film, error) {
	all, _ := f.List(ctx, model.FilmFilter{})
	var out []model.Film
	for _, film := range all {
		if containsFold(film.Title, title) {
			out = append(out, film)
		}
	}
	return out, nil
}

func (f *fakeFilms) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows), nil
}

func (f *fakeFilms) Genres(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, film := range f.rows {
		if film.Genre != "" && !seen[film.Genre] {
			seen[film.Genre] = true
			out = append(out, film.Genre)
		}
	}
	sort.Strings(out)
	return out, nil
}

type joinKey struct{ screening, member uint64 }

type fakeScreenings struct {
	mu       sync.Mutex
	films    *fakeFilms
	rows     []model.Screening
	next     uint64
	requests map[joinKey]bool
	joinErr  error
}

func newFakeScreenings(films *fakeFilms) *fakeScreenings {
	return &fakeScreenings{films: films, requests: make(map[joinKey]bool)}
}

func (f *fakeScreenings) Create(_ context.Context, s *model.Screening) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	s.ID = f.next
	f.rows = append(f.rows, *s)
	return nil
}

func (f *fakeScreenings) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeScreenings) list(desc bool) []model.Screening {
	f.mu.Lock()
	out := append([]model.Screening(nil), f.rows...)
	f.mu.Unlock()
	for i := range out {
		out[i].FilmTitle = f.films.title(out[i].FilmID)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Date+out[i].Time, out[j].Date+out[j].Time
		if desc {
			return a > b
		}
		return a < b
	})
	return out
}

func (f *fakeScreenings) ListChronological(context.Context) ([]model.Screening, error) {
	return f.list(false), nil
}

func (f *fakeScreenings) ListLatestFirst(context.Context) ([]model.Screening, error) {
	return f.list(true), nil
}

func (f *fakeScreenings) RequestJoin(_ context.Context, screeningID, memberID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.joinErr != nil {
		return f.joinErr
	}
	found := false
	for _, s := range f.rows {
		if s.ID == screeningID {
			found = true
		}
	}
	if !found {
		return repository.ErrNotFound
	}
	k := joinKey{screeningID, memberID}
	if f.requests[k] {
		return repository.ErrDuplicate
	}
	f.requests[k] = true
	return nil
}

func (f *fakeScreenings) RequestedBy(_ context.Context, memberID uint64) (map[uint64]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uint64]bool{}
	for k := range f.requests {
		if k.member == memberID {
			out[k.screening] = true
		}
	}
	return out, nil
}

type ratingKey struct{ film, member uint64 }

type fakeRatings struct {
	mu    sync.Mutex
	films *fakeFilms
	rows  map[ratingKey]model.Rating
	next  uint64
	tick  time.Time
}

func newFakeRatings(films *fakeFilms) *fakeRatings {
	return &fakeRatings{films: films, rows: make(map[ratingKey]model.Rating), tick: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeRatings) Upsert(_ context.Context, filmID, memberID uint64, score int, comment string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tick = f.tick.Add(time.Minute)
	k := ratingKey{filmID, memberID}
	r, ok := f.rows[k]
	if !ok {
		f.next++
		r = model.Rating{ID: f.next, FilmID: filmID, MemberID: memberID, CreatedAt: f.tick}
	}
	r.Score, r.Comment, r.UpdatedAt = score, comment, f.tick
	f.rows[k] = r
	return nil
}

func (f *fakeRatings) all() []model.Rating {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Rating, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, r)
	}
	return out
}

func (f *fakeRatings) Recent(context.Context) ([]model.Rating, error) {
	out := f.all()
	for i := range out {
		out[i].FilmTitle = f.films.title(out[i].FilmID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeRatings) Averages(context.Context) ([]model.RatingAggregate, error) {
	sums := map[uint64]*model.RatingAggregate{}
	for _, r := range f.all() {
		a, ok := sums[r.FilmID]
		if !ok {
			a = &model.RatingAggregate{FilmID: r.FilmID, FilmTitle: f.films.title(r.FilmID)}
			sums[r.FilmID] = a
		}
		a.Average += float64(r.Score)
		a.Count++
	}
	out := make([]model.RatingAggregate, 0, len(sums))
	for _, a := range sums {
		a.Average /= float64(a.Count)
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FilmTitle < out[j].FilmTitle })
	return out, nil
}

func (f *fakeRatings) TopRated(ctx context.Context, n int) ([]model.RatingAggregate, error) {
	out, _ := f.Averages(ctx)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Average != b.Average {
			return a.Average > b.Average
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.FilmTitle < b.FilmTitle
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []queue.ActivityEvent
	err    error
}

func (f *fakeEvents) Publish(_ context.Context, ev queue.ActivityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEvents) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Kind)
	}
	return out
}
