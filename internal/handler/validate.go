package handler

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/filmio/internal/apperr"
	"github.com/iliyamo/filmio/internal/model"
	"github.com/iliyamo/filmio/internal/utils"
)

// FormValidator adapts validator/v10 to echo.Validator.
type FormValidator struct {
	v *validator.Validate
}

func NewFormValidator() *FormValidator {
	return &FormValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (fv *FormValidator) Validate(i interface{}) error { return fv.v.Struct(i) }

// form is implemented by request schemas.  normalize trims input before
// validation; message maps a failing field to member-facing text.
type form interface {
	normalize()
	message(field string) string
}

// bindForm binds the posted form into f, normalizes it, validates it and
// converts failures into apperr validation errors.
func bindForm(c echo.Context, f form) error {
	if err := c.Bind(f); err != nil {
		return apperr.Invalid(f.message(""))
	}
	f.normalize()
	if err := c.Validate(f); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) && len(ves) > 0 {
			return apperr.Invalid(f.message(ves[0].Field()))
		}
		return apperr.Invalid(f.message(""))
	}
	return nil
}

func trim(ss ...*string) {
	for _, s := range ss {
		*s = strings.TrimSpace(*s)
	}
}

type registerForm struct {
	FirstName  string `form:"first_name" validate:"required,max=100"`
	LastName   string `form:"last_name" validate:"max=100"`
	Email      string `form:"email" validate:"required,email,max=255"`
	Password   string `form:"password" validate:"max=72"`
	Membership string `form:"membership" validate:"max=50"`
	Address    string `form:"address" validate:"max=255"`
}

func (f *registerForm) normalize() {
	trim(&f.FirstName, &f.LastName, &f.Email, &f.Membership, &f.Address)
	f.Email = strings.ToLower(f.Email)
}

// checkPassword enforces the minimum length; the maximum is a tag because
// bcrypt ignores input past 72 bytes.
func (f *registerForm) checkPassword() error {
	if utf8.RuneCountInString(f.Password) < utils.MinPasswordLength {
		return apperr.Invalid(f.message("Password"))
	}
	return nil
}

func (f *registerForm) message(field string) string {
	switch field {
	case "FirstName":
		return "First name is required."
	case "Email":
		return "Please enter a valid email address."
	case "Password":
		return "Password must be 8 to 72 characters long."
	}
	return "Please check the registration form and try again."
}

type loginForm struct {
	Email    string `form:"email" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func (f *loginForm) normalize() { f.Email = strings.ToLower(strings.TrimSpace(f.Email)) }

func (f *loginForm) message(string) string { return "Please enter your email and password." }

type joinForm struct {
	ScreeningID uint64 `form:"screening_id" validate:"gt=0"`
}

func (f *joinForm) normalize() {}

func (f *joinForm) message(string) string { return msgJoinInvalid }

// ratingForm binds the score as text so a non-numeric score is reported as
// out of range instead of failing the whole bind.
type ratingForm struct {
	FilmID  uint64 `form:"film_id" validate:"gt=0"`
	Score   string `form:"score"`
	Comment string `form:"comment" validate:"max=2000"`
}

func (f *ratingForm) normalize() { trim(&f.Score, &f.Comment) }

func (f *ratingForm) message(field string) string {
	switch field {
	case "Comment":
		return "Comments are limited to 2000 characters."
	}
	return msgRatingFilm
}

// score parses the submitted score and checks the 1 to 5 star range.
func (f *ratingForm) score() (int, error) {
	n, err := strconv.Atoi(f.Score)
	if err != nil || !model.ValidScore(n) {
		return 0, apperr.Invalid(msgRatingRange)
	}
	return n, nil
}

type filmForm struct {
	FilmID   uint64 `form:"film_id"`
	Title    string `form:"title" validate:"required,max=255"`
	Director string `form:"director" validate:"required,max=255"`
	Year     int    `form:"year" validate:"gt=0,lte=9999"`
	Genre    string `form:"genre" validate:"max=100"`
	Synopsis string `form:"synopsis"`
}

func (f *filmForm) normalize() { trim(&f.Title, &f.Director, &f.Genre, &f.Synopsis) }

func (f *filmForm) message(field string) string {
	switch field {
	case "Year":
		return "Please enter a valid release year."
	}
	return "Title, director and a valid year are required."
}

type memberForm struct {
	Name  string `form:"name" validate:"required,max=100"`
	Email string `form:"email" validate:"required,email,max=255"`
	Role  string `form:"role" validate:"required,max=50"`
}

func (f *memberForm) normalize() {
	trim(&f.Name, &f.Email, &f.Role)
	f.Email = strings.ToLower(f.Email)
}

func (f *memberForm) message(field string) string {
	if field == "Email" {
		return "Please enter a valid email address."
	}
	return "Name, email and role are required."
}

type roleForm struct {
	MemberID uint64 `form:"member_id" validate:"gt=0"`
	Role     string `form:"role" validate:"required,max=50"`
}

func (f *roleForm) normalize() { trim(&f.Role) }

func (f *roleForm) message(string) string { return "Please choose a member and a role." }

type screeningForm struct {
	FilmID uint64 `form:"film_id" validate:"gt=0"`
	Date   string `form:"screen_date" validate:"required,datetime=2006-01-02"`
	Time   string `form:"screen_time" validate:"omitempty,datetime=15:04"`
	Venue  string `form:"venue" validate:"required,max=255"`
}

func (f *screeningForm) normalize() { trim(&f.Date, &f.Time, &f.Venue) }

func (f *screeningForm) message(field string) string {
	switch field {
	case "Date":
		return "Please enter the screening date as YYYY-MM-DD."
	case "Time":
		return "Please enter the screening time as HH:MM."
	}
	return "Film, date and venue are required."
}

// idForm carries the single id posted by delete buttons.
type idForm struct {
	FilmID      uint64 `form:"film_id"`
	MemberID    uint64 `form:"member_id"`
	ScreeningID uint64 `form:"screening_id"`
}

func (f *idForm) normalize() {}

func (f *idForm) message(string) string { return "Invalid selection." }
