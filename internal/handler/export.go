package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/filmio/internal/apperr"
	"github.com/iliyamo/filmio/internal/model"
)

var exportTypes = []string{"films", "members", "screenings"}

// utf8BOM lets spreadsheet tools detect the encoding.
const utf8BOM = "\xEF\xBB\xBF"

// export streams a CSV report.  Rows are collected before any byte is
// written so a store failure can still redirect with a notice.
func (h *AdminHandler) export(c echo.Context) error {
	typ := strings.TrimSpace(c.FormValue("export_type"))
	if typ == "" {
		typ = "films"
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	records, err := h.exportRecords(ctx, typ)
	if err != nil {
		return redirectWithError(c, h.Sessions, selfPath(c), err)
	}

	filename := fmt.Sprintf("filmio_%s_%s.csv", typ, h.Now().Format("2006-01-02"))
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	res.WriteHeader(http.StatusOK)

	if _, err := res.Write([]byte(utf8BOM)); err != nil {
		return err
	}
	w := csv.NewWriter(res)
	if err := w.WriteAll(records); err != nil {
		c.Logger().Errorf("[export] write %s: %v", typ, err)
		return err
	}
	return nil
}

// exportRecords returns the header row followed by one row per record.
func (h *AdminHandler) exportRecords(ctx context.Context, typ string) ([][]string, error) {
	switch typ {
	case "films":
		films, err := h.Films.List(ctx, model.FilmFilter{Sort: model.SortByName})
		if err != nil {
			return nil, apperr.StoreFailure("", err)
		}
		out := [][]string{{"ID", "Title", "Director", "Year", "Genre", "Synopsis"}}
		for _, f := range films {
			out = append(out, []string{
				strconv.FormatUint(f.ID, 10), f.Title, f.Director, strconv.Itoa(f.Year), f.Genre, f.Synopsis,
			})
		}
		return out, nil
	case "members":
		members, err := h.Members.List(ctx)
		if err != nil {
			return nil, apperr.StoreFailure("", err)
		}
		out := [][]string{{"ID", "Name", "Email", "Role", "Registered"}}
		for _, m := range members {
			out = append(out, []string{
				strconv.FormatUint(m.ID, 10), m.DisplayName(), m.Email, m.Membership, m.RegisteredOn,
			})
		}
		return out, nil
	case "screenings":
		screenings, err := h.Screenings.ListLatestFirst(ctx)
		if err != nil {
			return nil, apperr.StoreFailure("", err)
		}
		out := [][]string{{"ID", "Film", "Date", "Time", "Venue"}}
		for _, s := range screenings {
			title := s.FilmTitle
			if title == "" {
				title = "Unknown"
			}
			out = append(out, []string{strconv.FormatUint(s.ID, 10), title, s.Date, s.Time, s.Venue})
		}
		return out, nil
	}
	return nil, apperr.Invalid(fmt.Sprintf("Unknown export type %q.", typ))
}
