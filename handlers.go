package pubindex

import (
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pubindex/logger"
	"github.com/eringen/pubindex/views"
)

func handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRelations(c echo.Context) error {
	entry, err := s.Cache.Entry(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "unknown slug")
		}
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

func (s *Server) handlePreview(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := s.Cache.Posts(ctx)
	if err != nil {
		return err
	}
	rows := make([]views.Post, 0, len(posts))
	for _, p := range posts {
		row := views.Post{Slug: p.Slug, Title: p.Title, Date: p.DateString(), Tags: p.Tags}
		entry, err := s.Cache.Entry(ctx, p.Slug)
		switch {
		case errors.Is(err, ErrNotFound):
			row.Missing = true
		case err != nil:
			return err
		default:
			row.Prev = previewLink(entry.Navigation.Prev)
			row.Next = previewLink(entry.Navigation.Next)
			for i := range entry.Related {
				row.Related = append(row.Related, *previewLink(&entry.Related[i]))
			}
		}
		rows = append(rows, row)
	}
	site := views.Site{Name: s.Config.Site.Name, URL: s.Config.Site.URL}
	return Render(c, views.Preview(site, rows))
}

func previewLink(p *Summary) *views.Link {
	if p == nil {
		return nil
	}
	return &views.Link{Title: p.Title, Href: "#" + p.Slug, Date: p.DateString()}
}

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := any(http.StatusText(code))
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = he.Message
	}
	if code >= 500 {
		logger.FromContext(c.Request().Context()).Error("server error", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]any{"error": msg})
}
