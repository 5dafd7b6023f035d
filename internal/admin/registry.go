// Package admin hosts the operator-facing tool pages. Pages are registered
// once at startup and dispatched by the "page" query parameter; every
// request is authenticated and capability-checked before the page runs.
package admin

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"

	"github.com/rs/zerolog"
)

// MsgNoPermission is shown when the caller may not open a page.
const MsgNoPermission = "You do not have sufficient permissions to access this page."

// Page is one admin tool page.
type Page struct {
	Slug       string // value of ?page=
	Title      string
	Capability string
	Handler    http.Handler
}

// Registry dispatches admin requests to registered pages.
type Registry struct {
	auth  *Authenticator
	pages map[string]Page
	log   zerolog.Logger
}

func NewRegistry(auth *Authenticator, log zerolog.Logger) *Registry {
	return &Registry{
		auth:  auth,
		pages: make(map[string]Page),
		log:   log.With().Str("component", "admin").Logger(),
	}
}

// Register adds p. Slugs are unique and every page needs a capability.
func (r *Registry) Register(p Page) error {
	if p.Slug == "" || p.Handler == nil {
		return fmt.Errorf("admin page needs a slug and a handler")
	}
	if p.Capability == "" {
		return fmt.Errorf("admin page %q has no capability", p.Slug)
	}
	if _, dup := r.pages[p.Slug]; dup {
		return fmt.Errorf("admin page %q already registered", p.Slug)
	}
	r.pages[p.Slug] = p
	r.log.Info().Str("page", p.Slug).Str("capability", p.Capability).Msg("Admin page registered")
	return nil
}

// Pages lists registered pages ordered by slug.
func (r *Registry) Pages() []Page {
	out := make([]Page, 0, len(r.pages))
	for _, p := range r.pages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	slug := req.URL.Query().Get("page")
	page, ok := r.pages[slug]
	if !ok {
		Die(w, http.StatusNotFound, "Page not found", "The requested admin page does not exist.")
		return
	}

	user, err := r.auth.Authenticate(req)
	switch {
	case errors.Is(err, ErrUnauthenticated):
		r.log.Debug().Err(err).Str("page", slug).Msg("Rejected unauthenticated request")
		Die(w, http.StatusUnauthorized, "Not logged in", MsgNoPermission)
		return
	case err != nil:
		r.log.Error().Err(err).Str("page", slug).Msg("Session lookup failed")
		Die(w, http.StatusInternalServerError, "Error", "Internal Server Error")
		return
	}

	if !Can(user.Role, page.Capability) {
		r.log.Warn().
			Err(ErrForbidden).
			Int64("user_id", user.ID).
			Str("role", user.Role).
			Str("page", slug).
			Msg("Rejected request without capability")
		Die(w, http.StatusForbidden, "Forbidden", MsgNoPermission)
		return
	}

	page.Handler.ServeHTTP(w, req.WithContext(WithUser(req.Context(), user)))
}

var dieTmpl = template.Must(template.New("die").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>{{.Title}}</title></head>
<body id="error-page"><div class="wp-die-message">{{.Message}}</div></body>
</html>
`))

// Die ends the response with a short HTML error page.
func Die(w http.ResponseWriter, status int, title, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = dieTmpl.Execute(w, struct{ Title, Message string }{title, msg})
}
