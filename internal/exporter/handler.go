package exporter

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/admin"
	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/events"
)

const (
	// PageSlug is the admin page this handler is registered under.
	PageSlug  = "export-to-html"
	PageTitle = "Export to HTML"

	// ExportFilename is the download name of the export document.
	ExportFilename = "exported_posts.html"

	MsgEmptySelection = "No posts selected for export."
	MsgNoRecords      = "No posts found for the selected IDs."
)

// Notifier is told about every delivered export.
type Notifier interface {
	ExportCompleted(ctx context.Context, ev events.ExportEvent) error
}

// NewLimiter returns the export rate limiter, or nil when perSecond is 0.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Handler serves the export page: GET renders the listing, a POST carrying
// the export marker downloads the selected records.
type Handler struct {
	svc     *Service
	notify  Notifier
	limiter *rate.Limiter
	log     zerolog.Logger
	now     func() time.Time
}

// NewHandler wires the page. notify and limiter may be nil.
func NewHandler(svc *Service, notify Notifier, limiter *rate.Limiter, log zerolog.Logger) *Handler {
	return &Handler{
		svc:     svc,
		notify:  notify,
		limiter: limiter,
		log:     log.With().Str("component", "exporter").Logger(),
		now:     time.Now,
	}
}

// Page returns the admin registration of the handler.
func (h *Handler) Page() admin.Page {
	return admin.Page{
		Slug:       PageSlug,
		Title:      PageTitle,
		Capability: admin.CapEditPosts,
		Handler:    h,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.renderListing(w, r, "")
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			admin.Die(w, http.StatusBadRequest, "Bad Request", "The submitted form could not be read.")
			return
		}
		if _, ok := r.PostForm[ParamExport]; !ok {
			h.renderListing(w, r, "")
			return
		}
		h.export(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		admin.Die(w, http.StatusMethodNotAllowed, "Method Not Allowed", "Method Not Allowed")
	}
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.limiter != nil && !h.limiter.Allow() {
		h.log.Warn().Msg("Export rate limit exceeded")
		w.Header().Set("Retry-After", "1")
		admin.Die(w, http.StatusTooManyRequests, "Too Many Requests", "Too many exports, try again shortly.")
		return
	}

	records, err := h.svc.Export(ctx, r.PostForm[ParamIDs])
	switch {
	case errors.Is(err, ErrEmptySelection):
		h.renderListing(w, r, MsgEmptySelection)
		return
	case errors.Is(err, ErrNoRecords):
		h.renderListing(w, r, MsgNoRecords)
		return
	case err != nil:
		h.log.Error().Err(err).Msg("Export failed")
		admin.Die(w, http.StatusInternalServerError, "Error", "Internal Server Error")
		return
	}

	body, err := RenderExport(records, h.svc.Features())
	if err != nil {
		h.log.Error().Err(err).Msg("Export render failed")
		admin.Die(w, http.StatusInternalServerError, "Error", "Internal Server Error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.log.Warn().Err(err).Msg("Export write interrupted")
		return
	}

	ev := events.ExportEvent{
		ExportID:   uuid.NewString(),
		RecordIDs:  make([]int64, len(records)),
		Count:      len(records),
		ExportedAt: h.now().UTC(),
	}
	for i, rec := range records {
		ev.RecordIDs[i] = rec.ID
	}
	if u, ok := admin.UserFromContext(ctx); ok {
		ev.UserID = u.ID
	}
	h.log.Info().
		Str("export_id", ev.ExportID).
		Int64("user_id", ev.UserID).
		Int("count", ev.Count).
		Msg("Export delivered")

	if h.notify == nil {
		return
	}
	// The download is already delivered; a lost notification is only logged.
	if err := h.notify.ExportCompleted(ctx, ev); err != nil {
		h.log.Warn().Err(err).Str("export_id", ev.ExportID).Msg("Failed to publish export event")
	}
}

func (h *Handler) renderListing(w http.ResponseWriter, r *http.Request, notice string) {
	q := r.URL.Query()
	listing, err := h.svc.Listing(r.Context(), ParseFilter(q), ParsePage(q.Get(ParamPage)))
	if err != nil {
		h.log.Error().Err(err).Msg("Listing failed")
		admin.Die(w, http.StatusInternalServerError, "Error", "Internal Server Error")
		return
	}

	body, err := renderListing(listingView{
		Title:    PageTitle,
		Slug:     PageSlug,
		Notice:   notice,
		Features: h.svc.Features(),
		Listing:  listing,
		Pages:    paginate(r.URL, listing.Page, listing.TotalPages),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Listing render failed")
		admin.Die(w, http.StatusInternalServerError, "Error", "Internal Server Error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}
