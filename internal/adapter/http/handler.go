package http

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/junsantilla/cvalley/internal/domain"
	"github.com/junsantilla/cvalley/internal/form"
	"github.com/junsantilla/cvalley/internal/metrics"
	"github.com/junsantilla/cvalley/internal/render"
	"github.com/junsantilla/cvalley/internal/session"
	"github.com/junsantilla/cvalley/internal/usecase"
)

type ExportsLister interface {
	Recent(ctx context.Context) ([]domain.ExportJob, error)
	Get(ctx context.Context, id uuid.UUID) (domain.ExportJob, bool)
}

// errShuttingDown answers requests that arrive after Close.
var errShuttingDown = errors.New("server is shutting down")

// Deps is everything the handlers reach.
type Deps struct {
	Controller *form.Controller
	Source     render.Source
	Exporter   *usecase.Exporter
	Exports    ExportsLister
	Session    *session.Session
	// Measurer, when set, checks previews for overflow.
	Measurer       render.Measurer
	MeasureTimeout time.Duration
	Metrics        *metrics.Metrics
	Log            *zap.Logger
}

type Handler struct {
	Deps

	mu       sync.Mutex
	bindings map[string]*render.Binding
	done     chan struct{}
	closed   bool
}

func NewHandler(d Deps) *Handler {
	if d.MeasureTimeout <= 0 {
		d.MeasureTimeout = 10 * time.Second
	}
	return &Handler{Deps: d, bindings: map[string]*render.Binding{}, done: make(chan struct{})}
}

// Register mounts every route on app.
func (h *Handler) Register(app *fiber.App) {
	app.Use(recover.New())
	app.Use(h.requestLog)

	app.Get("/templates", h.ListTemplates)
	app.Get("/cv-builder", h.Preview)

	app.Get("/document", h.GetDocument)
	app.Put("/document", h.ReplaceDocument)
	app.Delete("/document", h.ClearDocument)
	app.Post("/document/sample", h.LoadSample)
	app.Put("/document/image", h.SetImage)
	app.Put("/document/fields/:name", h.SetField)
	app.Post("/document/:section", h.AppendEntry)
	app.Put("/document/:section/:index/:field", h.SetEntryField)
	app.Delete("/document/:section/:index", h.RemoveEntry)

	app.Get("/events", h.Events)

	app.Get("/export/image", h.Export(domain.FormatPNG))
	app.Get("/export/pdf", h.Export(domain.FormatPDF))
	app.Get("/exports", h.ListExports)
	app.Get("/exports/:id", h.GetExport)

	app.Get("/session", h.GetSession)
	app.Post("/session/signin", h.SignIn)
	app.Post("/session/signout", h.SignOut)

	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.Metrics.Registry, promhttp.HandlerOpts{})))
	}
}

// Close ends open event streams and stops the template bindings.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for _, b := range h.bindings {
		b.Close()
	}
}

// binding returns the live binding for a template, creating it on first use.
func (h *Handler) binding(templateID string) (*render.Binding, error) {
	v, err := render.Lookup(templateID)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, errShuttingDown
	}
	if b, ok := h.bindings[templateID]; ok {
		return b, nil
	}
	templateID = utils.CopyString(templateID)
	opts := []render.BindingOption{render.WithImage(h.Controller.ImagePreview)}
	if h.Measurer != nil {
		opts = append(opts, render.WithMeasurer(h.Measurer, h.MeasureTimeout))
	}
	b := render.Bind(h.Source, v, h.Log, opts...)
	h.bindings[templateID] = b
	return b, nil
}

func (h *Handler) refreshBindings() {
	h.mu.Lock()
	bs := make([]*render.Binding, 0, len(h.bindings))
	for _, b := range h.bindings {
		bs = append(bs, b)
	}
	h.mu.Unlock()
	for _, b := range bs {
		b.Refresh()
	}
}

func (h *Handler) requestLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	h.Log.Debug("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("took", time.Since(start)))
	return err
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, form.ErrValidationRejected):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, form.ErrUnknownField),
		errors.Is(err, form.ErrUnknownSection),
		errors.Is(err, render.ErrUnknownTemplate):
		return fiber.StatusBadRequest
	case errors.Is(err, form.ErrIndexOutOfRange),
		errors.Is(err, form.ErrEntryNotFound),
		errors.Is(err, usecase.ErrElementNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, usecase.ErrExportInProgress):
		return fiber.StatusConflict
	case errors.Is(err, usecase.ErrRasterization):
		return fiber.StatusBadGateway
	case errors.Is(err, form.ErrNotReady), errors.Is(err, errShuttingDown):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, session.ErrSignedOut):
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}
