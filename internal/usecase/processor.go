package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/junsantilla/cvalley/internal/domain"
	"github.com/junsantilla/cvalley/internal/metrics"
	"github.com/junsantilla/cvalley/internal/render"
)

var (
	ErrElementNotFound  = errors.New("export target element not found")
	ErrRasterization    = errors.New("rasterization failed")
	ErrExportInProgress = errors.New("an export is already in progress")
)

// Rasterizer captures one element of an HTML page as a PNG.
type Rasterizer interface {
	RenderNodeToImage(ctx context.Context, html, elementID string) ([]byte, error)
}

// Packer places a PNG on a single A4-wide PDF page.
type Packer interface {
	PackImageIntoPDF(ctx context.Context, png []byte) ([]byte, error)
}

type JobsRepo interface {
	Save(ctx context.Context, j *domain.ExportJob) error
}

// Request is one export of a rendered template.
type Request struct {
	TemplateID string
	HTML       string
	// ElementID defaults to render.CaptureElementID.
	ElementID string
	// FileName overrides the configured base name.
	FileName string
}

type Option func(*Exporter)

func WithBaseName(name string) Option {
	return func(e *Exporter) {
		if name != "" {
			e.baseName = name
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(e *Exporter) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithRetry sets how many times rasterization is attempted and the first
// backoff, doubled after every failure.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(e *Exporter) {
		if attempts > 0 {
			e.attempts = attempts
		}
		e.backoff = backoff
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Exporter) { e.metrics = m }
}

// Exporter turns a rendered template into a downloadable PNG or PDF. Only
// one export runs at a time.
type Exporter struct {
	raster   Rasterizer
	packer   Packer
	repo     JobsRepo
	log      *zap.Logger
	metrics  *metrics.Metrics
	baseName string
	timeout  time.Duration
	attempts int
	backoff  time.Duration

	busy atomic.Bool
}

func NewExporter(r Rasterizer, p Packer, repo JobsRepo, log *zap.Logger, opts ...Option) *Exporter {
	e := &Exporter{
		raster:   r,
		packer:   p,
		repo:     repo,
		log:      log,
		baseName: "cvalley",
		timeout:  60 * time.Second,
		attempts: 2,
		backoff:  time.Second,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ExportAsImage rasterizes the request's element and hands the PNG to sink.
func (e *Exporter) ExportAsImage(ctx context.Context, req Request, sink Sink) (*domain.ExportJob, error) {
	return e.export(ctx, domain.FormatPNG, req, sink)
}

// ExportAsPdf rasterizes the request's element, packs the image into a
// single-page PDF and hands it to sink.
func (e *Exporter) ExportAsPdf(ctx context.Context, req Request, sink Sink) (*domain.ExportJob, error) {
	return e.export(ctx, domain.FormatPDF, req, sink)
}

// Busy reports whether an export is running.
func (e *Exporter) Busy() bool { return e.busy.Load() }

// FileName is the name an export of format gets when the caller names none.
func (e *Exporter) FileName(name, format string) string {
	if name == "" {
		name = e.baseName
	}
	if !strings.HasSuffix(strings.ToLower(name), "."+format) {
		name += "." + format
	}
	return name
}

func (e *Exporter) export(ctx context.Context, format string, req Request, sink Sink) (*domain.ExportJob, error) {
	if !e.busy.CompareAndSwap(false, true) {
		e.log.Info("export rejected, another one is running", zap.String("format", format))
		e.metrics.Export(format, "in_progress", 0)
		return nil, ErrExportInProgress
	}
	defer e.busy.Store(false)

	if req.ElementID == "" {
		req.ElementID = render.CaptureElementID
	}
	start := time.Now()
	job := &domain.ExportJob{
		ID:         uuid.New(),
		TemplateID: req.TemplateID,
		Format:     format,
		FileName:   e.FileName(req.FileName, format),
		Status:     domain.StatusRunning,
		Metadata:   map[string]interface{}{"element_id": req.ElementID},
		CreatedAt:  start,
		UpdatedAt:  start,
	}
	e.save(ctx, job)

	log := e.log.With(zap.String("job_id", job.ID.String()), zap.String("format", format),
		zap.String("template", req.TemplateID))

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	data, attempts, err := e.produce(ctx, format, req, log)
	job.Metadata["attempts"] = attempts
	if err == nil {
		out := Output{FileName: job.FileName, ContentType: job.ContentType(), Data: data}
		if derr := sink.Deliver(ctx, out); derr != nil {
			err = fmt.Errorf("deliver %s: %w", job.FileName, derr)
		}
	}

	elapsed := time.Since(start)
	job.UpdatedAt = time.Now()
	job.Metadata["duration_ms"] = elapsed.Milliseconds()
	outcome := "ok"
	switch {
	case err == nil:
		job.Status = domain.StatusCompleted
		job.Size = len(data)
		log.Info("export completed", zap.String("file", job.FileName), zap.Int("bytes", len(data)),
			zap.Duration("took", elapsed))
	case errors.Is(err, ErrElementNotFound):
		outcome = "element_not_found"
		job.Status = domain.StatusFailed
		job.Error = err.Error()
		log.Warn("export aborted, no file written", zap.Error(err))
	default:
		outcome = "error"
		job.Status = domain.StatusFailed
		job.Error = err.Error()
		log.Error("export failed, no file written", zap.Error(err))
	}
	e.metrics.Export(format, outcome, elapsed.Seconds())
	// the request context may already be done; the record should still land
	e.save(context.Background(), job)
	return job, err
}

// produce returns the encoded export and how many attempts it took.
func (e *Exporter) produce(ctx context.Context, format string, req Request, log *zap.Logger) ([]byte, int, error) {
	found, err := hasElement(req.HTML, req.ElementID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: parse page: %w", ErrRasterization, err)
	}
	if !found {
		return nil, 0, fmt.Errorf("%w: #%s", ErrElementNotFound, req.ElementID)
	}

	var lastErr error
	for i := 0; i < e.attempts; i++ {
		out, err := e.attempt(ctx, format, req)
		if err == nil {
			return out, i + 1, nil
		}
		lastErr = err
		log.Warn("export attempt failed", zap.Int("attempt", i+1), zap.Error(err))
		if errors.Is(err, ErrElementNotFound) {
			return nil, i + 1, err
		}
		// exponential backoff before retrying
		if i < e.attempts-1 {
			select {
			case <-time.After(time.Duration(1<<i) * e.backoff):
			case <-ctx.Done():
				return nil, i + 1, fmt.Errorf("%w: %w", ErrRasterization, ctx.Err())
			}
		}
	}
	return nil, e.attempts, fmt.Errorf("%w: %w", ErrRasterization, lastErr)
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func (e *Exporter) attempt(ctx context.Context, format string, req Request) ([]byte, error) {
	img, err := e.raster.RenderNodeToImage(ctx, req.HTML, req.ElementID)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(img, pngSignature) {
		return nil, fmt.Errorf("invalid PNG output (len=%d)", len(img))
	}
	if format == domain.FormatPNG {
		return img, nil
	}

	pdf, err := e.packer.PackImageIntoPDF(ctx, img)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return nil, fmt.Errorf("invalid PDF output (len=%d)", len(pdf))
	}
	return pdf, nil
}

func (e *Exporter) save(ctx context.Context, job *domain.ExportJob) {
	if e.repo == nil {
		return
	}
	if err := e.repo.Save(ctx, job); err != nil {
		e.log.Warn("recording export job failed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
}

// hasElement reports whether the page has an element with the given id.
func hasElement(page, id string) (bool, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return false, err
	}
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" && a.Val == id {
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	return walk(root), nil
}
