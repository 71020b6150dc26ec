package infrastructure

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/junsantilla/cvalley/internal/render"
	"github.com/junsantilla/cvalley/internal/usecase"
)

// A4 paper in inches.
const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
)

type ChromeOptions struct {
	// ExecPath overrides the browser binary.
	ExecPath string
	// Scale is the device pixel ratio screenshots are taken at.
	Scale   float64
	Timeout time.Duration
}

// ChromedpRenderer drives a headless Chrome per call: element screenshots
// for image export, print-to-PDF for packing, and layout measurement for the
// overflow check.
type ChromedpRenderer struct {
	opts ChromeOptions
	log  *zap.Logger
}

func NewChromedpRenderer(opts ChromeOptions, log *zap.Logger) *ChromedpRenderer {
	if opts.Scale <= 0 {
		opts.Scale = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &ChromedpRenderer{opts: opts, log: log}
}

// RenderNodeToImage screenshots the element with elementID as a PNG.
func (r *ChromedpRenderer) RenderNodeToImage(ctx context.Context, html, elementID string) ([]byte, error) {
	var (
		found bool
		buf   []byte
	)
	err := r.run(ctx, html,
		chromedp.EmulateViewport(1280, 1800, chromedp.EmulateScale(r.opts.Scale)),
		chromedp.Evaluate(fmt.Sprintf(`document.getElementById(%q) !== null`, elementID), &found),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if !found {
				return fmt.Errorf("%w: #%s", usecase.ErrElementNotFound, elementID)
			}
			return chromedp.Screenshot(`[id="`+elementID+`"]`, &buf, chromedp.NodeVisible, chromedp.ByQuery).Do(ctx)
		}),
	)
	if err != nil {
		return nil, err
	}
	r.log.Debug("captured element", zap.String("element", elementID), zap.Int("bytes", len(buf)))
	return buf, nil
}

// PackImageIntoPDF prints a single A4 page holding img scaled to the page
// width and anchored at the top. Anything taller than the page is cut off.
func (r *ChromedpRenderer) PackImageIntoPDF(ctx context.Context, img []byte) ([]byte, error) {
	doc, err := pdfPage(img)
	if err != nil {
		return nil, err
	}

	var pdfBuf []byte
	err = r.run(ctx, doc,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().WithPrintBackground(true).
				WithPaperWidth(a4WidthInches).
				WithPaperHeight(a4HeightInches).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPageRanges("1").
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}

// pdfPage is the one-page document the PNG is printed from.
func pdfPage(img []byte) (string, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return "", fmt.Errorf("decode png: %w", err)
	}
	if cfg.Width == 0 {
		return "", errors.New("decode png: zero width")
	}
	heightInches := a4WidthInches * float64(cfg.Height) / float64(cfg.Width)

	return fmt.Sprintf(`<!DOCTYPE html><html><head><style>
@page { size: %.2fin %.2fin; margin: 0; }
html, body { margin: 0; padding: 0; width: %.2fin; height: %.2fin; overflow: hidden; }
img { display: block; width: %.4fin; height: %.4fin; }
</style></head><body><img src="data:image/png;base64,%s"></body></html>`,
		a4WidthInches, a4HeightInches, a4WidthInches, a4HeightInches,
		a4WidthInches, heightInches, base64.StdEncoding.EncodeToString(img)), nil
}

// Measure lays html out and reports the A4 container and capture element
// heights, the way the overflow check compares them.
func (r *ChromedpRenderer) Measure(ctx context.Context, html string) (render.Measurement, error) {
	var m struct {
		OK        bool    `json:"ok"`
		Container float64 `json:"container"`
		Content   float64 `json:"content"`
	}
	script := fmt.Sprintf(`(() => {
	const c = document.getElementById(%q), e = document.getElementById(%q);
	if (!c || !e) return {ok: false, container: 0, content: 0};
	return {ok: true, container: parseFloat(getComputedStyle(c).height), content: parseFloat(getComputedStyle(e).height)};
})()`, render.ContainerID, render.CaptureElementID)

	if err := r.run(ctx, html, chromedp.Evaluate(script, &m)); err != nil {
		return render.Measurement{}, err
	}
	if !m.OK {
		return render.Measurement{}, fmt.Errorf("%w: #%s", usecase.ErrElementNotFound, render.ContainerID)
	}
	return render.Measurement{Container: m.Container, Content: m.Content}, nil
}

// run loads html from a temporary file in a fresh headless browser and
// performs actions once the body is ready.
func (r *ChromedpRenderer) run(ctx context.Context, html string, actions ...chromedp.Action) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.opts.ExecPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	ctx2, cancel2 := context.WithTimeout(cctx, r.opts.Timeout)
	defer cancel2()

	tmpDir, err := os.MkdirTemp("", "cvalley-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return err
	}

	steps := append([]chromedp.Action{
		chromedp.Navigate("file://" + htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}, actions...)
	if err := chromedp.Run(ctx2, steps...); err != nil {
		return fmt.Errorf("chrome: %w", err)
	}
	return nil
}
