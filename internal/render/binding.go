package render

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/junsantilla/cvalley/internal/model"
	"github.com/junsantilla/cvalley/internal/store"
)

// Source is the store a binding follows.
type Source interface {
	Get() model.ResumeDocument
	Subscribe(fn func()) store.Unsubscribe
}

// Measurer lays out a rendered page and reports its heights.
type Measurer interface {
	Measure(ctx context.Context, html string) (Measurement, error)
}

type EventKind string

const (
	EventChange   EventKind = "change"
	EventOverflow EventKind = "overflow"
)

// Event is delivered to listeners after a re-render (EventChange) or when a
// measurement finds the page overflowing (EventOverflow).
type Event struct {
	Kind     EventKind
	Document *VisualDocument
	Warning  *OverflowWarning
}

type BindingOption func(*Binding)

// WithImage supplies the session image preview on every render.
func WithImage(preview func() string) BindingOption {
	return func(b *Binding) { b.image = preview }
}

// WithMeasurer checks every rendered page for overflow in the background.
func WithMeasurer(m Measurer, timeout time.Duration) BindingOption {
	return func(b *Binding) {
		b.measurer = m
		b.measureTimeout = timeout
	}
}

// Binding feeds one variant from the store: it re-renders on every change,
// keeps the latest result and fans it out to listeners.
type Binding struct {
	src            Source
	variant        Variant
	log            *zap.Logger
	image          func() string
	measurer       Measurer
	measureTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	unsub  store.Unsubscribe

	mu        sync.RWMutex
	current   *VisualDocument
	warning   *OverflowWarning
	gen       uint64
	listeners map[uint64]func(Event)
	nextID    uint64
}

// Bind renders v from src once and then after every store change until
// Close.
func Bind(src Source, v Variant, log *zap.Logger, opts ...BindingOption) *Binding {
	b := &Binding{
		src:            src,
		variant:        v,
		log:            log.With(zap.String("template", v.ID())),
		measureTimeout: 10 * time.Second,
		listeners:      map[uint64]func(Event){},
	}
	for _, o := range opts {
		o(b)
	}
	b.ctx, b.cancel = context.WithCancel(context.Background())
	b.Refresh()
	b.unsub = src.Subscribe(b.Refresh)
	return b
}

// Refresh re-renders from the store's current document.
func (b *Binding) Refresh() {
	doc := b.src.Get()
	preview := ""
	if b.image != nil {
		preview = b.image()
	}
	vd, err := b.variant.Render(&doc, preview)
	if err != nil {
		b.log.Error("rendering template failed", zap.Error(err))
		return
	}

	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.current = vd
	if vd.Placeholder {
		b.warning = nil
	}
	b.mu.Unlock()

	b.emit(Event{Kind: EventChange, Document: vd})

	if b.measurer != nil && !vd.Placeholder {
		go b.measure(gen, vd)
	}
}

func (b *Binding) measure(gen uint64, vd *VisualDocument) {
	ctx, cancel := context.WithTimeout(b.ctx, b.measureTimeout)
	defer cancel()
	m, err := b.measurer.Measure(ctx, vd.HTML)
	if err != nil {
		if b.ctx.Err() == nil {
			b.log.Warn("measuring rendered page failed", zap.Error(err))
		}
		return
	}

	w := CheckOverflow(m)
	b.mu.Lock()
	if gen != b.gen {
		// a newer render superseded this one
		b.mu.Unlock()
		return
	}
	b.warning = w
	b.mu.Unlock()

	if w != nil {
		b.log.Warn("document may overflow one page",
			zap.Float64("content", m.Content), zap.Float64("container", m.Container))
		b.emit(Event{Kind: EventOverflow, Document: vd, Warning: w})
	}
}

// Current returns the latest rendered document.
func (b *Binding) Current() *VisualDocument {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Warning returns the overflow warning for the latest render, if any.
func (b *Binding) Warning() *OverflowWarning {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.warning
}

func (b *Binding) Variant() Variant { return b.variant }

// Listen registers fn for every event until the returned func is called.
// fn must not block.
func (b *Binding) Listen(fn func(Event)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

func (b *Binding) emit(ev Event) {
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Close stops following the store and abandons pending measurements.
func (b *Binding) Close() {
	b.unsub()
	b.cancel()
}
