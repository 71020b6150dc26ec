// Package form turns field edits into résumé document mutations and writes
// them through to the persisted store.
package form

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/junsantilla/cvalley/internal/metrics"
	"github.com/junsantilla/cvalley/internal/model"
	"github.com/junsantilla/cvalley/internal/store"
)

// Store is the persisted document the controller writes through to.
type Store interface {
	Get() model.ResumeDocument
	Set(doc model.ResumeDocument)
	Update(fn func(prev model.ResumeDocument) model.ResumeDocument)
	Subscribe(fn func()) store.Unsubscribe
}

type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "uninitialized"
}

type Option func(*Controller)

// WithStrict makes out-of-range index writes panic instead of being logged
// and ignored. Development builds turn it on.
func WithStrict(strict bool) Option {
	return func(c *Controller) { c.strict = strict }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithIDGenerator replaces uuid-based entry ids.
func WithIDGenerator(next func() string) Option {
	return func(c *Controller) { c.newID = next }
}

// Controller is the single writer of the résumé document during editing.
// It keeps a live copy that converges with the store after every write, and
// re-syncs when the store changes underneath it.
type Controller struct {
	store   Store
	log     *zap.Logger
	metrics *metrics.Metrics
	strict  bool
	newID   func() string

	// mu serializes writers; liveMu guards the live copy and preview so the
	// store's change callback never waits on a writer.
	mu     sync.Mutex
	liveMu sync.RWMutex
	state  State
	live   model.ResumeDocument
	image  string
	unsub  store.Unsubscribe
}

func NewController(s Store, log *zap.Logger, opts ...Option) *Controller {
	c := &Controller{store: s, log: log, newID: uuid.NewString, live: model.Empty()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Open performs the first read from the store and moves to Ready. Later
// calls do nothing.
func (c *Controller) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() == Ready {
		return
	}

	doc := c.store.Get()
	if missingIDs(doc) {
		doc.AssignIDs(c.newID)
		c.store.Set(doc)
	}
	c.unsub = c.store.Subscribe(c.syncLive)

	c.liveMu.Lock()
	c.live = c.store.Get()
	c.state = Ready
	c.liveMu.Unlock()
}

// Close stops following the store.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
}

func (c *Controller) State() State {
	c.liveMu.RLock()
	defer c.liveMu.RUnlock()
	return c.state
}

// Document returns a copy of the live document.
func (c *Controller) Document() model.ResumeDocument {
	c.liveMu.RLock()
	defer c.liveMu.RUnlock()
	return c.live.Clone()
}

func (c *Controller) syncLive() {
	doc := c.store.Get()
	c.liveMu.Lock()
	c.live = doc
	c.liveMu.Unlock()
}

// SetScalarField assigns one personal field, merging into the stored document.
// Values over the field's cap are rejected and the prior value kept.
func (c *Controller) SetScalarField(name, value string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != Ready {
		return rejected(ErrNotReady)
	}
	if err := c.check(model.SectionPersonal, name, value); err != nil {
		return rejected(err)
	}

	c.store.Update(func(prev model.ResumeDocument) model.ResumeDocument {
		prev.SetScalar(name, value)
		return prev
	})
	c.syncLive()
	return Result{Index: -1}
}

// SetEntryField assigns a field of the entry at index. An index outside the
// section is a caller bug.
func (c *Controller) SetEntryField(section model.Section, index int, field, value string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if res, ok := c.precheckEntry(section, field, value); !ok {
		return res
	}
	if n := c.Document().Len(section); index < 0 || index >= n {
		return c.outOfRange("set entry field", section, index, n)
	}
	return c.applyEntryField(section, index, field, value)
}

// SetEntryFieldByID is SetEntryField addressed by the entry's stable id.
func (c *Controller) SetEntryFieldByID(section model.Section, id, field, value string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if res, ok := c.precheckEntry(section, field, value); !ok {
		return res
	}
	index := c.Document().IndexOf(section, id)
	if index < 0 {
		return rejected(fmt.Errorf("%w: %s %q", ErrEntryNotFound, section, id))
	}
	return c.applyEntryField(section, index, field, value)
}

func (c *Controller) precheckEntry(section model.Section, field, value string) (Result, bool) {
	if c.State() != Ready {
		return rejected(ErrNotReady), false
	}
	if _, ok := model.ParseSection(string(section)); !ok {
		return rejected(fmt.Errorf("%w: %q", ErrUnknownSection, section)), false
	}
	if err := c.check(section, field, value); err != nil {
		return rejected(err), false
	}
	return Result{}, true
}

func (c *Controller) applyEntryField(section model.Section, index int, field, value string) Result {
	id := c.Document().EntryID(section, index)
	c.store.Update(func(prev model.ResumeDocument) model.ResumeDocument {
		// another context may have reshaped the section since the check
		if i := locate(prev, section, index, id); i >= 0 {
			prev.SetEntryField(section, i, field, value)
		}
		return prev
	})
	c.syncLive()
	return Result{Index: index, ID: id}
}

// AppendEntry adds an entry built from fields (nil for a blank entry) at the
// end of section and returns its index and id.
func (c *Controller) AppendEntry(section model.Section, fields map[string]string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != Ready {
		return rejected(ErrNotReady)
	}
	if _, ok := model.ParseSection(string(section)); !ok {
		return rejected(fmt.Errorf("%w: %q", ErrUnknownSection, section))
	}
	for name, value := range fields {
		if err := c.check(section, name, value); err != nil {
			return rejected(err)
		}
	}

	id := c.newID()
	index := -1
	c.store.Update(func(prev model.ResumeDocument) model.ResumeDocument {
		switch section {
		case model.SectionEmployment:
			e := model.EmploymentEntry{ID: id}
			for k, v := range fields {
				e.Set(k, v)
			}
			prev.Employment = append(prev.Employment, e)
		case model.SectionEducation:
			e := model.EducationEntry{ID: id}
			for k, v := range fields {
				e.Set(k, v)
			}
			prev.Education = append(prev.Education, e)
		case model.SectionSkills:
			s := model.SkillEntry{ID: id}
			for k, v := range fields {
				s.Set(k, v)
			}
			prev.Skills = append(prev.Skills, s)
		}
		index = prev.Len(section) - 1
		return prev
	})
	c.syncLive()
	return Result{Index: index, ID: id}
}

// RemoveEntry drops the entry at index; later entries shift down. Removing
// the last entry leaves the section empty.
func (c *Controller) RemoveEntry(section model.Section, index int) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != Ready {
		return rejected(ErrNotReady)
	}
	if _, ok := model.ParseSection(string(section)); !ok {
		return rejected(fmt.Errorf("%w: %q", ErrUnknownSection, section))
	}
	doc := c.Document()
	if n := doc.Len(section); index < 0 || index >= n {
		return c.outOfRange("remove entry", section, index, n)
	}
	return c.remove(section, index, doc.EntryID(section, index))
}

// RemoveEntryByID is RemoveEntry addressed by the entry's stable id.
func (c *Controller) RemoveEntryByID(section model.Section, id string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != Ready {
		return rejected(ErrNotReady)
	}
	index := c.Document().IndexOf(section, id)
	if index < 0 {
		return rejected(fmt.Errorf("%w: %s %q", ErrEntryNotFound, section, id))
	}
	return c.remove(section, index, id)
}

func (c *Controller) remove(section model.Section, index int, id string) Result {
	c.store.Update(func(prev model.ResumeDocument) model.ResumeDocument {
		if i := locate(prev, section, index, id); i >= 0 {
			prev.RemoveAt(section, i)
		}
		return prev
	})
	c.syncLive()
	return Result{Index: index, ID: id}
}

// LoadDocument replaces the whole document in a single store write.
func (c *Controller) LoadDocument(doc model.ResumeDocument) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != Ready {
		return rejected(ErrNotReady)
	}
	doc = doc.Clone()
	doc.Normalize()
	if err := model.Validate(doc); err != nil {
		c.log.Debug("document load rejected", zap.Error(err))
		return rejected(fmt.Errorf("%w: %w", ErrValidationRejected, err))
	}
	c.reassignIDs(&doc)
	c.store.Set(doc)
	c.syncLive()
	return Result{Index: -1}
}

// ClearDocument resets to the empty default.
func (c *Controller) ClearDocument() Result {
	return c.LoadDocument(model.Empty())
}

// LoadSample replaces the document with the built-in sample.
func (c *Controller) LoadSample() Result {
	return c.LoadDocument(model.Sample())
}

// SetImagePreview keeps a decoded profile image for this session only; it is
// not persisted. An empty value removes it.
func (c *Controller) SetImagePreview(dataURL string) Result {
	if c.State() != Ready {
		return rejected(ErrNotReady)
	}
	if dataURL != "" && !strings.HasPrefix(dataURL, "data:image/") {
		return rejected(&ValidationError{Section: model.SectionPersonal, Field: "imagePreview", Reason: "not an image data URL"})
	}
	c.liveMu.Lock()
	c.image = dataURL
	c.liveMu.Unlock()
	return Result{Index: -1}
}

// ImagePreview returns the session image, falling back to the stored one.
func (c *Controller) ImagePreview() string {
	c.liveMu.RLock()
	defer c.liveMu.RUnlock()
	if c.image != "" {
		return c.image
	}
	return c.live.ImageDataURL
}

func (c *Controller) check(section model.Section, name, value string) error {
	spec, ok := model.Lookup(section, name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, section, name)
	}
	if !spec.Fits(value) {
		c.metrics.FieldRejected(string(section), name)
		c.log.Debug("field write rejected",
			zap.String("section", string(section)), zap.String("field", name),
			zap.Int("max", spec.MaxLen), zap.Int("len", utf8.RuneCountInString(value)))
		return &ValidationError{Section: section, Field: name, MaxLen: spec.MaxLen, Len: utf8.RuneCountInString(value)}
	}
	if section == model.SectionSkills && name == "skillRating" && !model.SkillRating(value).Valid() {
		c.metrics.FieldRejected(string(section), name)
		return &ValidationError{Section: section, Field: name, Reason: fmt.Sprintf("rating %q is not one of %v", value, model.Ratings)}
	}
	return nil
}

func (c *Controller) outOfRange(op string, section model.Section, index, n int) Result {
	err := fmt.Errorf("%w: %s: %s[%d] with %d entries", ErrIndexOutOfRange, op, section, index, n)
	if c.strict {
		panic(err)
	}
	c.log.Error("ignored out-of-range entry write", zap.Error(err))
	return rejected(err)
}

func (c *Controller) reassignIDs(doc *model.ResumeDocument) {
	seen := map[string]bool{}
	for _, sec := range model.Repeatable {
		for i := 0; i < doc.Len(sec); i++ {
			id := doc.EntryID(sec, i)
			if id == "" || seen[id] {
				setEntryID(doc, sec, i, c.newID())
				continue
			}
			seen[id] = true
		}
	}
}

// locate finds an entry by id, falling back to its position for entries
// written without one.
func locate(doc model.ResumeDocument, section model.Section, index int, id string) int {
	if id != "" {
		return doc.IndexOf(section, id)
	}
	if index >= 0 && index < doc.Len(section) {
		return index
	}
	return -1
}

func setEntryID(doc *model.ResumeDocument, section model.Section, i int, id string) {
	switch section {
	case model.SectionEmployment:
		doc.Employment[i].ID = id
	case model.SectionEducation:
		doc.Education[i].ID = id
	case model.SectionSkills:
		doc.Skills[i].ID = id
	}
}

func missingIDs(doc model.ResumeDocument) bool {
	for _, sec := range model.Repeatable {
		for i := 0; i < doc.Len(sec); i++ {
			if doc.EntryID(sec, i) == "" {
				return true
			}
		}
	}
	return false
}
