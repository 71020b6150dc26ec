package form

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zarlcorp/core/pkg/zfilesystem"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/junsantilla/cvalley/internal/model"
	"github.com/junsantilla/cvalley/internal/store"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newReadyController(t *testing.T, opts ...Option) (*Controller, *store.Store) {
	t.Helper()
	s := store.Open(zfilesystem.NewMemFS(), zaptest.NewLogger(t))
	opts = append([]Option{WithIDGenerator(sequentialIDs())}, opts...)
	c := NewController(s, zaptest.NewLogger(t), opts...)
	c.Open()
	t.Cleanup(c.Close)
	return c, s
}

func TestUninitializedRejectsWrites(t *testing.T) {
	s := store.Open(zfilesystem.NewMemFS(), zaptest.NewLogger(t))
	c := NewController(s, zaptest.NewLogger(t))

	assert.Equal(t, Uninitialized, c.State())
	res := c.SetScalarField("fullName", "Ada")
	assert.ErrorIs(t, res.Err, ErrNotReady)
	assert.ErrorIs(t, c.AppendEntry(model.SectionSkills, nil).Err, ErrNotReady)
	assert.ErrorIs(t, c.RemoveEntry(model.SectionSkills, 0).Err, ErrNotReady)
	assert.ErrorIs(t, c.LoadSample().Err, ErrNotReady)
	assert.ErrorIs(t, c.SetImagePreview("data:image/png;base64,AAAA").Err, ErrNotReady)
	assert.Equal(t, "", c.ImagePreview())
	assert.Equal(t, "", s.Get().FullName)

	c.Open()
	assert.Equal(t, Ready, c.State())
	assert.Equal(t, "ready", c.State().String())
}

func TestOpenAssignsMissingIDs(t *testing.T) {
	mem := zfilesystem.NewMemFS()
	s := store.Open(mem, zaptest.NewLogger(t))
	s.Set(model.Sample())

	c := NewController(s, zaptest.NewLogger(t), WithIDGenerator(sequentialIDs()))
	c.Open()
	defer c.Close()

	doc := s.Get()
	assert.Equal(t, "id-1", doc.Employment[0].ID)
	for _, sk := range doc.Skills {
		assert.NotEmpty(t, sk.ID)
	}
	assert.Equal(t, doc, c.Document())
}

func TestSetScalarFieldWritesThrough(t *testing.T) {
	c, s := newReadyController(t)

	res := c.SetScalarField("fullName", "Ada Lovelace")
	require.True(t, res.OK())
	assert.Equal(t, -1, res.Index)
	assert.Equal(t, "Ada Lovelace", s.Get().FullName)
	assert.Equal(t, "Ada Lovelace", c.Document().FullName)
}

func TestSetScalarFieldOverCapKeepsPriorValue(t *testing.T) {
	c, s := newReadyController(t)
	require.True(t, c.SetScalarField("fullName", "John Doe").OK())

	res := c.SetScalarField("fullName", strings.Repeat("A", 101))

	var verr *ValidationError
	require.True(t, errors.As(res.Err, &verr))
	assert.ErrorIs(t, res.Err, ErrValidationRejected)
	assert.Equal(t, 100, verr.MaxLen)
	assert.Equal(t, 101, verr.Len)
	assert.Equal(t, "John Doe", s.Get().FullName)
	assert.Equal(t, "John Doe", c.Document().FullName)
}

func TestSetScalarFieldCountsCharactersNotBytes(t *testing.T) {
	c, _ := newReadyController(t)
	// 15 runes, 30 bytes
	assert.True(t, c.SetScalarField("phoneNumber", strings.Repeat("é", 15)).OK())
	assert.False(t, c.SetScalarField("phoneNumber", strings.Repeat("é", 16)).OK())
}

func TestSetScalarFieldUnknownField(t *testing.T) {
	c, _ := newReadyController(t)
	assert.ErrorIs(t, c.SetScalarField("nickname", "x").Err, ErrUnknownField)
}

func TestAppendThenRemoveEmployment(t *testing.T) {
	c, s := newReadyController(t)

	res := c.AppendEntry(model.SectionEmployment, map[string]string{
		"jobTitle":    "Engineer",
		"companyName": "Acme",
		"startYear":   "2020",
		"endYear":     "2022",
	})
	require.True(t, res.OK())
	assert.Equal(t, 0, res.Index)
	assert.Equal(t, "id-1", res.ID)

	doc := s.Get()
	require.Len(t, doc.Employment, 1)
	assert.Equal(t, "Acme", doc.Employment[0].CompanyName)
	assert.Equal(t, model.Year("2020"), doc.Employment[0].StartYear)
	assert.True(t, doc.HasEmployment())

	require.True(t, c.RemoveEntry(model.SectionEmployment, 0).OK())
	doc = s.Get()
	assert.Empty(t, doc.Employment)
	assert.NotNil(t, doc.Employment)
	assert.False(t, doc.HasEmployment())
}

func TestAppendAndRemoveSequencePreservesOrder(t *testing.T) {
	c, _ := newReadyController(t)

	var want []string
	for i := 0; i < 6; i++ {
		title := fmt.Sprintf("skill-%d", i)
		require.True(t, c.AppendEntry(model.SectionSkills, map[string]string{"skillTitle": title}).OK())
		want = append(want, title)
	}
	for _, idx := range []int{4, 0, 2} {
		require.True(t, c.RemoveEntry(model.SectionSkills, idx).OK())
		want = append(want[:idx], want[idx+1:]...)
	}

	doc := c.Document()
	require.Len(t, doc.Skills, 6-3)
	var got []string
	for _, sk := range doc.Skills {
		got = append(got, sk.SkillTitle)
	}
	assert.Equal(t, want, got)
}

func TestAppendBlankEntry(t *testing.T) {
	c, _ := newReadyController(t)
	res := c.AppendEntry(model.SectionEducation, nil)
	require.True(t, res.OK())

	doc := c.Document()
	require.Len(t, doc.Education, 1)
	assert.False(t, doc.Education[0].Present())
	assert.False(t, doc.HasEducation())
}

func TestAppendRejectsOverCapField(t *testing.T) {
	c, s := newReadyController(t)
	res := c.AppendEntry(model.SectionSkills, map[string]string{"skillTitle": strings.Repeat("x", 101)})
	assert.ErrorIs(t, res.Err, ErrValidationRejected)
	assert.Equal(t, -1, res.Index)
	assert.Empty(t, s.Get().Skills)
}

func TestUnknownSection(t *testing.T) {
	c, _ := newReadyController(t)
	assert.ErrorIs(t, c.AppendEntry("hobbies", nil).Err, ErrUnknownSection)
	assert.ErrorIs(t, c.SetEntryField("hobbies", 0, "title", "x").Err, ErrUnknownSection)
	assert.ErrorIs(t, c.RemoveEntry(model.SectionPersonal, 0).Err, ErrUnknownSection)
}

func TestSetEntryField(t *testing.T) {
	c, s := newReadyController(t)
	require.True(t, c.LoadSample().OK())

	res := c.SetEntryField(model.SectionEducation, 1, "degree", "MBA")
	require.True(t, res.OK())
	assert.Equal(t, 1, res.Index)
	assert.Equal(t, "MBA", s.Get().Education[1].Degree)
	assert.Equal(t, "Bachelor of Science", s.Get().Education[0].Degree)
}

func TestSkillRating(t *testing.T) {
	c, s := newReadyController(t)
	require.True(t, c.AppendEntry(model.SectionSkills, map[string]string{"skillTitle": "Go"}).OK())

	require.True(t, c.SetEntryField(model.SectionSkills, 0, "skillRating", "Expert").OK())
	assert.Equal(t, model.RatingExpert, s.Get().Skills[0].SkillRating)

	res := c.SetEntryField(model.SectionSkills, 0, "skillRating", "Wizard")
	assert.ErrorIs(t, res.Err, ErrValidationRejected)
	assert.Equal(t, model.RatingExpert, s.Get().Skills[0].SkillRating)
}

func TestOutOfRangeInProductionIsLoggedAndRejected(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := store.Open(zfilesystem.NewMemFS(), zaptest.NewLogger(t))
	c := NewController(s, zap.New(core))
	c.Open()
	defer c.Close()

	var res Result
	assert.NotPanics(t, func() { res = c.SetEntryField(model.SectionSkills, 3, "skillTitle", "Go") })
	assert.ErrorIs(t, res.Err, ErrIndexOutOfRange)
	assert.ErrorIs(t, c.RemoveEntry(model.SectionSkills, -1).Err, ErrIndexOutOfRange)
	assert.Equal(t, 2, logs.Len())
	assert.Empty(t, s.Get().Skills)
}

func TestOutOfRangeInStrictModePanics(t *testing.T) {
	c, _ := newReadyController(t, WithStrict(true))
	assert.Panics(t, func() { c.SetEntryField(model.SectionEmployment, 0, "city", "Paris") })
	assert.Panics(t, func() { c.RemoveEntry(model.SectionEmployment, 0) })

	// the controller stays usable after the panic
	assert.True(t, c.SetScalarField("address", "Paris").OK())
}

func TestByIDOperationsFollowEntryAcrossRemovals(t *testing.T) {
	c, s := newReadyController(t)
	first := c.AppendEntry(model.SectionSkills, map[string]string{"skillTitle": "Go"})
	second := c.AppendEntry(model.SectionSkills, map[string]string{"skillTitle": "SQL"})
	require.True(t, first.OK())
	require.True(t, second.OK())

	require.True(t, c.RemoveEntry(model.SectionSkills, 0).OK())

	res := c.SetEntryFieldByID(model.SectionSkills, second.ID, "skillTitle", "PostgreSQL")
	require.True(t, res.OK())
	assert.Equal(t, 0, res.Index)
	assert.Equal(t, "PostgreSQL", s.Get().Skills[0].SkillTitle)

	assert.ErrorIs(t, c.SetEntryFieldByID(model.SectionSkills, first.ID, "skillTitle", "x").Err, ErrEntryNotFound)
	assert.ErrorIs(t, c.RemoveEntryByID(model.SectionSkills, "nope").Err, ErrEntryNotFound)

	require.True(t, c.RemoveEntryByID(model.SectionSkills, second.ID).OK())
	assert.Empty(t, s.Get().Skills)
}

func TestLoadSample(t *testing.T) {
	c, s := newReadyController(t)
	require.True(t, c.LoadSample().OK())

	doc := s.Get()
	assert.Equal(t, "John Doe", doc.FullName)
	assert.Len(t, doc.Employment, 2)
	assert.Len(t, doc.Education, 2)
	assert.Len(t, doc.Skills, 8)

	seen := map[string]bool{}
	for _, sec := range model.Repeatable {
		for i := 0; i < doc.Len(sec); i++ {
			id := doc.EntryID(sec, i)
			assert.NotEmpty(t, id)
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	}
}

func TestLoadDocumentValidates(t *testing.T) {
	c, s := newReadyController(t)
	require.True(t, c.SetScalarField("fullName", "Kept").OK())

	doc := model.Empty()
	doc.JobTitle = strings.Repeat("j", 101)
	res := c.LoadDocument(doc)
	assert.ErrorIs(t, res.Err, ErrValidationRejected)

	var schemaErr *model.SchemaError
	assert.True(t, errors.As(res.Err, &schemaErr))
	assert.Equal(t, "Kept", s.Get().FullName)
}

func TestLoadDocumentReplacesDuplicateIDs(t *testing.T) {
	c, s := newReadyController(t)
	doc := model.Empty()
	doc.Skills = []model.SkillEntry{{ID: "dup", SkillTitle: "Go"}, {ID: "dup", SkillTitle: "Rust"}}
	require.True(t, c.LoadDocument(doc).OK())

	got := s.Get().Skills
	require.Len(t, got, 2)
	assert.Equal(t, "dup", got[0].ID)
	assert.NotEqual(t, "dup", got[1].ID)
}

func TestClearDocument(t *testing.T) {
	c, s := newReadyController(t)
	require.True(t, c.LoadSample().OK())
	require.True(t, c.ClearDocument().OK())
	assert.Equal(t, model.Empty(), s.Get())
	assert.True(t, c.Document().IsBlank())
}

func TestImagePreviewIsSessionOnly(t *testing.T) {
	c, s := newReadyController(t)

	assert.Equal(t, "", c.ImagePreview())
	assert.ErrorIs(t, c.SetImagePreview("https://example.com/me.png").Err, ErrValidationRejected)

	require.True(t, c.SetImagePreview("data:image/png;base64,AAAA").OK())
	assert.Equal(t, "data:image/png;base64,AAAA", c.ImagePreview())
	assert.Equal(t, "", s.Get().ImageDataURL)

	require.True(t, c.SetScalarField("imageDataUrl", "data:image/gif;base64,R0lG").OK())
	assert.Equal(t, "data:image/png;base64,AAAA", c.ImagePreview())

	require.True(t, c.SetImagePreview("").OK())
	assert.Equal(t, "data:image/gif;base64,R0lG", c.ImagePreview())
}

func TestLiveCopyFollowsExternalStoreWrites(t *testing.T) {
	c, s := newReadyController(t)

	doc := model.Empty()
	doc.Objective = "Written elsewhere"
	s.Set(doc)
	assert.Equal(t, "Written elsewhere", c.Document().Objective)

	// the next edit merges into the externally written document
	require.True(t, c.SetScalarField("fullName", "Ada").OK())
	got := s.Get()
	assert.Equal(t, "Written elsewhere", got.Objective)
	assert.Equal(t, "Ada", got.FullName)
	assert.Equal(t, got, c.Document())
}

func TestCloseStopsFollowingStore(t *testing.T) {
	s := store.Open(zfilesystem.NewMemFS(), zaptest.NewLogger(t))
	c := NewController(s, zaptest.NewLogger(t))
	c.Open()
	c.Close()

	doc := model.Empty()
	doc.FullName = "After close"
	s.Set(doc)
	assert.Equal(t, "", c.Document().FullName)
}
