package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zarlcorp/core/pkg/zfilesystem"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/junsantilla/cvalley/internal/model"
)

// brokenFS refuses every operation, like storage disabled by the user agent.
type brokenFS struct{}

func (brokenFS) ReadFile(string) ([]byte, error)              { return nil, errors.New("access denied") }
func (brokenFS) WriteFile(string, []byte, fs.FileMode) error { return errors.New("access denied") }
func (brokenFS) Remove(string) error                          { return errors.New("access denied") }

func openTestStore(t *testing.T) (*Store, *zfilesystem.MemFS) {
	t.Helper()
	mem := zfilesystem.NewMemFS()
	return Open(mem, zaptest.NewLogger(t)), mem
}

func sampleWithIDs() model.ResumeDocument {
	doc := model.Sample()
	n := 0
	doc.AssignIDs(func() string {
		n++
		return "id-" + string(rune('a'+n))
	})
	return doc
}

func TestOpenEmptyFilesystem(t *testing.T) {
	s, _ := openTestStore(t)
	assert.True(t, s.Available())
	assert.Equal(t, model.Empty(), s.Get())
}

func TestSetThenGet(t *testing.T) {
	s, mem := openTestStore(t)
	doc := sampleWithIDs()
	s.Set(doc)

	assert.Equal(t, doc, s.Get())

	b, err := mem.ReadFile("data.json")
	require.NoError(t, err)
	var stored map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &stored))
	assert.Equal(t, float64(model.SchemaVersion), stored["schemaVersion"])
	assert.Equal(t, "John Doe", stored["fullName"])
}

func TestRoundTripThroughStorage(t *testing.T) {
	docs := []model.ResumeDocument{
		model.Empty(),
		sampleWithIDs(),
		func() model.ResumeDocument {
			d := model.Empty()
			d.FullName = "Zoë Ünïcode"
			d.Skills = []model.SkillEntry{{ID: "s1", SkillTitle: "Go", SkillRating: model.RatingExpert}}
			d.Employment = []model.EmploymentEntry{{ID: "e1", StartYear: "2020", EndYear: "present"}}
			return d
		}(),
	}
	for i, doc := range docs {
		mem := zfilesystem.NewMemFS()
		Open(mem, zaptest.NewLogger(t)).Set(doc)

		reopened := Open(mem, zaptest.NewLogger(t))
		assert.Equal(t, doc, reopened.Get(), "document %d", i)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s, _ := openTestStore(t)
	s.Set(sampleWithIDs())

	got := s.Get()
	got.Skills[0].SkillTitle = "mutated"
	assert.Equal(t, "JavaScript", s.Get().Skills[0].SkillTitle)
}

func TestUpdateMergesWithPrevious(t *testing.T) {
	s, _ := openTestStore(t)
	s.Set(sampleWithIDs())
	s.Update(func(prev model.ResumeDocument) model.ResumeDocument {
		prev.FullName = "Jane Roe"
		return prev
	})

	got := s.Get()
	assert.Equal(t, "Jane Roe", got.FullName)
	assert.Equal(t, "Software Developer", got.JobTitle)
	assert.Len(t, got.Skills, 8)
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	s, _ := openTestStore(t)
	var calls int32
	unsub := s.Subscribe(func() { atomic.AddInt32(&calls, 1) })

	s.Set(model.Sample())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	unsub()
	unsub()
	s.Set(model.Empty())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSubscriberSeesNewValue(t *testing.T) {
	s, _ := openTestStore(t)
	var seen string
	s.Subscribe(func() { seen = s.Get().FullName })
	doc := model.Empty()
	doc.FullName = "Ada"
	s.Set(doc)
	assert.Equal(t, "Ada", seen)
}

func TestStorageUnavailableDegrades(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := Open(brokenFS{}, zap.New(core))

	assert.False(t, s.Available())
	assert.Equal(t, model.Empty(), s.Get())

	doc := model.Empty()
	doc.FullName = "Memory Only"
	assert.NotPanics(t, func() { s.Set(doc) })
	assert.Equal(t, "Memory Only", s.Get().FullName)
	assert.False(t, s.Available())

	assert.NotPanics(t, s.Clear)
	assert.GreaterOrEqual(t, logs.Len(), 2)
	for _, entry := range logs.All() {
		assert.Contains(t, entry.ContextMap()["error"], ErrStorageUnavailable.Error())
	}
}

func TestCorruptSlotStartsEmpty(t *testing.T) {
	mem := zfilesystem.NewMemFS()
	require.NoError(t, mem.WriteFile("data.json", []byte("{not json"), 0o600))

	s := Open(mem, zaptest.NewLogger(t))
	assert.True(t, s.Available())
	assert.Equal(t, model.Empty(), s.Get())
}

func TestOversizedSlotStartsEmpty(t *testing.T) {
	mem := zfilesystem.NewMemFS()
	payload := `{"schemaVersion":2,"phoneNumber":"12345678901234567890","employment":[],"education":[],"skills":[]}`
	require.NoError(t, mem.WriteFile("data.json", []byte(payload), 0o600))

	s := Open(mem, zaptest.NewLogger(t))
	assert.Equal(t, "", s.Get().PhoneNumber)
}

func TestUnusableSlotIsKeptAsideBeforeFirstWrite(t *testing.T) {
	mem := zfilesystem.NewMemFS()
	objective := strings.Repeat("x", 501)
	payload := `{"fullName":"Jane","objective":"` + objective + `"}`
	require.NoError(t, mem.WriteFile("data.json", []byte(payload), 0o600))

	s := Open(mem, zaptest.NewLogger(t))
	assert.Equal(t, "", s.Get().FullName)

	s.Update(func(prev model.ResumeDocument) model.ResumeDocument {
		prev.JobTitle = "Dev"
		return prev
	})

	b, err := mem.ReadFile(s.BackupName())
	require.NoError(t, err)
	assert.Equal(t, payload, string(b))
	assert.Equal(t, "data.json.bak", s.BackupName())
}

func TestValidSlotHasNoBackup(t *testing.T) {
	s, mem := openTestStore(t)
	s.Set(sampleWithIDs())
	_, err := mem.ReadFile(s.BackupName())
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDecodeDoesNotWrite(t *testing.T) {
	legacy := `{"fullName":"John Doe","employment":[{"companyName":"ABC Inc.","startYear":2018}]}`
	doc, err := Decode([]byte(legacy), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "John Doe", doc.FullName)
	assert.Equal(t, model.Year("2018"), doc.Employment[0].StartYear)

	_, err = Decode([]byte(`{"phoneNumber":"12345678901234567890"}`), zap.NewNop())
	assert.Error(t, err)
}

func TestLegacySlotIsMigratedAndWrittenBack(t *testing.T) {
	mem := zfilesystem.NewMemFS()
	legacy := `{"fullName":"John Doe","employment":[{"companyName":"ABC Inc.","startYear":2018,"endYear":2022}],"skills":[{"skillTitle":"Go"}]}`
	require.NoError(t, mem.WriteFile("data.json", []byte(legacy), 0o600))

	s := Open(mem, zaptest.NewLogger(t))
	doc := s.Get()
	require.Len(t, doc.Employment, 1)
	assert.Equal(t, model.Year("2018"), doc.Employment[0].StartYear)
	assert.NotEmpty(t, doc.Employment[0].ID)
	assert.NotEmpty(t, doc.Skills[0].ID)
	assert.Equal(t, []model.EducationEntry{}, doc.Education)

	b, err := mem.ReadFile("data.json")
	require.NoError(t, err)
	assert.Contains(t, string(b), `"schemaVersion":2`)
}

func TestCustomKey(t *testing.T) {
	mem := zfilesystem.NewMemFS()
	s := Open(mem, zaptest.NewLogger(t), WithKey("draft"))
	s.Set(model.Sample())
	_, err := mem.ReadFile("draft.json")
	assert.NoError(t, err)
}

func TestReloadNotifiesOtherContext(t *testing.T) {
	mem := zfilesystem.NewMemFS()
	form := Open(mem, zaptest.NewLogger(t))
	preview := Open(mem, zaptest.NewLogger(t))

	var calls int32
	preview.Subscribe(func() { atomic.AddInt32(&calls, 1) })

	doc := model.Empty()
	doc.FullName = "Cross Tab"
	form.Set(doc)

	preview.Reload()
	assert.Equal(t, "Cross Tab", preview.Get().FullName)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	preview.Reload()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "unchanged slot must not notify")
}

func TestClearRemovesSlot(t *testing.T) {
	s, mem := openTestStore(t)
	s.Set(model.Sample())
	s.Clear()

	assert.Equal(t, model.Empty(), s.Get())
	_, err := mem.ReadFile("data.json")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestWatchPicksUpWritesFromAnotherProcess(t *testing.T) {
	dir := t.TempDir()
	writer := Open(zfilesystem.NewOSFileSystem(dir), zaptest.NewLogger(t))
	reader := Open(zfilesystem.NewOSFileSystem(dir), zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, reader.Watch(ctx, dir))

	doc := model.Empty()
	doc.JobTitle = "Watcher"
	writer.Set(doc)

	assert.Eventually(t, func() bool {
		return reader.Get().JobTitle == "Watcher"
	}, 5*time.Second, 20*time.Millisecond)
}
