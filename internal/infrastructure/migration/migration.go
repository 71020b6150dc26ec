package migration

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/junsantilla/cvalley/internal/model"
)

// Document is a stored résumé document decoded into generic JSON values.
type Document map[string]interface{}

// Migration upgrades a stored document from version From to From+1.
type Migration struct {
	Name string
	From int
	Up   func(doc Document) error
}

// Migrations is the ordered ladder; each step moves one version forward.
var Migrations = []Migration{
	{Name: "normalize_sequences_and_years", From: 0, Up: normalizeSequencesAndYears},
	{Name: "assign_entry_ids", From: 1, Up: assignEntryIDs},
}

// Version reads the schemaVersion tag; documents without one are version 0.
func Version(doc Document) int {
	switch v := doc["schemaVersion"].(type) {
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case int:
		return v
	}
	return 0
}

// RunMigrations upgrades doc in place to model.SchemaVersion. Documents from
// a newer version are refused.
func RunMigrations(doc Document, log *zap.Logger) error {
	version := Version(doc)
	if version > model.SchemaVersion {
		return fmt.Errorf("stored document version %d is newer than supported %d", version, model.SchemaVersion)
	}
	if version == model.SchemaVersion {
		return nil
	}

	log.Info("Starting document migrations", zap.Int("from", version), zap.Int("to", model.SchemaVersion))
	for _, m := range Migrations {
		if m.From < version {
			continue
		}
		if err := m.Up(doc); err != nil {
			log.Error("Migration failed", zap.String("name", m.Name), zap.Error(err))
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		version = m.From + 1
		doc["schemaVersion"] = version
		log.Info("Migration completed", zap.String("name", m.Name))
	}
	return nil
}

var sequenceKeys = []string{"employment", "education", "skills"}

// normalizeSequencesAndYears makes the three sequences arrays and turns the
// numeric years older sample data stored into strings.
func normalizeSequencesAndYears(doc Document) error {
	for _, key := range sequenceKeys {
		items, ok := doc[key].([]interface{})
		if !ok {
			if doc[key] != nil {
				return fmt.Errorf("%s is %T, want array", key, doc[key])
			}
			doc[key] = []interface{}{}
			continue
		}
		for _, it := range items {
			entry, ok := it.(map[string]interface{})
			if !ok {
				continue
			}
			for _, yk := range []string{"startYear", "endYear"} {
				switch v := entry[yk].(type) {
				case float64:
					entry[yk] = fmt.Sprintf("%d", int(v))
				case json.Number:
					entry[yk] = v.String()
				}
			}
		}
	}
	return nil
}

// assignEntryIDs gives each entry a stable id and drops ratings outside the
// accepted set.
func assignEntryIDs(doc Document) error {
	for _, key := range sequenceKeys {
		items, _ := doc[key].([]interface{})
		kept := make([]interface{}, 0, len(items))
		for _, it := range items {
			entry, ok := it.(map[string]interface{})
			if !ok {
				continue
			}
			if id, _ := entry["id"].(string); strings.TrimSpace(id) == "" {
				entry["id"] = uuid.NewString()
			}
			if key == "skills" {
				if r, ok := entry["skillRating"].(string); ok && !model.SkillRating(r).Valid() {
					delete(entry, "skillRating")
				}
			}
			kept = append(kept, entry)
		}
		doc[key] = kept
	}
	return nil
}
