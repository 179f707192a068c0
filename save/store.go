package save

import (
	"fmt"
	"log"
	"slices"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

const (
	recordObject   = "record"
	recordProperty = "stats"
)

// Record is everything kept between runs.
type Record struct {
	HighScore   float64  `yaml:"high_score"`
	HighLevel   int      `yaml:"high_level"`
	Plays       int      `yaml:"plays"`
	PlaySeconds float64  `yaml:"play_seconds"`
	Discovered  []string `yaml:"discovered"`
}

// Store persists the Record through gdata. Without a manager it keeps the
// record in memory only.
type Store struct {
	manager *gdata.Manager
	record  Record
}

// Open connects to the per-user data directory of app. A failure to open
// degrades to a memory-only store.
func Open(app string) *Store {
	manager, err := gdata.Open(gdata.Config{AppName: app})
	if err != nil {
		log.Printf("Store: gdata unavailable, keeping scores in memory: %v", err)
		manager = nil
	}
	s, err := NewStore(manager)
	if err != nil {
		log.Printf("Store: %v (starting fresh)", err)
	}
	return s
}

// NewStore loads the saved record from manager, which may be nil. The store
// is usable even when loading fails.
func NewStore(manager *gdata.Manager) (*Store, error) {
	s := &Store{manager: manager}
	return s, s.Load()
}

// Persistent reports whether writes reach disk.
func (s *Store) Persistent() bool {
	return s != nil && s.manager != nil
}

func (s *Store) Load() error {
	if s.manager == nil || !s.manager.ObjectPropExists(recordObject, recordProperty) {
		return nil
	}
	data, err := s.manager.LoadObjectProp(recordObject, recordProperty)
	if err != nil {
		return fmt.Errorf("save: load record: %w", err)
	}
	var r Record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("save: unmarshal record: %w", err)
	}
	s.record = r
	return nil
}

func (s *Store) Save() error {
	if s == nil || s.manager == nil {
		return nil
	}
	data, err := yaml.Marshal(s.record)
	if err != nil {
		return fmt.Errorf("save: marshal record: %w", err)
	}
	if err := s.manager.SaveObjectProp(recordObject, recordProperty, data); err != nil {
		return fmt.Errorf("save: save record: %w", err)
	}
	return nil
}

// Record returns a copy of the current record.
func (s *Store) Record() Record {
	if s == nil {
		return Record{}
	}
	r := s.record
	r.Discovered = slices.Clone(r.Discovered)
	return r
}

// RecordRun adds a finished run and reports whether height beat the high
// score.
func (s *Store) RecordRun(height float64, level int, seconds float64) bool {
	if s == nil {
		return false
	}
	s.record.Plays++
	s.record.PlaySeconds += max(seconds, 0)
	s.record.HighLevel = max(s.record.HighLevel, level)
	if height <= s.record.HighScore {
		return false
	}
	s.record.HighScore = height
	return true
}

// Discover marks an item kind as seen. It reports whether it was new.
func (s *Store) Discover(kind string) bool {
	if s == nil || kind == "" || slices.Contains(s.record.Discovered, kind) {
		return false
	}
	s.record.Discovered = append(s.record.Discovered, kind)
	return true
}
