package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/handiism/melody/internal/model"
	"github.com/samber/lo"
	bolt "go.etcd.io/bbolt"
)

const (
	// PreferencesKey is the single key the preference record is stored under.
	PreferencesKey = "musicPlayerPrefs"

	// DefaultVolume is the volume used when nothing has been saved yet.
	DefaultVolume = 0.7

	ThemeDark  = "dark"
	ThemeLight = "light"
)

var preferencesBucket = []byte("preferences")

// Preferences is the small user preference record persisted between runs.
//
// It is serialised as:
//
//	{"volume":0.7,"repeatMode":"none","isShuffled":false,"theme":"dark"}
type Preferences struct {
	Volume     float64 `json:"volume"`
	RepeatMode string  `json:"repeatMode"`
	IsShuffled bool    `json:"isShuffled"`
	Theme      string  `json:"theme"`
}

// DefaultPreferences returns the preferences used on first start.
func DefaultPreferences() Preferences {
	return Preferences{
		Volume:     DefaultVolume,
		RepeatMode: model.RepeatNone.String(),
		IsShuffled: false,
		Theme:      ThemeDark,
	}
}

// Normalize clamps the volume into [0,1] and replaces unknown repeat modes
// and empty themes with defaults.
func (p Preferences) Normalize() Preferences {
	p.Volume = lo.Clamp(p.Volume, 0, 1)
	mode, _ := model.ParseRepeatMode(p.RepeatMode)
	p.RepeatMode = mode.String()
	if p.Theme == "" {
		p.Theme = ThemeDark
	}
	return p
}

// Repeat returns the parsed repeat mode.
func (p Preferences) Repeat() model.RepeatMode {
	mode, _ := model.ParseRepeatMode(p.RepeatMode)
	return mode
}

// PreferenceStore reads and writes the preference record.
//
// Load returns defaults when nothing is stored. When the stored record
// cannot be decoded, Load returns defaults together with the decode error so
// the caller can log it.
type PreferenceStore interface {
	Load() (Preferences, error)
	Save(p Preferences) error
	Close() error
}

// BoltStore keeps preferences in a bolt key-value file.
type BoltStore struct {
	db   *bolt.DB
	Path string
}

// OpenBoltStore opens (creating if necessary) the preference database.
func OpenBoltStore(path string) (*BoltStore, error) {
	// Create parent directory, if necessary.
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open preferences %s: %w", path, err)
	}

	return &BoltStore{db: db, Path: path}, nil
}

// Load reads the preference record.
func (s *BoltStore) Load() (Preferences, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(preferencesBucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(PreferencesKey)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return DefaultPreferences(), err
	}

	return decodePreferences(data)
}

// Save writes the preference record.
func (s *BoltStore) Save(p Preferences) error {
	data, err := json.Marshal(p.Normalize())
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(preferencesBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(PreferencesKey), data)
	})
}

// Close closes the database.
func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// MemoryStore keeps the preference record in memory. It is used when the
// preference file cannot be opened, e.g. because another instance holds it.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load reads the preference record.
func (s *MemoryStore) Load() (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decodePreferences(s.data)
}

// Save writes the preference record.
func (s *MemoryStore) Save(p Preferences) error {
	data, err := json.Marshal(p.Normalize())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// SetRaw replaces the stored bytes as-is.
func (s *MemoryStore) SetRaw(data []byte) {
	s.mu.Lock()
	s.data = append([]byte(nil), data...)
	s.mu.Unlock()
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func decodePreferences(data []byte) (Preferences, error) {
	if len(data) == 0 {
		return DefaultPreferences(), nil
	}

	// Start from defaults so missing fields keep their default values.
	prefs := DefaultPreferences()
	if err := json.Unmarshal(data, &prefs); err != nil {
		return DefaultPreferences(), fmt.Errorf("decode preferences: %w", err)
	}

	return prefs.Normalize(), nil
}
