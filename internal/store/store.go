// Package store reads and mutates the single configuration document.
//
// Every write replaces the whole document. ApplyUpdate is an unsynchronized
// read-then-write: concurrent writers race and the last Put wins.
package store

import (
	"context"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // audit zone must resolve on minimal runtimes

	"github.com/resphone/resphone/internal/blob"
	"github.com/resphone/resphone/internal/models"
)

// DefaultKey is the blob key of the configuration document.
const DefaultKey = "resphone.json"

// TimestampLayout renders audit timestamps like an en-US locale date-time.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// UnknownActor is recorded when the caller's address is unavailable.
const UnknownActor = "unknown"

var (
	// ErrNotFound means the document does not exist in the blob store.
	ErrNotFound = errors.New("store: config document not found")
	// ErrCorrupt means the document exists but is not a Configuration.
	ErrCorrupt = errors.New("store: config document corrupt")
)

// ConfigStore wraps a blob.Store holding one document under Key.
type ConfigStore struct {
	Blob     blob.Store
	Key      string
	Location *time.Location
	Now      func() time.Time
}

// New returns a ConfigStore. An empty key selects DefaultKey; a nil loc selects UTC.
func New(b blob.Store, key string, loc *time.Location) *ConfigStore {
	if key == "" {
		key = DefaultKey
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ConfigStore{Blob: b, Key: key, Location: loc, Now: time.Now}
}

// LoadRaw returns the stored bytes without parsing them.
func (s *ConfigStore) LoadRaw(ctx context.Context) ([]byte, error) {
	body, err := s.Blob.Get(ctx, s.Key)
	if errors.Is(err, blob.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.Key, err)
	}
	return body, nil
}

// Load fetches and parses the document.
func (s *ConfigStore) Load(ctx context.Context) (models.Configuration, error) {
	body, err := s.LoadRaw(ctx)
	if err != nil {
		return models.Configuration{}, err
	}
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return models.Configuration{}, fmt.Errorf("%w: top-level value is not an object", ErrCorrupt)
	}
	var cfg models.Configuration
	if err := json.Unmarshal(body, &cfg); err != nil {
		return models.Configuration{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return cfg, nil
}

// Save serializes cfg and overwrites the stored document.
func (s *ConfigStore) Save(ctx context.Context, cfg models.Configuration) error {
	body, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := s.Blob.Put(ctx, s.Key, body); err != nil {
		return fmt.Errorf("save %s: %w", s.Key, err)
	}
	return nil
}

// ApplyUpdate replaces contacts and selected, appends one audit entry naming
// selected and actor, saves, and returns the merged document. It performs one
// read and, on success, one write. It never retries.
func (s *ConfigStore) ApplyUpdate(ctx context.Context, contacts []models.Contact, selected, actor string) (models.Configuration, error) {
	cfg, err := s.Load(ctx)
	if err != nil {
		return models.Configuration{}, err
	}
	if actor == "" {
		actor = UnknownActor
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}

	updates := make([]models.Update, 0, len(cfg.Updates)+1)
	updates = append(updates, cfg.Updates...)
	updates = append(updates, models.Update{
		TS:     s.timestamp(),
		Update: fmt.Sprintf("Updated to %s from IP %s", selected, actor),
	})

	cfg.Contacts = contacts
	cfg.Selected = selected
	cfg.Updates = updates

	if err := s.Save(ctx, cfg); err != nil {
		return models.Configuration{}, err
	}
	return cfg, nil
}

func (s *ConfigStore) timestamp() string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc).Format(TimestampLayout)
}
