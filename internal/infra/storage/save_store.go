package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MRamiBalles/pocketmonster/internal/domain/monster"
	"github.com/MRamiBalles/pocketmonster/internal/platform/logger"
	"github.com/MRamiBalles/pocketmonster/internal/platform/metrics"
)

// SaveKey is the fixed key the monster record lives under.
const SaveKey = "pocketmonster-save"

// ErrCorruptSave is returned when the stored record cannot be decoded.
var ErrCorruptSave = errors.New("storage: corrupt save record")

// SaveStore reads and writes the single monster save record.
type SaveStore struct {
	repo        KVRepository
	defaultName string
	log         *logger.Logger
	metrics     *metrics.Collector
}

// NewSaveStore wraps repo. defaultName back-fills saves without a name.
func NewSaveStore(repo KVRepository, defaultName string, log *logger.Logger, m *metrics.Collector) *SaveStore {
	if log == nil {
		log = logger.Discard()
	}
	return &SaveStore{repo: repo, defaultName: defaultName, log: log, metrics: m}
}

// Load returns the saved monster. ErrNotFound means there is no save;
// ErrCorruptSave means there is one but it is unreadable.
func (s *SaveStore) Load(ctx context.Context) (monster.Monster, error) {
	raw, err := s.LoadRaw(ctx)
	if err != nil {
		return monster.Monster{}, err
	}

	m := monster.Monster{Name: s.defaultName}
	if err := json.Unmarshal(raw, &m); err != nil {
		s.log.Warnf("%s holds %s that is not a monster: %v", SaveKey, humanize.Bytes(uint64(len(raw))), err)
		return monster.Monster{}, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	if m.Name == "" {
		m.Name = s.defaultName
	}
	return m, nil
}

// LoadRaw returns the stored JSON unchanged.
func (s *SaveStore) LoadRaw(ctx context.Context) ([]byte, error) {
	raw, err := s.repo.Get(ctx, SaveKey)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Save overwrites the record with m. It runs on every tick and stays quiet;
// callers log failures.
func (s *SaveStore) Save(ctx context.Context, m monster.Monster) error {
	start := time.Now()

	data, err := json.Marshal(m)
	if err == nil {
		err = s.repo.Put(ctx, SaveKey, data)
	}
	if s.metrics != nil {
		s.metrics.RecordSave(time.Since(start), err)
	}
	if err != nil {
		return fmt.Errorf("failed to save monster: %w", err)
	}
	return nil
}

// Clear removes the record. Clearing an absent record is not an error.
func (s *SaveStore) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx, SaveKey); err != nil {
		return fmt.Errorf("failed to clear save: %w", err)
	}
	return nil
}
