package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/isida-tgbot-go/internal/models"
)

// File names inside the data directory
const (
	learnedFile = "learned.json"
	usersFile   = "users.json"
	statsFile   = "stats.json"
	gamesFile   = "games.json"
)

// JSONStore keeps each structure in its own JSON file.
// Files are replaced whole through a temporary file and a rename.
type JSONStore struct {
	dir string
}

// NewJSONStore uses dir, creating it when missing
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &JSONStore{dir: dir}, nil
}

func (s *JSONStore) Name() string { return "json" }

func (s *JSONStore) Close() error { return nil }

// Load reads every file; missing files yield empty structures
func (s *JSONStore) Load(ctx context.Context) (*models.Snapshot, error) {
	snap := models.NewSnapshot()
	targets := []struct {
		name string
		into any
	}{
		{learnedFile, &snap.Learned},
		{usersFile, &snap.Users},
		{statsFile, &snap.Stats},
		{gamesFile, &snap.Games},
	}
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.read(t.name, t.into); err != nil {
			return nil, err
		}
	}
	normalize(snap)
	return snap, nil
}

// Save overwrites all four files
func (s *JSONStore) Save(ctx context.Context, snap *models.Snapshot) error {
	sources := []struct {
		name string
		from any
	}{
		{learnedFile, snap.Learned},
		{usersFile, snap.Users},
		{statsFile, snap.Stats},
		{gamesFile, snap.Games},
	}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.write(src.name, src.from); err != nil {
			return err
		}
	}
	return nil
}

// DataSize returns the combined size of the data files
func (s *JSONStore) DataSize() (int64, error) {
	var total int64
	for _, name := range []string{learnedFile, usersFile, statsFile, gamesFile} {
		info, err := os.Stat(filepath.Join(s.dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

func (s *JSONStore) read(name string, into any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *JSONStore) write(name string, from any) error {
	data, err := json.MarshalIndent(from, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
