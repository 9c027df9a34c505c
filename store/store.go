// Package store persists the video database (videos.json) shared by the
// intake endpoint and the download queue.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	version "github.com/hashicorp/go-version"

	"videos-midjourney/model"
)

// FormatVersion is written into the videos file. Files written by a newer
// major version are refused on load rather than silently misread.
const FormatVersion = "1.0"

// Store is a concurrency-safe wrapper around the videos file. Every
// mutation is persisted immediately, so a crash never loses more than the
// operation in flight.
type Store struct {
	path string

	mu     sync.Mutex
	videos []model.Video
}

type fileFormat struct {
	Format string        `json:"format,omitempty"`
	Videos []model.Video `json:"videos"`
}

// Open reads the videos file at path. A missing file yields an empty store,
// and so does a file that cannot be parsed; only a format written by a newer
// major version is an error.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		// An unreadable database starts over empty; the file is rewritten
		// wholesale on the next mutation.
		return s, nil
	}

	if f.Format != "" {
		if err := checkFormat(f.Format); err != nil {
			return nil, err
		}
	}

	s.videos = f.Videos
	return s, nil
}

func checkFormat(format string) error {
	v, err := version.NewVersion(format)
	if err != nil {
		return fmt.Errorf("invalid videos file format %q: %w", format, err)
	}
	supported := version.Must(version.NewVersion(FormatVersion))
	if v.Segments()[0] > supported.Segments()[0] {
		return fmt.Errorf("videos file format %s is newer than supported %s", v, supported)
	}
	return nil
}

// AddNew appends incoming videos whose names are not already known.
// Entries with an empty name are skipped, duplicates within the batch
// collapse to the first occurrence, and existing entries are never touched.
// Returns the number of videos added; nothing is written when it is zero.
func (s *Store) AddNew(incoming []model.Video) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[string]bool, len(s.videos))
	for _, v := range s.videos {
		existing[v.VideoName] = true
	}

	added := 0
	for _, v := range incoming {
		if v.VideoName == "" || existing[v.VideoName] {
			continue
		}
		existing[v.VideoName] = true
		s.videos = append(s.videos, v)
		added++
	}

	if added == 0 {
		return 0, nil
	}
	return added, s.saveLocked()
}

// MarkDownloaded flags the named video as downloaded and persists the
// database. Returns false when the name is unknown, in which case nothing
// is written.
func (s *Store) MarkDownloaded(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.videos {
		if s.videos[i].VideoName == name {
			if s.videos[i].Downloaded {
				return true, nil
			}
			s.videos[i].Downloaded = true
			return true, s.saveLocked()
		}
	}
	return false, nil
}

// Pending returns the videos not yet downloaded, in insertion order.
func (s *Store) Pending() []model.Video {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []model.Video
	for _, v := range s.videos {
		if !v.Downloaded {
			pending = append(pending, v)
		}
	}
	return pending
}

// All returns a copy of every video in the database.
func (s *Store) All() []model.Video {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Video, len(s.videos))
	copy(out, s.videos)
	return out
}

// saveLocked writes the database atomically: encode to a temp file in the
// same directory, then rename over the target. Callers must hold s.mu.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(fileFormat{Format: FormatVersion, Videos: s.videos}, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode videos file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("could not create directory %s: %w", dir, err)
		}
	}

	tempPath := filepath.Join(dir, "."+filepath.Base(s.path)+".tmp")
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("could not write %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("could not replace %s: %w", s.path, err)
	}
	return nil
}
