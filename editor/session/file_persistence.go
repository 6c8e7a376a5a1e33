package session

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// FilePersistence implements Persistence using one JSON file per session.
type FilePersistence struct {
	dir string
}

// NewFilePersistence creates a file-based persistence layer rooted at dir,
// creating the directory if needed.
func NewFilePersistence(dir string) (*FilePersistence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &FilePersistence{dir: dir}, nil
}

// Save writes the session snapshot to <dir>/<id>.json.
func (fp *FilePersistence) Save(sess Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(fp.filePath(sess.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Delete removes the session file. A missing file is not an error.
func (fp *FilePersistence) Delete(id string) error {
	err := os.Remove(fp.filePath(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// LoadAll reads every session file in the directory. Files that fail to
// parse are skipped with a warning rather than aborting the whole restore.
func (fp *FilePersistence) LoadAll() ([]Session, error) {
	entries, err := os.ReadDir(fp.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessions []Session
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(fp.dir, entry.Name()))
		if err != nil {
			log.Printf("Skipping unreadable session file %s: %v", entry.Name(), err)
			continue
		}

		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil || sess.ID == "" {
			log.Printf("Skipping corrupt session file %s", entry.Name())
			continue
		}
		sessions = append(sessions, sess)
	}

	return sessions, nil
}

func (fp *FilePersistence) filePath(id string) string {
	return filepath.Join(fp.dir, id+".json")
}
