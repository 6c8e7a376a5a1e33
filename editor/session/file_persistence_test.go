package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFilePersistenceSaveLoad(t *testing.T) {
	dir := t.TempDir()
	fp, err := NewFilePersistence(dir)
	if err != nil {
		t.Fatalf("NewFilePersistence failed: %v", err)
	}

	sess := Session{
		ID:        "abc123def4",
		Code:      "x = 1",
		Language:  "python",
		CreatedAt: time.Now().Truncate(time.Second),
	}
	if err := fp.Save(sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := fp.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(loaded))
	}
	if loaded[0].ID != sess.ID || loaded[0].Code != sess.Code || loaded[0].Language != sess.Language {
		t.Errorf("Loaded session mismatch: %+v", loaded[0])
	}
}

func TestFilePersistenceSaveOverwrites(t *testing.T) {
	fp, err := NewFilePersistence(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilePersistence failed: %v", err)
	}

	sess := Session{ID: "abc123def4", Code: "first", Language: "javascript"}
	fp.Save(sess)
	sess.Code = "second"
	if err := fp.Save(sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, _ := fp.LoadAll()
	if len(loaded) != 1 || loaded[0].Code != "second" {
		t.Errorf("Expected single session with latest code, got %+v", loaded)
	}
}

func TestFilePersistenceDelete(t *testing.T) {
	fp, err := NewFilePersistence(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilePersistence failed: %v", err)
	}

	fp.Save(Session{ID: "abc123def4", Code: "x", Language: "go"})
	if err := fp.Delete("abc123def4"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	loaded, _ := fp.LoadAll()
	if len(loaded) != 0 {
		t.Errorf("Expected no sessions after delete, got %d", len(loaded))
	}

	// Deleting a session that was never saved is fine
	if err := fp.Delete("neverexisted"); err != nil {
		t.Errorf("Delete of missing session should be a no-op: %v", err)
	}
}

func TestFilePersistenceSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	fp, err := NewFilePersistence(dir)
	if err != nil {
		t.Fatalf("NewFilePersistence failed: %v", err)
	}

	fp.Save(Session{ID: "goodsess01", Code: "ok", Language: "go"})
	os.WriteFile(filepath.Join(dir, "corrupt.json"), []byte("{not json"), 0644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644)

	loaded, err := fp.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "goodsess01" {
		t.Errorf("Expected only the valid session, got %+v", loaded)
	}
}

func TestStorePersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fp, err := NewFilePersistence(dir)
	if err != nil {
		t.Fatalf("NewFilePersistence failed: %v", err)
	}

	store := NewStore()
	store.SetPersistence(fp)

	sess := store.Create()
	store.SetCode(sess.ID, "saved work")
	store.SetLanguage(sess.ID, "rust")

	// A fresh store backed by the same directory sees the session
	restored := NewStore()
	restored.SetPersistence(fp)
	n, err := restored.Restore()
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Expected 1 restored session, got %d", n)
	}

	got, err := restored.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get after restore failed: %v", err)
	}
	if got.Code != "saved work" || got.Language != "rust" {
		t.Errorf("Restored session mismatch: %+v", got)
	}

	// Deleting through the store removes the file too
	if err := restored.Delete(sess.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	loaded, _ := fp.LoadAll()
	if len(loaded) != 0 {
		t.Errorf("Expected persisted copy gone after store delete, got %d", len(loaded))
	}
}
