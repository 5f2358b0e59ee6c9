package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/draftpad/internal/ops"
)

const sessionFileName = "session.json"

// loadSession reads the editor session persisted between CLI invocations.
// A missing or unreadable file means "new draft".
func loadSession(baseDir string) ops.Session {
	var sess ops.Session
	data, err := os.ReadFile(filepath.Join(baseDir, sessionFileName))
	if err != nil {
		return sess
	}
	if err := json.Unmarshal(data, &sess); err != nil {
		return ops.Session{}
	}
	// Both fields or neither.
	if (sess.EditingID == nil) != (sess.LastSaved == nil) {
		return ops.Session{}
	}
	return sess
}

// storeSession writes the session atomically via a temp file and rename.
func storeSession(baseDir string, sess ops.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	path := filepath.Join(baseDir, sessionFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
