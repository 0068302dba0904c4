package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const currentFile = "current-session"

// CurrentID returns the session id remembered in dir, creating and
// remembering a new one when there is none. It lets separate CLI
// invocations act on the same session the way browser tabs share one.
func CurrentID(dir string) (string, error) {
	path := filepath.Join(dir, currentFile)
	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if ValidateID(id) == nil {
			return id, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	id := NewID()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0644); err != nil {
		return "", fmt.Errorf("session: remember id: %w", err)
	}
	return id, nil
}

// ForgetCurrent drops the remembered id if it is id.
func ForgetCurrent(dir, id string) error {
	path := filepath.Join(dir, currentFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(data)) != id {
		return nil
	}
	return os.Remove(path)
}
