package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Session remembers which remote game `studio remote` talks to.
type Session struct {
	BaseURL string `json:"base_url"`
	GameID  string `json:"game_id"`
}

func sessionPath(dataDir string) string {
	return filepath.Join(dataDir, "remote.session")
}

func SaveSession(dataDir string, s Session) error {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sessionPath(dataDir), body, 0o600)
}

func LoadSession(dataDir string) (Session, error) {
	body, err := os.ReadFile(sessionPath(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, fmt.Errorf("no remote game yet, run `studio remote new` first")
		}
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, err
	}
	if strings.TrimSpace(s.GameID) == "" {
		return Session{}, fmt.Errorf("no game id found in remote session")
	}
	return s, nil
}

func ClearSession(dataDir string) error {
	err := os.Remove(sessionPath(dataDir))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
