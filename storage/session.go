package storage

import (
	"encoding/json"

	"toolrent-cli/api"
)

// SessionData mirrors the two browser keys: the bearer token and the user profile.
type SessionData struct {
	JWT  string          `json:"jwt"`
	User json.RawMessage `json:"user,omitempty"`
}

// DecodeUser parses the stored profile. A missing profile yields nil.
func (s *SessionData) DecodeUser() (*api.User, error) {
	if s == nil || len(s.User) == 0 || string(s.User) == "null" {
		return nil, nil
	}
	var user api.User
	if err := json.Unmarshal(s.User, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FileSession keeps the session in session.json under the config dir.
type FileSession struct{}

func (FileSession) Load() (*SessionData, error) {
	path, err := SessionPath()
	if err != nil {
		return nil, err
	}
	var data SessionData
	found, err := readJSON(path, &data)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &data, nil
}

func (FileSession) Save(data *SessionData) error {
	path, err := SessionPath()
	if err != nil {
		return err
	}
	return writeJSON(path, data, 0o600)
}

func (FileSession) Clear() error {
	path, err := SessionPath()
	if err != nil {
		return err
	}
	return removeFile(path)
}
