package config

import (
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

type (
	// Store persists operator changes to the schedule so they survive a restart.
	Store interface {
		SaveSchedule(intervalHours, keepDays int) error
	}

	envFileStore struct {
		path string
		lock sync.Mutex
	}
)

func NewStore(envFile string) Store {
	return &envFileStore{path: envFile}
}

func (s *envFileStore) SaveSchedule(intervalHours, keepDays int) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := godotenv.Read(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrap(err, "failed to read env file: "+s.path)
		}
		values = map[string]string{}
	}

	values[KeyIntervalHours] = strconv.Itoa(intervalHours)
	values[KeyKeepDays] = strconv.Itoa(keepDays)

	content, err := godotenv.Marshal(values)
	if err != nil {
		return errors.Wrap(err, "failed to encode env file")
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create config directory")
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content+"\n"), 0o600); err != nil {
		return errors.Wrap(err, "failed to write env file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "failed to replace env file")
	}
	return nil
}
