package config

import (
	"gopkg.in/yaml.v3"
	"io"
	"os"
	"path/filepath"
)

const (
	fileName    = ".medctl.yml"
	DefaultHost = "http://localhost:3646/"
)

type (
	Config struct {
		Host string `yaml:"host"`
	}
)

// Path is where the client configuration lives, in the user's home
// directory when it can be found.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return fileName
	}
	return filepath.Join(home, fileName)
}

// Parse reads the client configuration. A missing file yields the default
// host.
func Parse() (Config, error) {
	c := Config{Host: DefaultHost}
	fi, err := os.Open(Path())
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	defer fi.Close()

	value, err := io.ReadAll(fi)
	if err != nil {
		return c, err
	}

	if err = yaml.Unmarshal(value, &c); err != nil {
		return c, err
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	return c, nil
}

func SaveConfig(c Config) error {
	value, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(Path(), value, 0o600)
}
