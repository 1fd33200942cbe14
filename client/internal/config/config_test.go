package config

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParse_Default(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	c, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, DefaultHost, c.Host)
}

func TestSaveConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, SaveConfig(Config{Host: "https://records.example.org/"}))
	c, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "https://records.example.org/", c.Host)
}
