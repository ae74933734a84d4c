package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", NoColor: true, Output: &buf})
	require.NoError(t, err)

	log.WithFields(Fields{"key": "img-1"}).Debug("prepared")
	assert.Contains(t, buf.String(), "prepared")
	assert.Contains(t, buf.String(), "img-1")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNewDefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{NoColor: true, Output: &buf})
	require.NoError(t, err)

	log.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNewFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "lp.log")
	var buf bytes.Buffer
	log, err := New(Options{File: file, NoColor: true, Output: &buf})
	require.NoError(t, err)

	log.Info("to file")
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
