package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInitLevels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	Init("warn", false)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	Init("warn", true)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	Init("bogus", false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestNewLoggerWritesJSON(t *testing.T) {
	var a, b bytes.Buffer
	l := NewLogger(&a)
	l.Info().Str("k", "v").Msg("hello")
	assert.Contains(t, a.String(), `"k":"v"`)

	multi := NewLogger(&a, &b)
	multi.Info().Msg("both")
	assert.Contains(t, a.String(), "both")
	assert.Contains(t, b.String(), "both")
}
