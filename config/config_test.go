package config

import (
	"flag"
	"testing"

	"github.com/peterbourgon/ff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindFlagsAppliesArguments(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.BindFlags(fs)

	err := ff.Parse(fs, []string{"-addr", ":9000", "-snapshot-backend", "firestore"})
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "firestore", cfg.SnapshotBackend)
	assert.Equal(t, "info", cfg.LogLevel) // untouched flags keep their default
}

func TestBindFlagsAppliesEnvVar(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.BindFlags(fs)

	t.Setenv("COLLABD_LOG_LEVEL", "debug")
	err := ff.Parse(fs, nil, ff.WithEnvVarPrefix("COLLABD"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
}
