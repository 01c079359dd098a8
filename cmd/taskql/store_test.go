package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/taskql/config"
	"github.com/c360/taskql/errors"
	"github.com/c360/taskql/storage/postgres"
	"github.com/c360/taskql/storage/sqlite"
	"github.com/c360/taskql/storage/storagetest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenStore_SelectsBackend(t *testing.T) {
	store, err := openStore(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "tasks.db"),
	}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, store)
	require.NoError(t, store.Close())

	store, err = openStore(config.DatabaseConfig{
		Driver:         config.DriverPostgres,
		Host:           "localhost",
		Port:           5432,
		ConnectTimeout: time.Second,
	}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &postgres.Store{}, store)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := openStore(config.DatabaseConfig{Driver: "oracle"}, discardLogger())
	assert.True(t, errors.IsInvalid(err))
}

func TestPrepareStore_InitSchema(t *testing.T) {
	ctx := context.Background()
	store, err := prepareStore(ctx, config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		Path:       filepath.Join(t.TempDir(), "tasks.db"),
		InitSchema: true,
	}, discardLogger())
	require.NoError(t, err)
	defer store.Close()

	added, err := store.Add(ctx, storagetest.Name("ready"))
	require.NoError(t, err)
	assert.False(t, added.IsCompleted)
}

func TestValidateFlags(t *testing.T) {
	valid := &CLIConfig{LogLevel: "info", LogFormat: "json", ShutdownTimeout: time.Second}
	assert.NoError(t, validateFlags(valid))

	assert.Error(t, validateFlags(&CLIConfig{LogLevel: "loud", LogFormat: "json", ShutdownTimeout: time.Second}))
	assert.Error(t, validateFlags(&CLIConfig{LogLevel: "info", LogFormat: "xml", ShutdownTimeout: time.Second}))
	assert.Error(t, validateFlags(&CLIConfig{LogLevel: "info", LogFormat: "json"}))
	assert.NoError(t, validateFlags(&CLIConfig{ShowVersion: true}))
}
