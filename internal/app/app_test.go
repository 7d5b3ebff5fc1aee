package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/gereecole/internal/config"
	"github.com/JonMunkholm/gereecole/internal/core"
	"github.com/JonMunkholm/gereecole/internal/store/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenStore_Memory(t *testing.T) {
	st, err := OpenStore(context.Background(), config.StoreConfig{Backend: config.BackendMemory}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, st)
	assert.NoError(t, st.Ping(context.Background()))
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	_, err := OpenStore(context.Background(), config.StoreConfig{Backend: "sqlite"}, discardLogger())
	assert.ErrorContains(t, err, "sqlite")
}

func TestServiceOptions(t *testing.T) {
	cfg := &config.Config{Import: config.ImportConfig{
		MaxFileSize:           2048,
		MaxConcurrent:         3,
		MaxWait:               time.Second,
		Retention:             time.Hour,
		DefaultEnrollmentYear: "2026-2027",
	}}
	logger := discardLogger()

	opts := ServiceOptions(cfg, logger)
	assert.Equal(t, int64(2048), opts.MaxFileSize)
	assert.Equal(t, 3, opts.MaxConcurrent)
	assert.Equal(t, time.Hour, opts.Retention)
	assert.Equal(t, "2026-2027", opts.DefaultEnrollmentYear)
	assert.Same(t, logger, opts.Logger)
}

func TestKindsRegistered(t *testing.T) {
	for _, kind := range core.Kinds {
		_, ok := core.Get(kind)
		assert.True(t, ok, "kind %s not registered", kind)
	}
}
