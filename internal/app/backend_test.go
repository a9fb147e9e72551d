package app

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digilocker/internal/config"
	"digilocker/internal/logging"
	"digilocker/internal/model"
)

func memoryConfig() *config.AppConfig {
	return &config.AppConfig{
		Storage: config.StorageConfig{Driver: "memory"},
		Locker: config.LockerConfig{
			Backend:       "memory",
			Bucket:        "reports",
			PublicBaseURL: "http://localhost:8080/files",
			MaxFileBytes:  1 << 20,
		},
	}
}

func TestNewBackend_Memory(t *testing.T) {
	var logs bytes.Buffer
	reg := prometheus.NewRegistry()

	b, err := NewBackend(context.Background(), memoryConfig(), reg, logging.New(&logs, "info", nil))
	require.NoError(t, err)
	defer b.Close()

	assert.Nil(t, b.DB)
	assert.Contains(t, logs.String(), "auth_secret_generated")
	assert.Contains(t, logs.String(), "backend_ready")

	ctx := context.Background()
	rec, err := b.Gateway.Upload(ctx, "H1", model.FileHandle{
		Name: "report.pdf",
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("%PDF-1.4")), nil },
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rec.FileURL, "http://localhost:8080/files/reports/H1/"))

	recs, err := b.Gateway.List(ctx, "H1")
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = b.Auth.SignUp(ctx, "a@example.com", "secret1")
	require.NoError(t, err)

	_, ok, err := b.Slots.Slot("dev").Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewBackend_UnsupportedDrivers(t *testing.T) {
	log := logging.Discard()

	cfg := memoryConfig()
	cfg.Storage.Driver = "floppy"
	_, err := NewBackend(context.Background(), cfg, nil, log)
	assert.ErrorContains(t, err, `unsupported storage driver "floppy"`)

	cfg = memoryConfig()
	cfg.Locker.Backend = "csv"
	_, err = NewBackend(context.Background(), cfg, nil, log)
	assert.ErrorContains(t, err, `unsupported locker backend "csv"`)
}

func TestBackend_CloseOrder(t *testing.T) {
	var order []string
	b := &Backend{closers: []func() error{
		func() error { order = append(order, "db"); return nil },
		func() error { order = append(order, "redis"); return assert.AnError },
	}}

	err := b.Close()
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"redis", "db"}, order)
	assert.NoError(t, b.Close())
}
