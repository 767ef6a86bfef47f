package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/govform/internal/config"
	"github.com/aretw0/govform/internal/logging"
	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/persistence/middleware"
)

func TestOpenStore_Drivers(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	tests := []config.StoreConfig{
		{Driver: config.DriverMemory},
		{Driver: config.DriverFile, Path: filepath.Join(dir, "files")},
		{Driver: config.DriverSQLite, Path: filepath.Join(dir, "sqlite")},
		{Driver: config.DriverSQLite, Path: filepath.Join(dir, "drafts.db")},
		{Driver: config.DriverRedis, URL: "redis://" + mr.Addr(), DistributedLock: true},
	}

	for _, cfg := range tests {
		t.Run(cfg.Driver, func(t *testing.T) {
			store, locker, closer, err := OpenStore(cfg)
			require.NoError(t, err)
			defer closer()

			ctx := context.Background()
			require.NoError(t, store.Set(ctx, "k", "v"))
			v, err := store.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", v)

			assert.Equal(t, cfg.DistributedLock, locker != nil)
		})
	}
}

func TestOpenStore_Unknown(t *testing.T) {
	_, _, closer, err := OpenStore(config.StoreConfig{Driver: "tape"})
	assert.Error(t, err)
	assert.NotNil(t, closer)
}

func TestBuildService(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	cfg := config.Default()
	cfg.Store = config.StoreConfig{Driver: config.DriverMemory, EncryptionKey: key}

	svc, err := BuildService(cfg, logging.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer svc.Close()

	ctx := context.Background()
	form, err := svc.Open(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, form.UpdateField(domain.FieldFullName, "Jane"))
	require.NoError(t, form.SaveProgress(ctx))
	assert.NotNil(t, svc.Metrics())

	view, err := svc.Inspect(ctx, "s1")
	require.NoError(t, err)
	assert.Contains(t, view["govFormData"], middleware.Mask)
}

func TestBuildService_BadKey(t *testing.T) {
	cfg := config.Default()
	cfg.Store = config.StoreConfig{Driver: config.DriverMemory, EncryptionKey: base64.StdEncoding.EncodeToString([]byte("short"))}

	_, err := BuildService(cfg, logging.NewNop(), nil)
	assert.ErrorIs(t, err, middleware.ErrKeySize)
}

func TestNewLogger_Redacts(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.LogFormat = "json"

	NewLogger(cfg, &buf).Info("saved", "email", "jane@example.gov")
	assert.False(t, strings.Contains(buf.String(), "jane@example.gov"))
	assert.Contains(t, buf.String(), logging.Redacted)
}

func TestBuildService_SubmissionCommand(t *testing.T) {
	cfg := config.Default()
	cfg.Store = config.StoreConfig{Driver: config.DriverMemory}
	cfg.Submission.Command = "definitely-not-a-real-binary-govform"

	_, err := BuildService(cfg, logging.NewNop(), nil)
	assert.Error(t, err)
}
