package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/govform"
	"github.com/aretw0/govform/internal/config"
	"github.com/aretw0/govform/internal/logging"
	"github.com/aretw0/govform/pkg/adapters/file"
	"github.com/aretw0/govform/pkg/adapters/memory"
	"github.com/aretw0/govform/pkg/adapters/process"
	redisadapter "github.com/aretw0/govform/pkg/adapters/redis"
	"github.com/aretw0/govform/pkg/adapters/sqlstore"
	"github.com/aretw0/govform/pkg/persistence/middleware"
	"github.com/aretw0/govform/pkg/ports"
)

// lockPrefix namespaces the per-session distributed locks.
const lockPrefix = "govform:lock:"

// NewLogger builds the process logger from the configuration.
// Values of personal fields are redacted before they reach the output.
func NewLogger(cfg config.Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return logging.New(logging.ParseLevel(cfg.LogLevel),
		logging.WithOutput(w),
		logging.WithFormat(cfg.LogFormat),
		logging.WithRedaction(logging.DefaultRedactPatterns...),
	)
}

// OpenStore opens the configured slot backend. The returned closer is never nil.
func OpenStore(cfg config.StoreConfig) (ports.SlotStore, ports.DistributedLocker, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil, noop, nil

	case config.DriverFile:
		return file.New(cfg.Path), nil, noop, nil

	case config.DriverRedis:
		opts := []redisadapter.Option{redisadapter.WithTTL(cfg.TTL)}
		if cfg.Prefix != "" {
			opts = append(opts, redisadapter.WithPrefix(cfg.Prefix))
		}
		store, err := redisadapter.New(cfg.URL, opts...)
		if err != nil {
			return nil, nil, noop, err
		}
		var locker ports.DistributedLocker
		if cfg.DistributedLock {
			locker = redisadapter.NewLocker(store.Client(), lockPrefix)
		}
		return store, locker, store.Close, nil

	case config.DriverSQLite:
		path := cfg.Path
		if filepath.Ext(path) == "" {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return nil, nil, noop, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
			path = filepath.Join(path, "drafts.db")
		}
		store, err := sqlstore.OpenSQLite(path)
		if err != nil {
			return nil, nil, noop, err
		}
		return store, nil, store.Close, nil

	case config.DriverPostgres:
		store, err := sqlstore.OpenPostgres(cfg.URL)
		if err != nil {
			return nil, nil, noop, err
		}
		return store, nil, store.Close, nil
	}
	return nil, nil, noop, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// encryptionKeys decodes the configured keys. No active key means no encryption.
func encryptionKeys(cfg config.StoreConfig) ([]byte, [][]byte, error) {
	if cfg.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	var fallback [][]byte
	for i, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

// BuildService wires a Service from the configuration. reg may be nil to
// disable metrics.
func BuildService(cfg config.Config, logger *slog.Logger, reg prometheus.Registerer, extra ...govform.Option) (*govform.Service, error) {
	active, fallback, err := encryptionKeys(cfg.Store)
	if err != nil {
		return nil, err
	}

	store, locker, closer, err := OpenStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("error opening %s store: %w", cfg.Store.Driver, err)
	}

	opts := []govform.Option{
		govform.WithStore(store),
		govform.WithLogger(logger),
		govform.WithAutosave(cfg.Autosave),
		govform.WithSubmissionDelay(cfg.Submission.Delay),
		govform.WithCloser(closer),
	}
	if active != nil {
		opts = append(opts, govform.WithEncryption(active, fallback...))
	}
	if locker != nil {
		opts = append(opts, govform.WithLocker(locker))
	}
	if reg != nil {
		opts = append(opts, govform.WithRegisterer(reg))
	}
	if cfg.Submission.Command != "" {
		gw, err := process.New(process.Config{
			Command: cfg.Submission.Command,
			Args:    cfg.Submission.Args,
			Timeout: cfg.Submission.Timeout,
		}, process.WithLogger(logger))
		if err != nil {
			_ = closer()
			return nil, err
		}
		opts = append(opts, govform.WithGateway(gw))
	}
	opts = append(opts, extra...)

	svc, err := govform.New(opts...)
	if err != nil {
		_ = closer()
		return nil, err
	}
	logger.Debug("service ready", "store", cfg.Store.Driver, "encrypted", active != nil, "distributed_lock", locker != nil)
	return svc, nil
}
