package config

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/rentory/rentory/internal/logger"
	"github.com/rentory/rentory/pkg/store"
	badgerstore "github.com/rentory/rentory/pkg/store/badger"
	filestore "github.com/rentory/rentory/pkg/store/file"
	memorystore "github.com/rentory/rentory/pkg/store/memory"
)

// CreateStore creates a record store based on configuration.
//
// This factory function uses the Type field to determine which store
// implementation to create, then decodes the type-specific configuration
// from the corresponding map and passes it to the store's constructor.
//
// Supported types:
//   - "file": Uses pkg/store/file (flat-file storage, persistent)
//   - "memory": Uses pkg/store/memory (in-memory storage, ephemeral)
//   - "badger": Uses pkg/store/badger (BadgerDB storage, persistent)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Record store configuration
//
// Returns:
//   - store.Store: Initialized record store
//   - error: Configuration or initialization error
func CreateStore(ctx context.Context, cfg *StoreConfig) (store.Store, error) {
	switch cfg.Type {
	case "file":
		return createFileStore(ctx, cfg.File)
	case "memory":
		return createMemoryStore(ctx)
	case "badger":
		return createBadgerStore(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown store type: %q (supported: file, memory, badger)", cfg.Type)
	}
}

// createFileStore creates a flat-file record store.
func createFileStore(ctx context.Context, options map[string]any) (store.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type FileStoreOptions struct {
		Dir string `mapstructure:"dir"`
	}

	var storeOpts FileStoreOptions
	if err := mapstructure.Decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode file store options: %w", err)
	}

	if storeOpts.Dir == "" {
		return nil, fmt.Errorf("file store: dir is required")
	}

	st, err := filestore.Open(storeOpts.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open file store: %w", err)
	}

	logger.Info("File store initialized: dir=%s", storeOpts.Dir)
	return st, nil
}

// createMemoryStore creates an in-memory record store.
func createMemoryStore(ctx context.Context) (store.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st, err := memorystore.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create memory store: %w", err)
	}
	return st, nil
}

// createBadgerStore creates a BadgerDB-based persistent record store.
func createBadgerStore(ctx context.Context, options map[string]any) (store.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type BadgerStoreOptions struct {
		DBPath   string `mapstructure:"db_path"`
		InMemory bool   `mapstructure:"in_memory"`
	}

	var storeOpts BadgerStoreOptions
	if err := mapstructure.Decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode badger store options: %w", err)
	}

	if storeOpts.InMemory {
		st, err := badgerstore.OpenInMemory()
		if err != nil {
			return nil, fmt.Errorf("failed to open in-memory badger store: %w", err)
		}
		return st, nil
	}

	if storeOpts.DBPath == "" {
		return nil, fmt.Errorf("badger store: db_path is required")
	}

	st, err := badgerstore.Open(storeOpts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}

	logger.Info("Badger store initialized: db_path=%s", storeOpts.DBPath)
	return st, nil
}
