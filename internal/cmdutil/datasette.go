package cmdutil

import (
	"fmt"
	"log/slog"

	"github.com/lepinkainen/bookiebuddy/internal/config"
	"github.com/lepinkainen/bookiebuddy/internal/datastore"
)

// Datasette modes
const (
	DatasetteLocal  = "local"
	DatasetteRemote = "remote"
)

// WriteToDatastore publishes items to the configured Datasette destination.
// It does nothing unless datasette.enabled is set. description is only used in logs.
func WriteToDatastore[T any](items []T, schema, table, description string, toRecord func(T) map[string]any) error {
	if !config.DatasetteEnabled() {
		slog.Debug("Datasette publishing disabled", "table", table)
		return nil
	}

	store, err := newDatastore(config.DatasetteMode())
	if err != nil {
		return err
	}
	if err := store.Connect(); err != nil {
		return fmt.Errorf("failed to connect to Datasette: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.CreateTable(schema); err != nil {
		return err
	}

	records := make([]map[string]any, len(items))
	for i, item := range items {
		records[i] = toRecord(item)
	}

	if err := store.BatchInsert(config.DatasetteDatabase(), table, records); err != nil {
		return fmt.Errorf("failed to write %s: %w", description, err)
	}

	slog.Info("Published to Datasette", "what", description, "count", len(records), "table", table)
	return nil
}

func newDatastore(mode string) (datastore.Store, error) {
	switch mode {
	case DatasetteLocal, "":
		return datastore.NewSQLiteStore(config.DatasetteDBFile()), nil
	case DatasetteRemote:
		return datastore.NewDatasetteClient(config.DatasetteURL(), config.DatasetteToken()), nil
	default:
		return nil, fmt.Errorf("invalid Datasette mode %q; valid modes are: local, remote", mode)
	}
}
