package cmd

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lepinkainen/bookiebuddy/internal/catalog"
	"github.com/lepinkainen/bookiebuddy/internal/config"
	"github.com/lepinkainen/bookiebuddy/internal/kvstore"
	"github.com/lepinkainen/bookiebuddy/internal/library"
	"github.com/lepinkainen/bookiebuddy/internal/notify"
	"github.com/lepinkainen/bookiebuddy/internal/tui"
)

// Replaceable in tests
var (
	stdout       io.Writer = os.Stdout
	now                    = time.Now
	openLibrary            = openConfiguredLibrary
	newCatalog             = newConfiguredCatalog
	selectVolume           = tui.SelectVolume
)

// libraryHandle is an open library together with the backend it persists to
type libraryHandle struct {
	*library.Store
	kv kvstore.Store
}

// Close releases the storage backend
func (h *libraryHandle) Close() {
	if err := h.kv.Close(); err != nil {
		slog.Warn("Failed to close library storage", "error", err)
	}
}

// openConfiguredLibrary opens the configured backend; if it cannot be opened the
// library still works in memory for this run
func openConfiguredLibrary() (*libraryHandle, error) {
	backend := config.StoreBackend()
	path := config.StorePath()

	if backend == kvstore.BackendSQLite || backend == kvstore.BackendBadger {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				slog.Warn("Failed to create storage directory", "path", dir, "error", err)
			}
		}
	}

	kv := kvstore.OpenOrUnavailable(backend, path)
	store := library.NewStore(kv,
		library.WithKey(config.BooksKey()),
		library.WithNotifier(notify.NewLogger(nil)),
	)

	store.Subscribe(func(books []library.Book) {
		slog.Debug("Library changed", "books", len(books), "genres", len(library.Genres(books)))
	})

	slog.Debug("Opened library", "backend", backend, "path", path, "books", store.Len())
	return &libraryHandle{Store: store, kv: kv}, nil
}

// withLibrary opens the library for the duration of fn
func withLibrary(fn func(lib *libraryHandle) error) error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	return fn(lib)
}

func newConfiguredCatalog() *catalog.Client {
	return catalog.NewClient(
		catalog.WithBaseURL(config.GoogleBooksBaseURL()),
		catalog.WithAPIKey(config.GoogleBooksAPIKey()),
		catalog.WithRateLimit(config.GoogleBooksRateLimit(), 1),
	)
}

var errConfirmationRequired = errors.New("refusing to clear the library without --yes")
