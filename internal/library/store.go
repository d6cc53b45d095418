package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lepinkainen/bookiebuddy/internal/errors"
	"github.com/lepinkainen/bookiebuddy/internal/kvstore"
	"github.com/lepinkainen/bookiebuddy/internal/notify"
)

// Store owns the in-memory book collection.
//
// Every mutation is persisted before it becomes visible: the new collection is
// built from a copy, written to the key-value store, and only then swapped in.
// A failed write leaves both memory and storage as they were.
type Store struct {
	kv       kvstore.Store
	key      string
	notifier notify.Notifier
	now      func() time.Time
	newID    func() string
	seed     []Book

	// mu guards books; writers hold it across persist and commit
	mu    sync.RWMutex
	books []Book

	pending atomic.Int32

	pubMu       sync.Mutex
	subMu       sync.Mutex
	subscribers map[int]func([]Book)
	nextSubID   int
}

// Option configures a Store
type Option func(*Store)

// WithKey overrides the storage key
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithNotifier sets the notification sink
func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithClock sets the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator sets the identifier generator used by Add
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithSeed replaces the default seed collection
func WithSeed(books []Book) Option {
	return func(s *Store) { s.seed = cloneBooks(books) }
}

// NewStore creates a Store backed by kv and restores (or seeds) the collection
func NewStore(kv kvstore.Store, opts ...Option) *Store {
	s := &Store{
		kv:          kv,
		key:         DefaultKey,
		notifier:    notify.Discard,
		now:         time.Now,
		newID:       NewID,
		seed:        DefaultBooks(),
		subscribers: make(map[int]func([]Book)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.bootstrap()
	return s
}

// bootstrap adopts a valid stored payload, or persists and adopts the seed collection
func (s *Store) bootstrap() {
	payload, ok := kvstore.Get[Payload](s.kv, s.key)
	if ok && payload.Version == SchemaVersion && len(payload.Books) > 0 {
		s.books = payload.Books
		slog.Debug("Restored library from storage", "key", s.key, "books", len(payload.Books))
		return
	}

	if ok && payload.Version != SchemaVersion {
		slog.Warn("Stored library has an unsupported schema version, reseeding", "version", payload.Version, "expected", SchemaVersion)
	}

	seed := cloneBooks(s.seed)
	if err := s.kv.Set(s.key, Payload{Version: SchemaVersion, Books: seed}); err != nil {
		slog.Warn("Failed to persist default library", "key", s.key, "error", err)
	}
	s.books = seed
	slog.Info("Seeded library with default books", "books", len(seed))
}

// Books returns a snapshot of the collection in insertion order
func (s *Store) Books() []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneBooks(s.books)
}

// Len returns the number of books
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// Get looks up a book by id
func (s *Store) Get(id string) (Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := indexOf(s.books, id); i >= 0 {
		return s.books[i], true
	}
	return Book{}, false
}

// Loading reports whether a mutation is in flight
func (s *Store) Loading() bool {
	return s.pending.Load() > 0
}

// Subscribe registers fn to receive a snapshot after every committed mutation,
// in commit order. fn may read the Store but must not mutate it.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func([]Book)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

// Add creates a new book from draft and appends it to the collection
func (s *Store) Add(draft Draft) (Book, error) {
	draft = draft.trimmed()
	if err := ValidateDraft(draft); err != nil {
		s.notify(notify.Warn, "Check the book", err.Error())
		return Book{}, err
	}

	ts := s.timestamp()
	book := draft.Apply(Book{ID: s.newID(), CreatedAt: ts, UpdatedAt: ts})

	err := s.mutate("add", func(books []Book) ([]Book, error) {
		return append(books, book), nil
	})
	if err != nil {
		s.reportFailure("add", err)
		return Book{}, err
	}

	s.notify(notify.Success, "Book added", fmt.Sprintf("%q is now in your library.", book.Title))
	return book, nil
}

// AddMany adds every valid draft with a single write.
// Invalid drafts are skipped and logged; the added books are returned.
func (s *Store) AddMany(drafts []Draft) ([]Book, error) {
	ts := s.timestamp()
	added := make([]Book, 0, len(drafts))
	for _, draft := range drafts {
		draft = draft.trimmed()
		if err := ValidateDraft(draft); err != nil {
			slog.Warn("Skipping invalid book", "title", draft.Title, "error", err)
			continue
		}
		added = append(added, draft.Apply(Book{ID: s.newID(), CreatedAt: ts, UpdatedAt: ts}))
	}

	if len(added) == 0 {
		s.notify(notify.Info, "Nothing to add", "No valid books were found.")
		return nil, nil
	}

	err := s.mutate("add", func(books []Book) ([]Book, error) {
		return append(books, added...), nil
	})
	if err != nil {
		s.reportFailure("add", err)
		return nil, err
	}

	s.notify(notify.Success, "Books added", fmt.Sprintf("Added %d book(s) to your library.", len(added)))
	return added, nil
}

// Update replaces the editable fields of the book with the same id.
// The id and createdAt are kept from the stored record. updatedAt is set to now,
// clamped so it never moves behind the stored updatedAt or createdAt.
func (s *Store) Update(book Book) (Book, error) {
	draft := book.Draft().trimmed()

	var updated Book
	err := s.mutate("update", func(books []Book) ([]Book, error) {
		i := indexOf(books, book.ID)
		if i < 0 {
			return nil, errors.NewNotFoundError(book.ID)
		}
		if err := ValidateDraft(draft); err != nil {
			return nil, err
		}

		existing := books[i]
		updated = draft.Apply(existing)
		updated.UpdatedAt = latestTimestamp(s.timestamp(), existing.UpdatedAt, existing.CreatedAt)
		books[i] = updated
		return books, nil
	})
	if err != nil {
		s.reportFailure("update", err)
		return Book{}, err
	}

	s.notify(notify.Success, "Book updated", fmt.Sprintf("%q has been refreshed.", updated.Title))
	return updated, nil
}

// Delete removes the book with the given id
func (s *Store) Delete(id string) error {
	var removed Book
	err := s.mutate("delete", func(books []Book) ([]Book, error) {
		i := indexOf(books, id)
		if i < 0 {
			return nil, errors.NewNotFoundError(id)
		}
		removed = books[i]
		return append(books[:i], books[i+1:]...), nil
	})
	if err != nil {
		s.reportFailure("delete", err)
		return err
	}

	s.notify(notify.Success, "Book removed", fmt.Sprintf("%q has been deleted.", removed.Title))
	return nil
}

// Clear empties the collection
func (s *Store) Clear() error {
	err := s.mutate("clear", func([]Book) ([]Book, error) {
		return []Book{}, nil
	})
	if err != nil {
		s.reportFailure("clear", err)
		return err
	}

	s.notify(notify.Info, "Library cleared", "All books were removed.")
	return nil
}

// Export serializes the collection in the canonical snapshot format
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	payload := Payload{Version: SchemaVersion, Books: cloneBooks(s.books)}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		s.notify(notify.Error, "Failed to export", "Please try again.")
		return nil, fmt.Errorf("failed to marshal library: %w", err)
	}
	return data, nil
}

// Import replaces the whole collection with the books in a snapshot.
// The snapshot must carry the current schema version and a list of books.
func (s *Store) Import(data []byte) error {
	books, err := parseSnapshot(data)
	if err != nil {
		slog.Warn("Rejected library import", "error", err)
		s.notify(notify.Error, "Import failed", "The selected file is not valid.")
		return err
	}

	err = s.mutate("import", func([]Book) ([]Book, error) {
		return books, nil
	})
	if err != nil {
		s.reportFailure("import", err)
		return err
	}

	s.notify(notify.Success, "Import complete", fmt.Sprintf("Imported %d book(s).", len(books)))
	return nil
}

func parseSnapshot(data []byte) ([]Book, error) {
	var raw struct {
		Version *int            `json:"version"`
		Books   json.RawMessage `json:"books"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewMalformedImportError("not a JSON object")
	}

	if raw.Version == nil {
		return nil, errors.NewMalformedImportError("missing version")
	}
	if *raw.Version != SchemaVersion {
		return nil, errors.NewMalformedImportError(fmt.Sprintf("unsupported version %d", *raw.Version))
	}

	trimmed := bytes.TrimSpace(raw.Books)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.NewMalformedImportError("books must be a list")
	}

	var books []Book
	if err := json.Unmarshal(trimmed, &books); err != nil {
		return nil, errors.NewMalformedImportError("books could not be read")
	}

	seen := make(map[string]bool, len(books))
	for _, b := range books {
		if b.ID == "" {
			return nil, errors.NewMalformedImportError("book without id")
		}
		if seen[b.ID] {
			return nil, errors.NewMalformedImportError("duplicate book id " + b.ID)
		}
		seen[b.ID] = true
	}

	if books == nil {
		books = []Book{}
	}
	return books, nil
}

// mutate applies change to a copy of the collection, persists the result and commits it.
// change runs under the write lock and must not call back into the Store.
func (s *Store) mutate(op string, change func([]Book) ([]Book, error)) error {
	s.pending.Add(1)
	defer s.pending.Add(-1)

	s.mu.Lock()
	next, err := change(cloneBooks(s.books))
	if err != nil {
		s.mu.Unlock()
		return err
	}

	if err := s.kv.Set(s.key, Payload{Version: SchemaVersion, Books: next}); err != nil {
		s.mu.Unlock()
		return errors.NewPersistenceError(op, err)
	}

	s.books = next
	snapshot := cloneBooks(next)

	// pubMu is taken before mu is released so subscribers see commits in order
	s.pubMu.Lock()
	s.mu.Unlock()
	defer s.pubMu.Unlock()

	slog.Debug("Library committed", "op", op, "books", len(snapshot))
	s.publish(snapshot)
	return nil
}

func (s *Store) publish(snapshot []Book) {
	s.subMu.Lock()
	subscribers := make([]func([]Book), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subscribers {
		fn(cloneBooks(snapshot))
	}
}

func (s *Store) reportFailure(op string, err error) {
	switch {
	case errors.IsNotFoundError(err):
		s.notify(notify.Error, "Book not found", "The selected book no longer exists.")
	case errors.IsValidationError(err):
		s.notify(notify.Warn, "Check the book", err.Error())
	case errors.IsPersistenceError(err):
		slog.Warn("Failed to persist library", "op", op, "error", err)
		s.notify(notify.Warn, "Storage limit reached", "Your changes could not be saved. Free up space or export your library.")
	default:
		s.notify(notify.Error, "Something went wrong", err.Error())
	}
}

func (s *Store) notify(kind notify.Kind, title, detail string) {
	s.notifier.Notify(kind, title, detail)
}

func (s *Store) timestamp() string {
	return FormatTimestamp(s.now())
}
