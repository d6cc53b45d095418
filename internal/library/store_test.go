package library

import (
	stdErrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/bookiebuddy/internal/errors"
	"github.com/lepinkainen/bookiebuddy/internal/kvstore"
	"github.com/lepinkainen/bookiebuddy/internal/notify"
)

// failingStore wraps a MemoryStore and rejects writes while fail is set
type failingStore struct {
	*kvstore.MemoryStore
	mu   sync.Mutex
	fail bool
}

func (f *failingStore) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

func (f *failingStore) Set(key string, value any) error {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return kvstore.ErrQuotaExceeded
	}
	return f.MemoryStore.Set(key, value)
}

type fixture struct {
	kv       *failingStore
	store    *Store
	recorder *notify.Recorder
	now      time.Time
}

func newFixture(t *testing.T, seed []Book) *fixture {
	t.Helper()

	f := &fixture{
		kv:       &failingStore{MemoryStore: kvstore.NewMemoryStore()},
		recorder: &notify.Recorder{},
		now:      time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}
	var counter atomic.Int64
	f.store = NewStore(f.kv,
		WithSeed(seed),
		WithNotifier(f.recorder),
		WithClock(func() time.Time { return f.now }),
		WithIDGenerator(func() string {
			return fmt.Sprintf("book-%d", counter.Add(1))
		}),
	)
	return f
}

func (f *fixture) persisted(t *testing.T) Payload {
	t.Helper()
	payload, ok := kvstore.Get[Payload](f.kv, DefaultKey)
	require.True(t, ok, "payload should be persisted")
	return payload
}

func sampleDraft(title string) Draft {
	return Draft{Title: title, Author: "Author of " + title, Rating: 4, Genre: "Fantasy"}
}

func TestBootstrapSeedsEmptyStorage(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	store := NewStore(kv)

	assert.Len(t, store.Books(), len(DefaultBooks()))

	payload, ok := kvstore.Get[Payload](kv, DefaultKey)
	require.True(t, ok)
	assert.Equal(t, SchemaVersion, payload.Version)
	assert.Equal(t, DefaultBooks(), payload.Books)
}

func TestBootstrapRestoresStoredPayload(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	stored := []Book{{ID: "a", Title: "Stored", Author: "Someone", CreatedAt: "2025-01-01T00:00:00.000Z", UpdatedAt: "2025-01-01T00:00:00.000Z"}}
	require.NoError(t, kv.Set(DefaultKey, Payload{Version: SchemaVersion, Books: stored}))

	store := NewStore(kv)

	assert.Equal(t, stored, store.Books())
}

func TestBootstrapReseedsInvalidPayloads(t *testing.T) {
	tests := []struct {
		name  string
		setup func(kv *kvstore.MemoryStore)
	}{
		{
			name: "wrong version",
			setup: func(kv *kvstore.MemoryStore) {
				_ = kv.Set(DefaultKey, Payload{Version: 2, Books: []Book{{ID: "x", Title: "X", Author: "Y"}}})
			},
		},
		{
			name: "empty books",
			setup: func(kv *kvstore.MemoryStore) {
				_ = kv.Set(DefaultKey, Payload{Version: SchemaVersion, Books: []Book{}})
			},
		},
		{
			name: "malformed data",
			setup: func(kv *kvstore.MemoryStore) {
				_ = kv.SetRaw(DefaultKey, []byte("{not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := kvstore.NewMemoryStore()
			tt.setup(kv)

			store := NewStore(kv)

			assert.Equal(t, DefaultBooks(), store.Books())
		})
	}
}

func TestBootstrapWithUnavailableStorage(t *testing.T) {
	store := NewStore(kvstore.Unavailable{}, WithSeed(nil))

	book, err := store.Add(sampleDraft("Offline"))
	require.NoError(t, err)
	assert.Equal(t, []Book{book}, store.Books())
}

func TestAddAssignsIdentityAndTimestamps(t *testing.T) {
	f := newFixture(t, nil)

	book, err := f.store.Add(Draft{Title: "  Dune ", Author: "Frank Herbert", Rating: 5})
	require.NoError(t, err)

	assert.Equal(t, "book-1", book.ID)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "2025-03-14T09:30:00.000Z", book.CreatedAt)
	assert.Equal(t, book.CreatedAt, book.UpdatedAt)

	assert.Equal(t, []Book{book}, f.persisted(t).Books)

	msg, ok := f.recorder.Last()
	require.True(t, ok)
	assert.Equal(t, notify.Success, msg.Kind)
	assert.Equal(t, "Book added", msg.Title)
	assert.Contains(t, msg.Detail, `"Dune"`)
}

func TestAddKeepsIDsUnique(t *testing.T) {
	f := newFixture(t, nil)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		book, err := f.store.Add(sampleDraft(fmt.Sprintf("Book %d", i)))
		require.NoError(t, err)
		assert.False(t, seen[book.ID], "duplicate id %s", book.ID)
		seen[book.ID] = true
	}
	assert.Equal(t, 20, f.store.Len())
}

func TestAddRejectsMissingFields(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.store.Add(Draft{Title: "   "})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Contains(t, err.Error(), "title: is required")
	assert.Contains(t, err.Error(), "author: is required")
	assert.Equal(t, 0, f.store.Len())
}

func TestFailedPersistLeavesCollectionUnchanged(t *testing.T) {
	seed := []Book{
		{ID: "keep", Title: "Keep", Author: "A", Rating: 3, CreatedAt: "2024-01-01T00:00:00.000Z", UpdatedAt: "2024-01-01T00:00:00.000Z"},
	}

	tests := []struct {
		name string
		op   func(s *Store) error
	}{
		{"add", func(s *Store) error { _, err := s.Add(sampleDraft("New")); return err }},
		{"add many", func(s *Store) error { _, err := s.AddMany([]Draft{sampleDraft("New")}); return err }},
		{"update", func(s *Store) error {
			b, _ := s.Get("keep")
			b.Rating = 5
			_, err := s.Update(b)
			return err
		}},
		{"delete", func(s *Store) error { return s.Delete("keep") }},
		{"clear", func(s *Store) error { return s.Clear() }},
		{"import", func(s *Store) error { return s.Import([]byte(`{"version":1,"books":[]}`)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, seed)
			before := f.store.Books()
			f.kv.setFail(true)

			err := tt.op(f.store)

			require.Error(t, err)
			assert.True(t, errors.IsPersistenceError(err))
			assert.True(t, stdErrors.Is(err, kvstore.ErrQuotaExceeded))
			assert.Equal(t, before, f.store.Books())
			assert.Equal(t, before, f.persisted(t).Books)

			msg, ok := f.recorder.Last()
			require.True(t, ok)
			assert.Equal(t, notify.Warn, msg.Kind)
			assert.Equal(t, "Storage limit reached", msg.Title)
		})
	}
}

func TestUpdatePreservesIdentity(t *testing.T) {
	f := newFixture(t, nil)
	original, err := f.store.Add(sampleDraft("Original"))
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	edited := original
	edited.Title = "Edited"
	edited.CreatedAt = "1999-01-01T00:00:00.000Z"
	edited.UpdatedAt = "1999-01-01T00:00:00.000Z"

	updated, err := f.store.Update(edited)
	require.NoError(t, err)

	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, original.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "2025-03-14T10:30:00.000Z", updated.UpdatedAt)
	assert.Equal(t, "Edited", updated.Title)

	got, ok := f.store.Get(original.ID)
	require.True(t, ok)
	assert.Equal(t, updated, got)
}

func TestUpdateNeverMovesTimestampBackwards(t *testing.T) {
	f := newFixture(t, nil)
	original, err := f.store.Add(sampleDraft("Clock"))
	require.NoError(t, err)

	f.now = f.now.Add(-24 * time.Hour)
	original.Rating = 1
	updated, err := f.store.Update(original)
	require.NoError(t, err)

	assert.Equal(t, original.UpdatedAt, updated.UpdatedAt)
}

func TestUpdateMissingBook(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.store.Update(Book{ID: "ghost", Title: "Ghost", Author: "Nobody"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))

	msg, ok := f.recorder.Last()
	require.True(t, ok)
	assert.Equal(t, notify.Error, msg.Kind)
	assert.Equal(t, "Book not found", msg.Title)

	_, err = f.store.Update(Book{ID: "ghost"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
	assert.False(t, errors.IsValidationError(err))
}

func TestUpdateRejectsInvalidFields(t *testing.T) {
	f := newFixture(t, nil)
	book, err := f.store.Add(sampleDraft("Kept"))
	require.NoError(t, err)

	invalid := book
	invalid.Title = "  "
	_, err = f.store.Update(invalid)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	msg, ok := f.recorder.Last()
	require.True(t, ok)
	assert.Equal(t, notify.Warn, msg.Kind)
	assert.Equal(t, "Check the book", msg.Title)

	stored, ok := f.store.Get(book.ID)
	require.True(t, ok)
	assert.Equal(t, "Kept", stored.Title)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, nil)
	first, _ := f.store.Add(sampleDraft("First"))
	second, _ := f.store.Add(sampleDraft("Second"))

	require.NoError(t, f.store.Delete(first.ID))

	assert.Equal(t, []Book{second}, f.store.Books())
	assert.Equal(t, []Book{second}, f.persisted(t).Books)

	err := f.store.Delete(first.ID)
	assert.True(t, errors.IsNotFoundError(err))
	assert.Equal(t, []Book{second}, f.store.Books())
}

func TestConcurrentDeleteOfSameBook(t *testing.T) {
	f := newFixture(t, nil)
	book, err := f.store.Add(sampleDraft("Contested"))
	require.NoError(t, err)

	const workers = 8
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.store.Delete(book.ID)
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.IsNotFoundError(err))
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.store.Len())
	assert.False(t, f.store.Loading())
}

func TestConcurrentAddsAreAllKept(t *testing.T) {
	f := newFixture(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.store.Add(sampleDraft(fmt.Sprintf("Parallel %d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, f.store.Len())
	assert.Len(t, f.persisted(t).Books, 10)
}

func TestSubscribersSeeTheLatestCommitLast(t *testing.T) {
	f := newFixture(t, nil)

	var mu sync.Mutex
	var lengths []int
	f.store.Subscribe(func(books []Book) {
		mu.Lock()
		defer mu.Unlock()
		lengths = append(lengths, len(books))
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.store.Add(sampleDraft(fmt.Sprintf("Ordered %d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, lengths, 20)
	for i, n := range lengths {
		assert.Equal(t, i+1, n)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	f := newFixture(t, DefaultBooks())

	data, err := f.store.Export()
	require.NoError(t, err)

	other := newFixture(t, nil)
	_, err = other.store.Add(sampleDraft("Replaced"))
	require.NoError(t, err)

	require.NoError(t, other.store.Import(data))
	assert.Equal(t, f.store.Books(), other.store.Books())

	msg, ok := other.recorder.Last()
	require.True(t, ok)
	assert.Equal(t, "Import complete", msg.Title)
	assert.Equal(t, fmt.Sprintf("Imported %d book(s).", len(DefaultBooks())), msg.Detail)
}

func TestImportEmptyList(t *testing.T) {
	f := newFixture(t, DefaultBooks())

	require.NoError(t, f.store.Import([]byte(`{"version":1,"books":[]}`)))
	assert.Empty(t, f.store.Books())
	assert.Empty(t, f.persisted(t).Books)
}

func TestImportRejectsMalformedSnapshots(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"wrong version", `{"version":2,"books":[]}`},
		{"missing version", `{"books":[]}`},
		{"books not a list", `{"version":1,"books":{"id":"a"}}`},
		{"missing books", `{"version":1}`},
		{"not json", `version 1`},
		{"duplicate ids", `{"version":1,"books":[{"id":"a","title":"A","author":"B"},{"id":"a","title":"C","author":"D"}]}`},
		{"empty id", `{"version":1,"books":[{"title":"A","author":"B"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, DefaultBooks())
			before := f.store.Books()

			err := f.store.Import([]byte(tt.data))

			require.Error(t, err)
			assert.True(t, errors.IsMalformedImportError(err))
			assert.Equal(t, before, f.store.Books())
			assert.Equal(t, before, f.persisted(t).Books)

			msg, ok := f.recorder.Last()
			require.True(t, ok)
			assert.Equal(t, notify.Error, msg.Kind)
			assert.Equal(t, "Import failed", msg.Title)
		})
	}
}

func TestClear(t *testing.T) {
	f := newFixture(t, DefaultBooks())

	require.NoError(t, f.store.Clear())

	assert.Empty(t, f.store.Books())
	payload := f.persisted(t)
	assert.Equal(t, SchemaVersion, payload.Version)
	assert.Empty(t, payload.Books)
}

func TestReopeningAClearedLibraryReseeds(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	store := NewStore(kv)
	require.NoError(t, store.Clear())

	reopened := NewStore(kv)
	assert.Len(t, reopened.Books(), len(DefaultBooks()))
}

func TestAddManySkipsInvalidDrafts(t *testing.T) {
	f := newFixture(t, nil)

	added, err := f.store.AddMany([]Draft{
		sampleDraft("One"),
		{Title: "No author"},
		sampleDraft("Two"),
	})
	require.NoError(t, err)

	require.Len(t, added, 2)
	assert.Equal(t, "One", added[0].Title)
	assert.Equal(t, "Two", added[1].Title)
	assert.Equal(t, added, f.store.Books())
}

func TestSubscribeReceivesCommittedSnapshots(t *testing.T) {
	f := newFixture(t, nil)

	var snapshots [][]Book
	cancel := f.store.Subscribe(func(books []Book) {
		snapshots = append(snapshots, books)
	})

	book, err := f.store.Add(sampleDraft("Observed"))
	require.NoError(t, err)

	f.kv.setFail(true)
	_ = f.store.Delete(book.ID)
	f.kv.setFail(false)

	cancel()
	require.NoError(t, f.store.Delete(book.ID))

	require.Len(t, snapshots, 1)
	assert.Equal(t, []Book{book}, snapshots[0])
}

func TestBooksReturnsCopy(t *testing.T) {
	f := newFixture(t, DefaultBooks())

	books := f.store.Books()
	books[0].Title = "Mutated"

	assert.NotEqual(t, "Mutated", f.store.Books()[0].Title)
}
