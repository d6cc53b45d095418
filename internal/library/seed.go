package library

// defaultBooks is adopted, and persisted, when no usable payload is stored.
// Dates are fixed so a fresh library always reports the same statistics.
var defaultBooks = []Book{
	{
		ID:            "seed-the-hobbit",
		Title:         "The Hobbit",
		Author:        "J.R.R. Tolkien",
		CoverImageURL: "https://covers.openlibrary.org/b/isbn/9780547928227-L.jpg",
		Rating:        5,
		ReviewHTML:    "<p>A cozy adventure that still feels <strong>grand</strong>.</p>",
		DateFinished:  "2024-01-14T00:00:00.000Z",
		Genre:         "Fantasy",
		CreatedAt:     "2024-01-14T09:30:00.000Z",
		UpdatedAt:     "2024-01-14T09:30:00.000Z",
	},
	{
		ID:            "seed-dune",
		Title:         "Dune",
		Author:        "Frank Herbert",
		CoverImageURL: "https://covers.openlibrary.org/b/isbn/9780441172719-L.jpg",
		Rating:        5,
		ReviewHTML:    "<p>Politics, ecology and prophecy on a desert planet.</p>",
		DateFinished:  "2024-02-03T00:00:00.000Z",
		Genre:         "Science Fiction",
		CreatedAt:     "2024-02-03T18:05:00.000Z",
		UpdatedAt:     "2024-02-03T18:05:00.000Z",
	},
	{
		ID:            "seed-the-name-of-the-wind",
		Title:         "The Name of the Wind",
		Author:        "Patrick Rothfuss",
		CoverImageURL: "https://covers.openlibrary.org/b/isbn/9780756404741-L.jpg",
		Rating:        4,
		ReviewHTML:    "<p>Beautiful prose, slow middle.</p>",
		DateFinished:  "2024-02-21T00:00:00.000Z",
		Genre:         "Fantasy",
		CreatedAt:     "2024-02-21T21:10:00.000Z",
		UpdatedAt:     "2024-02-21T21:10:00.000Z",
	},
	{
		ID:            "seed-gone-girl",
		Title:         "Gone Girl",
		Author:        "Gillian Flynn",
		CoverImageURL: "https://covers.openlibrary.org/b/isbn/9780307588371-L.jpg",
		Rating:        4,
		ReviewHTML:    "<p>Two unreliable narrators, zero likeable people.</p>",
		DateFinished:  "2024-03-09T00:00:00.000Z",
		Genre:         "Mystery",
		CreatedAt:     "2024-03-09T12:00:00.000Z",
		UpdatedAt:     "2024-03-09T12:00:00.000Z",
	},
	{
		ID:            "seed-sapiens",
		Title:         "Sapiens",
		Author:        "Yuval Noah Harari",
		CoverImageURL: "https://covers.openlibrary.org/b/isbn/9780062316097-L.jpg",
		Rating:        3,
		ReviewHTML:    "<p>Big ideas, loosely sourced.</p>",
		DateFinished:  "2024-03-30T00:00:00.000Z",
		Genre:         "Nonfiction",
		CreatedAt:     "2024-03-30T08:45:00.000Z",
		UpdatedAt:     "2024-03-30T08:45:00.000Z",
	},
	{
		ID:            "seed-project-hail-mary",
		Title:         "Project Hail Mary",
		Author:        "Andy Weir",
		CoverImageURL: "https://covers.openlibrary.org/b/isbn/9780593135204-L.jpg",
		Rating:        5,
		ReviewHTML:    "<p>Currently reading. Rocky is the best.</p>",
		Genre:         "Science Fiction",
		CreatedAt:     "2024-04-02T19:20:00.000Z",
		UpdatedAt:     "2024-04-02T19:20:00.000Z",
	},
}

// DefaultBooks returns a copy of the default seed collection
func DefaultBooks() []Book {
	return cloneBooks(defaultBooks)
}
