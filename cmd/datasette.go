package cmd

import (
	"github.com/lepinkainen/bookiebuddy/internal/cmdutil"
	"github.com/lepinkainen/bookiebuddy/internal/config"
	"github.com/lepinkainen/bookiebuddy/internal/library"
	"github.com/spf13/viper"
)

const datasetteBooksTable = "books"

const datasetteBooksSchema = `CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		cover_image_url TEXT,
		rating REAL,
		review_html TEXT,
		date_finished TEXT,
		genre TEXT,
		created_at TEXT,
		updated_at TEXT,
		google_books_id TEXT,
		google_books_description TEXT
	)`

func bookToMap(b library.Book) map[string]any {
	return cmdutil.StructToMap(b, cmdutil.StructToMapOptions{EmptyAsNull: true})
}

// publishLibrary mirrors the library into Datasette when publishing is enabled
func publishLibrary(books []library.Book) error {
	return cmdutil.WriteToDatastore(books, datasetteBooksSchema, datasetteBooksTable, "library books", bookToMap)
}

// DatasetteCmd represents the datasette command
type DatasetteCmd struct {
	Mode   string `help:"Destination: local (SQLite file) or remote (insert API)"`
	DBFile string `help:"SQLite file written in local mode"`
	URL    string `help:"Remote Datasette base URL"`
}

func (d *DatasetteCmd) Run() error {
	// Running the command is the opt-in
	viper.Set(config.KeyDatasetteEnabled, true)
	if d.Mode != "" {
		viper.Set(config.KeyDatasetteMode, d.Mode)
	}
	if d.DBFile != "" {
		viper.Set(config.KeyDatasetteDBFile, d.DBFile)
	}
	if d.URL != "" {
		viper.Set(config.KeyDatasetteURL, d.URL)
	}

	return withLibrary(func(lib *libraryHandle) error {
		return publishLibrary(lib.Books())
	})
}
