// Package stats derives aggregate reading statistics from a book collection.
package stats

import (
	"math"
	"slices"
	"time"

	"github.com/lepinkainen/bookiebuddy/internal/library"
)

const (
	// UnknownGenre is the bucket for books without a genre
	UnknownGenre = "Unknown"

	// MaxStreakDays caps how far back the streak walk goes
	MaxStreakDays = 365

	dayLayout = "2006-01-02"
)

// GenreCount is one genre bucket
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// PeriodCount is one YYYY-MM bucket of finished books
type PeriodCount struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
}

// Stats is a projection of the collection; it is never persisted
type Stats struct {
	TotalBooks      int           `json:"totalBooks"`
	AverageRating   float64       `json:"averageRating"`
	BooksByGenre    []GenreCount  `json:"booksByGenre"`
	ReadingTimeline []PeriodCount `json:"readingTimeline"`
	CurrentStreak   int           `json:"currentStreak"`
}

// Compute recomputes every statistic from books. now decides which calendar day is "today" (in UTC).
func Compute(books []library.Book, now time.Time) Stats {
	return Stats{
		TotalBooks:      len(books),
		AverageRating:   AverageRating(books),
		BooksByGenre:    ByGenre(books),
		ReadingTimeline: Timeline(books),
		CurrentStreak:   CurrentStreak(books, now),
	}
}

// AverageRating is the mean rating rounded half-up to one decimal, or 0 for no books
func AverageRating(books []library.Book) float64 {
	if len(books) == 0 {
		return 0
	}

	var sum float64
	for _, b := range books {
		sum += b.Rating
	}
	return roundOneDecimal(sum / float64(len(books)))
}

func roundOneDecimal(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// ByGenre counts books per genre, largest bucket first.
// Equal counts keep the order in which the genre first appeared.
func ByGenre(books []library.Book) []GenreCount {
	counts := make([]GenreCount, 0)
	index := make(map[string]int)

	for _, b := range books {
		genre := b.Genre
		if genre == "" {
			genre = UnknownGenre
		}
		if i, ok := index[genre]; ok {
			counts[i].Count++
			continue
		}
		index[genre] = len(counts)
		counts = append(counts, GenreCount{Genre: genre, Count: 1})
	}

	slices.SortStableFunc(counts, func(a, b GenreCount) int {
		return b.Count - a.Count
	})
	return counts
}

// Timeline counts finished books per YYYY-MM, oldest period first
func Timeline(books []library.Book) []PeriodCount {
	buckets := make(map[string]int)
	for _, b := range books {
		if len(b.DateFinished) < len("2006-01") {
			continue
		}
		buckets[b.DateFinished[:len("2006-01")]]++
	}

	periods := make([]string, 0, len(buckets))
	for period := range buckets {
		periods = append(periods, period)
	}
	slices.Sort(periods)

	timeline := make([]PeriodCount, 0, len(periods))
	for _, period := range periods {
		timeline = append(timeline, PeriodCount{Period: period, Count: buckets[period]})
	}
	return timeline
}

// CurrentStreak counts consecutive days ending today with at least one finished book.
// It is 0 when nothing was finished today.
func CurrentStreak(books []library.Book, now time.Time) int {
	days := make(map[string]bool)
	for _, b := range books {
		if len(b.DateFinished) < len(dayLayout) {
			continue
		}
		days[b.DateFinished[:len(dayLayout)]] = true
	}
	if len(days) == 0 {
		return 0
	}

	// AddDate walks calendar days rather than 24h steps
	day := now.UTC()
	streak := 0
	for streak < MaxStreakDays && days[day.Format(dayLayout)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
