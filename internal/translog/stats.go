package translog

import (
	"context"
	"fmt"
	"io"
	"time"
)

// WordsPerPage approximates one A4 page.
const WordsPerPage = 500

// PeriodStat is the word total for one reporting window.
type PeriodStat struct {
	Name  string
	Words int
}

// Pages converts the word total to pages.
func (p PeriodStat) Pages() float64 {
	return float64(p.Words) / WordsPerPage
}

// Stats reports word totals for Today, Yesterday and the rolling windows,
// all anchored at local midnight of now.
func (s *Store) Stats(ctx context.Context, now time.Time) ([]PeriodStat, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)

	todayWords, err := s.WordsSince(ctx, today)
	if err != nil {
		return nil, err
	}
	yesterdayWords, err := s.WordsBetween(ctx, yesterday, today)
	if err != nil {
		return nil, err
	}

	stats := []PeriodStat{
		{Name: "Today", Words: todayWords},
		{Name: "Yesterday", Words: yesterdayWords},
	}
	rolling := []struct {
		name string
		days int
	}{
		{name: "Last 7 Days", days: 7},
		{name: "Last 30 Days", days: 30},
		{name: "Last 6 Months", days: 180},
	}
	for _, r := range rolling {
		words, err := s.WordsSince(ctx, today.AddDate(0, 0, -r.days))
		if err != nil {
			return nil, err
		}
		stats = append(stats, PeriodStat{Name: r.name, Words: words})
	}
	return stats, nil
}

// WriteStats prints the stats table.
func WriteStats(w io.Writer, stats []PeriodStat) {
	fmt.Fprintln(w, "--- Transcription Stats ---")
	fmt.Fprintf(w, "(Assuming %d words ≈ 1 A4 page)\n", WordsPerPage)
	for _, p := range stats {
		fmt.Fprintf(w, "- %13s: %6d words (%.1f pages)\n", p.Name, p.Words, p.Pages())
	}
	fmt.Fprintln(w, "-------------------------")
}
