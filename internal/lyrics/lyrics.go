// Package lyrics parses time-synced lyric text and maps playback positions onto parsed lines.
//
// The input format is the LRC-style text the aggregator returns: one line per lyric, each
// prefixed with a bracketed `[mm:ss.cc]` timestamp. Lines without a timestamp (metadata tags
// such as `[ar:...]`, blank lines, credits) are skipped rather than reported.
//
// Parsed sequences keep the input order. Lookups assume that order is ascending in time, which
// holds for aggregator output; out-of-order input yields undefined indexes.
package lyrics

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/clmusic/internal/models"
)

var timestampPattern = regexp.MustCompile(`^\s*\[(\d+):(\d+\.\d+)\]`)

// Parse converts raw timestamped text into lyric lines, in input order.
//
// Parse never fails: empty or unmatched input yields an empty slice.
func Parse(raw string) []models.LyricLine {
	lines := make([]models.LyricLine, 0)
	if raw == "" {
		return lines
	}

	for _, line := range strings.Split(raw, "\n") {
		loc := timestampPattern.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}

		minutes, err := strconv.ParseFloat(line[loc[2]:loc[3]], 64)
		if err != nil {
			continue
		}
		seconds, err := strconv.ParseFloat(line[loc[4]:loc[5]], 64)
		if err != nil {
			continue
		}

		lines = append(lines, models.LyricLine{
			Time: minutes*60 + seconds,
			Text: stripTimestamps(line[loc[1]:]),
		})
	}

	return lines
}

// stripTimestamps drops repeated leading timestamps (`[00:01.00][00:30.00]chorus`) so text never starts with one.
func stripTimestamps(rest string) string {
	for {
		loc := timestampPattern.FindStringIndex(rest)
		if loc == nil {
			return strings.TrimSpace(rest)
		}
		rest = rest[loc[1]:]
	}
}

// ParseDocument parses the primary and translated texts independently into one document.
func ParseDocument(lyric, translated string) models.LyricDocument {
	return models.LyricDocument{
		Primary:    Parse(lyric),
		Translated: Parse(translated),
	}
}

// Index returns the greatest i with lines[i].Time <= seconds, or -1 when no line has started yet.
func Index(lines []models.LyricLine, seconds float64) int {
	// first line strictly after the position; the active line precedes it
	n := sort.Search(len(lines), func(i int) bool {
		return lines[i].Time > seconds
	})
	return n - 1
}
