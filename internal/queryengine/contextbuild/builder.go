// Package contextbuild assembles retrieved fragments and extracted events
// into the single bounded text block handed to the language model.
package contextbuild

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"lifequery/internal/models"
)

const (
	// DefaultMaxChars caps the assembled context so downstream generation
	// cost stays deterministic.
	DefaultMaxChars = 6000

	// TruncationMarker is appended when the context had to be cut.
	TruncationMarker = "...[context truncated]"

	// InsufficientDataMessage instructs the generator to admit it has
	// nothing instead of hallucinating.
	InsufficientDataMessage = "No personal data was found for this question. " +
		"Tell the user you do not have enough information to answer, and do not guess."
)

// fallbackTimestampKeys is the fixed priority order of metadata fields
// consulted when a fragment has no explicit OccurredAt.
var fallbackTimestampKeys = []string{
	models.MetadataKeyOccurredAt,
	models.MetadataKeyTimestamp,
	models.MetadataKeyCreatedAt,
}

// Builder formats retrieval results into context text.
type Builder struct {
	MaxChars int
}

// NewBuilder returns a Builder with the given character budget; zero or
// negative selects DefaultMaxChars. The budget is clamped so the
// truncation marker always fits.
func NewBuilder(maxChars int) *Builder {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if marker := len([]rune(TruncationMarker)); maxChars < marker {
		maxChars = marker
	}
	return &Builder{MaxChars: maxChars}
}

// Build renders fragments and events into a single text block. Fragments
// are sorted by score descending (stable, so ties keep retrieval order),
// deduplicated by ID keeping the highest-scored occurrence, date-stamped
// where a timestamp is available, and capped at MaxChars with a truncation
// marker. For counting queries the block is prefixed with an explicit
// instruction stating the exact retrieved count, computed after dedupe.
func (b *Builder) Build(
	fragments []models.RetrievedFragment,
	events []models.ExtractedEvent,
	intent models.IntentAnalysis,
) string {
	if len(fragments) == 0 && len(events) == 0 {
		return InsufficientDataMessage
	}

	ranked := make([]models.RetrievedFragment, len(fragments))
	copy(ranked, fragments)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	ranked = dedupe(ranked)

	var sb strings.Builder

	if intent.IsCountQuery && len(ranked) > 0 {
		sb.WriteString(countInstruction(intent.SuggestedDataType, len(ranked)))
	}

	for i, fragment := range ranked {
		sb.WriteString(formatFragment(i+1, fragment))
		sb.WriteString("\n")
	}

	if len(events) > 0 {
		sb.WriteString("\nExtracted calendar events:\n")
		for i, event := range events {
			sb.WriteString(formatEvent(i+1, event))
			sb.WriteString("\n")
		}
	}

	return b.truncate(sb.String())
}

// dedupe drops repeated fragment IDs. The input is already sorted by score
// descending, so the first occurrence kept is the highest-scored one.
// Fragments without an ID are never collapsed.
func dedupe(ranked []models.RetrievedFragment) []models.RetrievedFragment {
	seen := make(map[string]struct{}, len(ranked))
	kept := ranked[:0]
	for _, fragment := range ranked {
		if fragment.ID != "" {
			if _, ok := seen[fragment.ID]; ok {
				continue
			}
			seen[fragment.ID] = struct{}{}
		}
		kept = append(kept, fragment)
	}
	return kept
}

// countInstruction biases the generator toward a precise numeric answer.
func countInstruction(dataType models.DataType, count int) string {
	label := "matching"
	if dataType != "" {
		label = string(dataType)
	}
	return fmt.Sprintf(
		"Total %s records found: %d.\n"+
			"When asked how many or how often, answer with this exact number.\n\n",
		label, count,
	)
}

// formatFragment renders one fragment as "[i] (NN%) [date] text". The date
// is omitted when no timestamp field parses; photo fragments carry a
// distinguishing marker.
func formatFragment(index int, fragment models.RetrievedFragment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%d] (%.0f%%)", index, fragment.Score*100)

	if date, ok := fragmentDate(fragment); ok {
		fmt.Fprintf(&sb, " [%s]", date)
	}
	if fragment.DataType == models.DataTypePhoto {
		sb.WriteString(" [photo]")
	}

	sb.WriteString(" ")
	sb.WriteString(fragment.Text)
	return sb.String()
}

func formatEvent(index int, event models.ExtractedEvent) string {
	line := fmt.Sprintf("[%d] (%.0f%% confidence) %s %s",
		index, event.Confidence*100, event.OccursAt.Format(time.RFC3339), event.Title)
	if event.Description != "" {
		line += " - " + event.Description
	}
	return line
}

// fragmentDate derives a display date from the best available timestamp:
// the explicit OccurredAt first, then the metadata fallback keys in their
// fixed priority order. The first value that parses wins.
func fragmentDate(fragment models.RetrievedFragment) (string, bool) {
	if !fragment.OccurredAt.IsZero() {
		return fragment.OccurredAt.Format("2006-01-02"), true
	}
	for _, key := range fallbackTimestampKeys {
		raw, ok := fragment.Metadata[key]
		if !ok {
			continue
		}
		if t, ok := parseTimestamp(raw); ok {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func parseTimestamp(raw interface{}) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	case int64:
		if v > 0 {
			return time.Unix(v, 0), true
		}
	}
	return time.Time{}, false
}

// truncate enforces the character budget, preserving the earliest (highest
// relevance) content and appending the truncation marker. The budget is
// counted in runes so multi-byte text is never split.
func (b *Builder) truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= b.MaxChars {
		return text
	}
	marker := []rune(TruncationMarker)
	return string(runes[:b.MaxChars-len(marker)]) + TruncationMarker
}
