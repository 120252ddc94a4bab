// Package temporal resolves relative time phrases ("yesterday", "la semana
// pasada", "3 days ago") into absolute date ranges. Rules are evaluated in a
// fixed precedence order and the first matching rule wins; each rule carries
// one pattern set per supported language, so adding a locale is a data
// change only.
package temporal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"lifequery/internal/models"
)

// rule is one relative-time phrase family. literals are matched as
// case-insensitive substrings; excludes suppresses a match when a longer
// overlapping phrase is present (e.g. "yesterday" inside "day before
// yesterday"). resolve turns the reference instant into the final range.
type rule struct {
	label    string
	literals []string
	excludes []string
	resolve  func(now time.Time) models.DateRange
}

// daysAgoPatterns captures a numeric day offset, one pattern per language.
var daysAgoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*days?\s*ago`),
	regexp.MustCompile(`(?i)hace\s*(\d+)\s*d[ií]as?`),
	regexp.MustCompile(`(?i)il y a\s*(\d+)\s*jours?`),
	regexp.MustCompile(`(?i)vor\s*(\d+)\s*tagen?`),
	regexp.MustCompile(`(?i)h[áa]\s*(\d+)\s*dias?`),
	regexp.MustCompile(`(?i)(\d+)\s*giorni\s*fa`),
	regexp.MustCompile(`(\d+)\s*天前`),
	regexp.MustCompile(`(\d+)\s*日前`),
	regexp.MustCompile(`(\d+)\s*일\s*전`),
}

var rules = []rule{
	{
		label: "today",
		literals: []string{
			"today", "hoy", "aujourd'hui", "heute", "hoje", "oggi",
			"今天", "今日", "오늘",
		},
		resolve: func(now time.Time) models.DateRange {
			return dayRange(now, 0)
		},
	},
	{
		label: "yesterday",
		literals: []string{
			"yesterday", "ayer", "hier", "gestern", "ontem", "ieri",
			"昨天", "昨日", "어제",
		},
		// Longer day-before phrases contain the plain yesterday word in
		// most languages; they must not be claimed by this rule.
		excludes: []string{
			"day before yesterday", "anteayer", "avant-hier", "vorgestern",
			"anteontem", "altro ieri", "前天", "一昨日", "그저께",
		},
		resolve: func(now time.Time) models.DateRange {
			return dayRange(now, -1)
		},
	},
	{
		label: "day before yesterday",
		literals: []string{
			"day before yesterday", "anteayer", "avant-hier", "vorgestern",
			"anteontem", "altro ieri", "前天", "一昨日", "그저께",
		},
		resolve: func(now time.Time) models.DateRange {
			return dayRange(now, -2)
		},
	},
	// The "N days ago" rule is handled separately because it needs a
	// numeric capture; it sits at this position in the precedence order.
	{
		label: "this week",
		literals: []string{
			"this week", "esta semana", "cette semaine", "diese woche",
			"questa settimana", "这周", "这星期", "本周", "今週", "이번 주", "이번주",
		},
		resolve: func(now time.Time) models.DateRange {
			// The week starts Sunday; the range ends at now so future
			// dates are never included.
			start := startOfDay(now.AddDate(0, 0, -int(now.Weekday())))
			return models.DateRange{Start: start, End: now}
		},
	},
	{
		label: "last week",
		literals: []string{
			"last week", "semana pasada", "semaine dernière", "letzte woche",
			"semana passada", "settimana scorsa", "上周", "上星期", "先週", "지난주", "지난 주",
		},
		resolve: func(now time.Time) models.DateRange {
			start := startOfDay(now.AddDate(0, 0, -int(now.Weekday())-7))
			return models.DateRange{Start: start, End: endOfDay(start.AddDate(0, 0, 6))}
		},
	},
	{
		label: "this month",
		literals: []string{
			"this month", "este mes", "ce mois", "diesen monat", "este mês",
			"questo mese", "这个月", "本月", "今月", "이번 달", "이번달",
		},
		resolve: func(now time.Time) models.DateRange {
			start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
			return models.DateRange{Start: start, End: now}
		},
	},
	{
		label: "last month",
		literals: []string{
			"last month", "mes pasado", "mois dernier", "letzten monat",
			"mês passado", "mese scorso", "上个月", "上月", "先月", "지난달", "지난 달",
		},
		resolve: func(now time.Time) models.DateRange {
			firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
			start := firstOfThis.AddDate(0, -1, 0)
			return models.DateRange{Start: start, End: endOfDay(firstOfThis.AddDate(0, 0, -1))}
		},
	},
	{
		label: "this year",
		literals: []string{
			"this year", "este año", "cette année", "dieses jahr", "este ano",
			"quest'anno", "今年", "올해",
		},
		resolve: func(now time.Time) models.DateRange {
			start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
			return models.DateRange{Start: start, End: now}
		},
	},
	{
		label: "last year",
		literals: []string{
			"last year", "año pasado", "année dernière", "letztes jahr",
			"ano passado", "anno scorso", "去年", "昨年", "작년", "지난해",
		},
		resolve: func(now time.Time) models.DateRange {
			start := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, now.Location())
			return models.DateRange{Start: start, End: endOfDay(time.Date(now.Year()-1, time.December, 31, 0, 0, 0, 0, now.Location()))}
		},
	},
}

// Resolve detects a relative time phrase in the query and converts it to an
// absolute range relative to now. Precedence is fixed: today, yesterday,
// day before yesterday, "N days ago", this week, last week, this month,
// last month, this year, last year. First match wins. A query with no
// temporal phrase resolves to HasTemporalIntent=false; that is not an error.
func Resolve(text string, now time.Time) models.TemporalIntent {
	lowered := strings.ToLower(text)

	for i, r := range rules {
		// "N days ago" sits between "day before yesterday" and "this week".
		if i == 3 {
			if intent, ok := resolveDaysAgo(lowered, now); ok {
				return intent
			}
		}
		if !matchesRule(lowered, r) {
			continue
		}
		rng := r.resolve(now)
		return models.TemporalIntent{
			HasTemporalIntent: true,
			DateRange:         &rng,
			Label:             r.label,
		}
	}

	return models.TemporalIntent{HasTemporalIntent: false}
}

func matchesRule(lowered string, r rule) bool {
	for _, exclude := range r.excludes {
		if strings.Contains(lowered, exclude) {
			return false
		}
	}
	for _, literal := range r.literals {
		if strings.Contains(lowered, literal) {
			return true
		}
	}
	return false
}

func resolveDaysAgo(lowered string, now time.Time) (models.TemporalIntent, bool) {
	for _, pattern := range daysAgoPatterns {
		match := pattern.FindStringSubmatch(lowered)
		if match == nil {
			continue
		}
		days, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		rng := dayRange(now, -days)
		return models.TemporalIntent{
			HasTemporalIntent: true,
			DateRange:         &rng,
			Label:             fmt.Sprintf("%d days ago", days),
		}, true
	}
	return models.TemporalIntent{}, false
}

// dayRange is the full local day offset days from now: 00:00:00.000 through
// 23:59:59.999.
func dayRange(now time.Time, offset int) models.DateRange {
	day := now.AddDate(0, 0, offset)
	return models.DateRange{Start: startOfDay(day), End: endOfDay(day)}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}
