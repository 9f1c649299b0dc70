// Package timewin anchors wall-clock duty windows ("HH:MM" strings on a
// calendar day) to absolute instants and reconciles raw assignment windows
// against a mission's canonical slots. It is the single home for the
// overnight-wraparound rule; every view (history, planner, calendar) goes
// through here instead of re-deriving it.
package timewin

import (
	"strconv"
	"strings"
	"time"
)

// Slot is a canonical, reusable time window defined per mission,
// independent of any specific day. It may itself be overnight (End <= Start).
type Slot struct {
	ID        int64
	MissionID int64
	Start     string // "HH:MM" or "HH:MM:SS"
	End       string
}

// IsOvernight reports whether a window crosses midnight. The only signal is
// the wall-clock ordering: an end at or before the start means the window
// rolls into the next day (e.g. 22:00 -> 06:00).
func IsOvernight(start, end string) bool {
	return clockPrefix(end) <= clockPrefix(start)
}

// Resolve anchors the window [start, end] against day, returning absolute
// instants with end strictly after start. Overnight windows end on day+1.
// Inputs are assumed well-formed; validation belongs to the API boundary.
func Resolve(day time.Time, start, end string) (time.Time, time.Time) {
	startAt := At(day, start)
	endAt := At(day, end)
	if IsOvernight(start, end) {
		endAt = endAt.AddDate(0, 0, 1)
	}
	return startAt, endAt
}

// At combines a calendar day with a wall-clock string at minute granularity.
// Seconds, when present, are ignored: slot matching and grouping never need
// sub-minute precision.
func At(day time.Time, clock string) time.Time {
	h, m := splitClock(clock)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}

// Overlap returns the shared duration of [aStart, aEnd) and [bStart, bEnd),
// zero when they do not intersect.
func Overlap(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	lo := aStart
	if bStart.After(lo) {
		lo = bStart
	}
	hi := aEnd
	if bEnd.Before(hi) {
		hi = bEnd
	}
	if !hi.After(lo) {
		return 0
	}
	return hi.Sub(lo)
}

// BestSlot picks the candidate slot with the greatest overlap against the
// raw window. An overnight raw window spills into day+1, so each candidate
// is also resolved there and the greater of the two overlaps counts; a
// next-morning slot can then win against an evening one. Ties keep the
// first candidate in iteration order. When no candidate overlaps at all
// (or candidates is empty), ok is false and callers must render the raw
// window verbatim -- that fallback is part of the contract, not an error.
func BestSlot(day time.Time, rawStart, rawEnd string, candidates []Slot) (best Slot, ok bool) {
	rStart, rEnd := Resolve(day, rawStart, rawEnd)
	overnight := IsOvernight(rawStart, rawEnd)

	var bestOverlap time.Duration
	for _, cand := range candidates {
		sStart, sEnd := Resolve(day, cand.Start, cand.End)
		d := Overlap(rStart, rEnd, sStart, sEnd)
		if overnight {
			nStart, nEnd := Resolve(day.AddDate(0, 0, 1), cand.Start, cand.End)
			if next := Overlap(rStart, rEnd, nStart, nEnd); next > d {
				d = next
			}
		}
		if d > bestOverlap {
			best = cand
			bestOverlap = d
			ok = true
		}
	}
	return best, ok
}

// ClockLabel normalizes a wall-clock string to the "HH:MM" form views render.
func ClockLabel(clock string) string {
	return clockPrefix(clock)
}

// clockPrefix normalizes a wall-clock string to its comparable "HH:MM" form.
func clockPrefix(clock string) string {
	if len(clock) > 5 {
		return clock[:5]
	}
	return clock
}

func splitClock(clock string) (hour, minute int) {
	parts := strings.SplitN(clock, ":", 3)
	if len(parts) > 0 {
		hour, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		minute, _ = strconv.Atoi(parts[1])
	}
	return hour, minute
}
