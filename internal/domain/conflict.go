package domain

import "github.com/google/uuid"

// SelectionEntry is one row of the selections x acts join for a group,
// in selection insertion order. It is the conflict detector's input shape.
type SelectionEntry struct {
	UserID    uuid.UUID
	DayID     uuid.UUID
	ActID     uuid.UUID
	StageID   uuid.UUID
	ActName   string
	StartTime string
	EndTime   string
}

// ActRef carries the identifying and display data of one act inside a
// conflict report.
type ActRef struct {
	ActID     uuid.UUID `json:"actId"`
	StageID   uuid.UUID `json:"stageId"`
	Name      string    `json:"name"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
}

// Conflict is a derived, never-persisted pair of acts selected by the same
// user on the same day with overlapping time windows.
type Conflict struct {
	UserID uuid.UUID `json:"userId"`
	DayID  uuid.UUID `json:"dayId"`
	Acts   [2]ActRef `json:"acts"`
}

// DetectConflicts reports every pair of acts selected by the same user on
// the same day whose time windows strictly overlap. Windows that only touch
// at an endpoint do not conflict.
//
// The input is partitioned by user, then by day, preserving input order, so
// output order is deterministic for a given query order. Each unordered pair
// within a day partition is examined exactly once (first-found act first).
// The function is pure: it never mutates or retains its input, and an empty
// input yields an empty result.
func DetectConflicts(entries []SelectionEntry) []Conflict {
	userOrder := make([]uuid.UUID, 0, 8)
	byUser := make(map[uuid.UUID][]SelectionEntry)
	for _, e := range entries {
		if _, seen := byUser[e.UserID]; !seen {
			userOrder = append(userOrder, e.UserID)
		}
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}

	var conflicts []Conflict
	for _, userID := range userOrder {
		dayOrder := make([]uuid.UUID, 0, 4)
		byDay := make(map[uuid.UUID][]SelectionEntry)
		for _, e := range byUser[userID] {
			if _, seen := byDay[e.DayID]; !seen {
				dayOrder = append(dayOrder, e.DayID)
			}
			byDay[e.DayID] = append(byDay[e.DayID], e)
		}

		// O(n^2) per day partition; per-user daily act counts are small
		// enough that a sweep line would not pay for itself.
		for _, dayID := range dayOrder {
			acts := byDay[dayID]
			for i := 0; i < len(acts); i++ {
				for j := i + 1; j < len(acts); j++ {
					if overlaps(acts[i], acts[j]) {
						conflicts = append(conflicts, Conflict{
							UserID: userID,
							DayID:  dayID,
							Acts:   [2]ActRef{actRef(acts[i]), actRef(acts[j])},
						})
					}
				}
			}
		}
	}
	return conflicts
}

// overlaps applies the strict interval overlap predicate using direct string
// comparison. Lexical order equals chronological order for fixed-width
// zero-padded "HH:MM" tokens, including extended hours "24".."29", so no
// time parsing or date normalization is needed.
func overlaps(a, b SelectionEntry) bool {
	return a.StartTime < b.EndTime && b.StartTime < a.EndTime
}

func actRef(e SelectionEntry) ActRef {
	return ActRef{
		ActID:     e.ActID,
		StageID:   e.StageID,
		Name:      e.ActName,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
	}
}

// ValidTimeToken reports whether s is a zero-padded "HH:MM" token within the
// extended 00:00-29:59 range used by act schedules.
func ValidTimeToken(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')
	return hour <= 29 && minute <= 59
}
