// Package ledger defines the daily-budget activity ledger: the activity
// records kept per user per calendar date, the 1440-minute budget rules,
// and the repository that keeps the current day's cache in step with the
// remote store.
package ledger

import (
	"encoding/json"
	"time"
)

// FullDayMinutes is the daily budget ceiling. A day whose activities sum to
// exactly this value is complete.
const FullDayMinutes = 1440

// Activity is one logged action on one day, as stored in the remote tree.
type Activity struct {
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Minutes  Minutes `json:"minutes"`
}

// Minutes is an activity duration. The hosted store does not validate what
// other clients write under "minutes", so decoding is tolerant: anything
// that is not a JSON number decodes as 0.
type Minutes int

// UnmarshalJSON implements json.Unmarshaler.
func (m *Minutes) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		*m = 0
		return nil
	}
	*m = Minutes(n)
	return nil
}

// Entry pairs an activity with its store-assigned identifier.
type Entry struct {
	ID       string
	Activity Activity
}

// ValidDate reports whether date is a well-formed YYYY-MM-DD calendar date.
func ValidDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// Today returns the current calendar date in the local zone, formatted the
// way day paths are addressed in the store.
func Today() string {
	return time.Now().Format("2006-01-02")
}
