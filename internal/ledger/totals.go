package ledger

// Uncategorized is the reserved label entries without a category are
// grouped under.
const Uncategorized = "Uncategorized"

// CategoryTotal is the summed minutes for one category.
type CategoryTotal struct {
	Name    string
	Minutes int
}

// Totals is the budget calculator's output for one day.
type Totals struct {
	TotalMinutes  int
	Categories    []CategoryTotal
	ActivityCount int
}

// Remaining returns the minutes left under the daily budget. Negative when
// the stored day already exceeds it (possible when another client ignored
// the ceiling).
func (t Totals) Remaining() int {
	return FullDayMinutes - t.TotalMinutes
}

// Complete reports whether the day's minutes sum to exactly the full budget.
func (t Totals) Complete() bool {
	return t.TotalMinutes == FullDayMinutes
}

// ComputeTotals sums minutes over the day's entries. Categories appear in
// order of first occurrence; entries without a category are grouped under
// Uncategorized. Pure: entries is not modified.
func ComputeTotals(entries []Entry) Totals {
	totals := Totals{ActivityCount: len(entries)}
	index := make(map[string]int, len(entries))

	for _, entry := range entries {
		minutes := int(entry.Activity.Minutes)
		totals.TotalMinutes += minutes

		category := entry.Activity.Category
		if category == "" {
			category = Uncategorized
		}
		if at, ok := index[category]; ok {
			totals.Categories[at].Minutes += minutes
			continue
		}
		index[category] = len(totals.Categories)
		totals.Categories = append(totals.Categories, CategoryTotal{Name: category, Minutes: minutes})
	}
	return totals
}
