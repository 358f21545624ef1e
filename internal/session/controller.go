// Package session implements the day session controller: the selected date,
// the editing cursor, the 1440-minute transition guard, and the
// reload-after-write consistency policy.
package session

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"

	"example.com/dayledger/internal/ledger"
	"example.com/dayledger/internal/observability"
)

// Repository captures the ledger operations the controller orchestrates.
// *ledger.Repository satisfies it.
type Repository interface {
	LoadDay(ctx context.Context, date string) ([]ledger.Entry, error)
	AddActivity(ctx context.Context, date string, activity ledger.Activity) (string, error)
	UpdateActivity(ctx context.Context, date, id string, activity ledger.Activity) error
	DeleteActivity(ctx context.Context, date, id string) error
	Day() []ledger.Entry
	Find(id string) (ledger.Activity, bool)
	Clear()
}

// Presenter is the presentation layer boundary the controller drives. The
// controller only hands it day states that came out of a completed load,
// never a partially applied mutation.
type Presenter interface {
	RenderDay(entries []ledger.Entry, totals ledger.Totals)
	FillForm(activity ledger.Activity)
	ResetForm()
	SetSubmitBusy(busy bool)
	ShowError(err error)
	ShowNotice(message string)
}

// Option configures optional behaviour for the Session.
type Option func(*Session)

// WithLogger overrides the logger used to report session transitions.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// Session is the controller for one signed-in principal. Mutations may be
// dispatched from concurrent UI command goroutines, so the busy flag is
// claimed under a lock: exactly one mutation holds it for the duration of
// its round trip, and every other attempt is refused with ErrBusy, the way
// a disabled submit control refuses a second press.
type Session struct {
	repo      Repository
	presenter Presenter
	logger    *log.Logger

	mu        sync.Mutex // guards date, editingID, busy
	date      string
	editingID string
	busy      bool
}

// NewSession constructs a Session over an already-scoped repository.
func NewSession(repo Repository, presenter Presenter, opts ...Option) *Session {
	s := &Session{
		repo:      repo,
		presenter: presenter,
		logger:    log.New(log.Writer(), "[session] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Date returns the selected date.
func (s *Session) Date() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// EditingID returns the activity being edited, or "" when idle.
func (s *Session) EditingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editingID
}

// Busy reports whether a mutation round trip is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Day returns the cached day.
func (s *Session) Day() []ledger.Entry { return s.repo.Day() }

// Totals runs the budget calculator over the cached day.
func (s *Session) Totals() ledger.Totals { return ledger.ComputeTotals(s.repo.Day()) }

// Start selects the initial date and performs the first load.
func (s *Session) Start(ctx context.Context, date string) error {
	return s.SetDate(ctx, date)
}

// SetDate changes the selected date: any in-progress edit is silently
// discarded, the cache is cleared, and the new date's activities replace it
// wholesale. An empty date leaves the session with an empty day.
func (s *Session) SetDate(ctx context.Context, date string) error {
	s.mu.Lock()
	s.editingID = ""
	s.mu.Unlock()
	s.presenter.ResetForm()
	s.repo.Clear()

	if date == "" {
		s.mu.Lock()
		s.date = ""
		s.mu.Unlock()
		s.render()
		return nil
	}
	if !ledger.ValidDate(date) {
		err := &ledger.ValidationError{Reason: ledger.ReasonMissingDate}
		s.presenter.ShowError(err)
		return err
	}

	s.mu.Lock()
	s.date = date
	s.mu.Unlock()
	return s.reload(ctx)
}

// StartEdit moves the controller to the editing state for id and pre-fills
// the form with the activity's current values. Unknown ids are ignored.
func (s *Session) StartEdit(id string) {
	activity, ok := s.repo.Find(id)
	if !ok {
		return
	}
	s.mu.Lock()
	s.editingID = id
	s.mu.Unlock()
	s.presenter.FillForm(activity)
}

// CancelEdit abandons an in-progress edit and returns to idle.
func (s *Session) CancelEdit() {
	s.mu.Lock()
	s.editingID = ""
	s.mu.Unlock()
	s.presenter.ResetForm()
}

// Submit accepts the form: an add when idle, an update of the edited
// activity otherwise. The busy flag is claimed first, so overlapping
// submissions are refused; validation and the budget guard run before any
// store call, and a rejected submission leaves the cache untouched.
func (s *Session) Submit(ctx context.Context, title, category, minutesRaw string) error {
	if !s.beginMutation() {
		return s.fail(ledger.ErrBusy)
	}
	defer s.endMutation()

	date, editingID := s.Date(), s.EditingID()
	if date == "" {
		return s.fail(&ledger.ValidationError{Reason: ledger.ReasonMissingDate})
	}

	title = strings.TrimSpace(title)
	category = strings.TrimSpace(category)
	minutes, _ := strconv.Atoi(strings.TrimSpace(minutesRaw))

	if title == "" {
		return s.fail(&ledger.ValidationError{Reason: ledger.ReasonMissingTitle})
	}
	if category == "" {
		return s.fail(&ledger.ValidationError{Reason: ledger.ReasonMissingCategory})
	}
	if minutes <= 0 {
		return s.fail(&ledger.ValidationError{Reason: ledger.ReasonMissingMinutes})
	}

	totals := s.Totals()
	oldMinutes := 0
	if editingID != "" {
		if current, ok := s.repo.Find(editingID); ok {
			oldMinutes = int(current.Minutes)
		}
	}
	if totals.TotalMinutes-oldMinutes+minutes > ledger.FullDayMinutes {
		return s.fail(&ledger.ValidationError{Reason: ledger.ReasonBudgetExceeded})
	}

	activity := ledger.Activity{Title: title, Category: category, Minutes: ledger.Minutes(minutes)}

	if editingID != "" {
		if err := s.repo.UpdateActivity(ctx, date, editingID, activity); err != nil {
			return s.fail(err)
		}
		s.mu.Lock()
		s.editingID = ""
		s.mu.Unlock()
		s.presenter.ResetForm()
		s.presenter.ShowNotice("Activity updated successfully!")
		s.logger.Printf("updated %s on %s", editingID, date)
	} else {
		id, err := s.repo.AddActivity(ctx, date, activity)
		if err != nil {
			return s.fail(err)
		}
		s.presenter.ResetForm()
		s.presenter.ShowNotice("Activity added successfully!")
		s.logger.Printf("added %s on %s", id, date)
	}

	s.render()
	return nil
}

// Delete removes an activity. Deleting the activity currently being edited
// also cancels the edit. Deleting an id that is already gone succeeds.
func (s *Session) Delete(ctx context.Context, id string) error {
	if !s.beginMutation() {
		return s.fail(ledger.ErrBusy)
	}
	defer s.endMutation()

	date := s.Date()
	if date == "" {
		return s.fail(&ledger.ValidationError{Reason: ledger.ReasonMissingDate})
	}

	if id == s.EditingID() {
		s.CancelEdit()
	}

	if err := s.repo.DeleteActivity(ctx, date, id); err != nil {
		return s.fail(err)
	}
	s.presenter.ShowNotice("Activity deleted.")
	s.logger.Printf("deleted %s on %s", id, date)
	s.render()
	return nil
}

// Refresh reloads the selected date from the store.
func (s *Session) Refresh(ctx context.Context) error {
	if s.Date() == "" {
		s.render()
		return nil
	}
	return s.reload(ctx)
}

func (s *Session) reload(ctx context.Context) error {
	if _, err := s.repo.LoadDay(ctx, s.Date()); err != nil {
		return s.fail(err)
	}
	s.render()
	return nil
}

func (s *Session) render() {
	entries := s.repo.Day()
	totals := ledger.ComputeTotals(entries)
	observability.RecordDayTotals(totals.TotalMinutes, totals.Complete())
	s.presenter.RenderDay(entries, totals)
}

// beginMutation claims the busy flag. The check and the set happen under
// one lock acquisition: of two concurrent callers exactly one wins.
func (s *Session) beginMutation() bool {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return false
	}
	s.busy = true
	s.mu.Unlock()
	s.presenter.SetSubmitBusy(true)
	return true
}

func (s *Session) endMutation() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
	s.presenter.SetSubmitBusy(false)
}

func (s *Session) fail(err error) error {
	s.presenter.ShowError(err)
	return err
}
