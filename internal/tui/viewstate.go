package tui

import (
	"sync"

	"example.com/dayledger/internal/identity"
	"example.com/dayledger/internal/ledger"
)

// ViewState is the session.Presenter implementation backing the terminal
// UI. The controller pushes render updates into it; the bubbletea model
// reads a snapshot after each command completes. Guarded by a mutex because
// controller calls arrive from command goroutines.
type ViewState struct {
	mu sync.Mutex

	entries []ledger.Entry
	totals  ledger.Totals

	form      ledger.Activity
	formSet   bool
	formReset bool

	busy    bool
	message string
	isError bool
}

// NewViewState constructs an empty ViewState.
func NewViewState() *ViewState {
	return &ViewState{}
}

// Snapshot is the immutable view the model renders from.
type Snapshot struct {
	Entries []ledger.Entry
	Totals  ledger.Totals
	Busy    bool
	Message string
	IsError bool
}

// RenderDay implements session.Presenter.
func (v *ViewState) RenderDay(entries []ledger.Entry, totals ledger.Totals) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = entries
	v.totals = totals
}

// FillForm implements session.Presenter.
func (v *ViewState) FillForm(activity ledger.Activity) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.form = activity
	v.formSet = true
	v.formReset = false
}

// ResetForm implements session.Presenter.
func (v *ViewState) ResetForm() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.form = ledger.Activity{}
	v.formSet = false
	v.formReset = true
}

// SetSubmitBusy implements session.Presenter.
func (v *ViewState) SetSubmitBusy(busy bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.busy = busy
}

// ShowError implements session.Presenter.
func (v *ViewState) ShowError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.message = displayMessage(err)
	v.isError = true
}

// ShowNotice implements session.Presenter.
func (v *ViewState) ShowNotice(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.message = message
	v.isError = false
}

// Snapshot returns the current render state.
func (v *ViewState) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Snapshot{
		Entries: v.entries,
		Totals:  v.totals,
		Busy:    v.busy,
		Message: v.message,
		IsError: v.isError,
	}
}

// TakeForm returns and clears any pending form instruction from the
// controller: a prefill (edit started) or a reset (edit finished or
// cancelled).
func (v *ViewState) TakeForm() (prefill *ledger.Activity, reset bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.formSet {
		form := v.form
		v.formSet = false
		return &form, false
	}
	if v.formReset {
		v.formReset = false
		return nil, true
	}
	return nil, false
}

// ClearMessage drops the status line.
func (v *ViewState) ClearMessage() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.message = ""
	v.isError = false
}

// displayMessage maps the error taxonomy to the strings shown to the user.
func displayMessage(err error) string {
	if err == nil {
		return ""
	}
	if cerr, ok := identity.AsCredentialError(err); ok {
		return cerr.Message()
	}
	if verr, ok := ledger.IsValidation(err); ok {
		return verr.Error()
	}
	return err.Error()
}
