package tui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/dayledger/internal/identity"
	"example.com/dayledger/internal/ledger"
)

func TestViewStateTakeFormPrefillThenClears(t *testing.T) {
	state := NewViewState()

	state.FillForm(ledger.Activity{Title: "Sleep", Category: "Rest", Minutes: 480})

	prefill, reset := state.TakeForm()
	require.NotNil(t, prefill)
	require.False(t, reset)
	require.Equal(t, "Sleep", prefill.Title)

	prefill, reset = state.TakeForm()
	require.Nil(t, prefill, "instruction consumed on first take")
	require.False(t, reset)
}

func TestViewStateTakeFormReset(t *testing.T) {
	state := NewViewState()
	state.ResetForm()

	prefill, reset := state.TakeForm()
	require.Nil(t, prefill)
	require.True(t, reset)

	_, reset = state.TakeForm()
	require.False(t, reset)
}

func TestViewStateMessages(t *testing.T) {
	state := NewViewState()

	state.ShowError(&identity.CredentialError{Code: identity.CodeAccountNotFound})
	snap := state.Snapshot()
	require.True(t, snap.IsError)
	require.Equal(t, "No account found with this email. Please sign up first.", snap.Message)

	state.ShowError(&ledger.ValidationError{Reason: ledger.ReasonBudgetExceeded})
	snap = state.Snapshot()
	require.Contains(t, snap.Message, "1440")

	state.ShowError(errors.New("wire cut"))
	require.Equal(t, "wire cut", state.Snapshot().Message)

	state.ShowNotice("Activity added successfully!")
	snap = state.Snapshot()
	require.False(t, snap.IsError)
	require.Equal(t, "Activity added successfully!", snap.Message)

	state.ClearMessage()
	require.Empty(t, state.Snapshot().Message)
}

func TestViewStateRenderDaySnapshot(t *testing.T) {
	state := NewViewState()
	entries := []ledger.Entry{
		{ID: "a", Activity: ledger.Activity{Title: "Sleep", Category: "Rest", Minutes: 1440}},
	}
	state.RenderDay(entries, ledger.ComputeTotals(entries))

	snap := state.Snapshot()
	require.Len(t, snap.Entries, 1)
	require.True(t, snap.Totals.Complete())
}
