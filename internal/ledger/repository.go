package ledger

import (
	"context"
	"fmt"
)

// Store captures the remote ledger tree operations the repository depends
// on. Every call carries a bearer token proving the principal's
// authorization.
type Store interface {
	GetDay(ctx context.Context, token, userID, date string) ([]Entry, error)
	Push(ctx context.Context, token, userID, date string, activity Activity) (string, error)
	Patch(ctx context.Context, token, userID, date, id string, activity Activity) error
	Delete(ctx context.Context, token, userID, date, id string) error
}

// TokenSource mints a fresh bearer token. Tokens are short-lived, so the
// repository asks for a new one per store call instead of caching.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Repository translates ledger operations into store calls and owns the
// in-memory cache of the currently selected day. It is the cache's single
// writer: after every mutation the whole day is reloaded from the store,
// never patched locally, so readers only ever observe store-confirmed
// state.
type Repository struct {
	store  Store
	tokens TokenSource
	userID string
	date   string
	day    []Entry
}

// NewRepository constructs a Repository scoped to one principal's subtree.
func NewRepository(store Store, tokens TokenSource, userID string) *Repository {
	return &Repository{store: store, tokens: tokens, userID: userID}
}

// LoadDay fetches the full subtree for date and replaces the cache with the
// result. An absent day path yields an empty cache, not an error.
func (r *Repository) LoadDay(ctx context.Context, date string) ([]Entry, error) {
	token, err := r.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	entries, err := r.store.GetDay(ctx, token, r.userID, date)
	if err != nil {
		return nil, err
	}

	r.date = date
	r.day = entries
	return r.Day(), nil
}

// AddActivity appends under the date path and returns the store-assigned
// identifier. The cache is rebuilt from a follow-up read.
func (r *Repository) AddActivity(ctx context.Context, date string, activity Activity) (string, error) {
	token, err := r.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	id, err := r.store.Push(ctx, token, r.userID, date, activity)
	if err != nil {
		return "", err
	}

	if _, err := r.LoadDay(ctx, date); err != nil {
		return id, err
	}
	return id, nil
}

// UpdateActivity overwrites an existing activity in place. The cache is
// keyed to the last-loaded date: a different date, or an identifier absent
// from the loaded day, fails with ErrActivityNotFound before any store
// call; the hosted tree would otherwise silently create a record at that
// path.
func (r *Repository) UpdateActivity(ctx context.Context, date, id string, activity Activity) error {
	if date != r.date {
		return ErrActivityNotFound
	}
	if _, ok := r.Find(id); !ok {
		return ErrActivityNotFound
	}

	token, err := r.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	if err := r.store.Patch(ctx, token, r.userID, date, id, activity); err != nil {
		return err
	}

	_, err = r.LoadDay(ctx, date)
	return err
}

// DeleteActivity removes the activity. Deleting an identifier that no
// longer exists succeeds; the store treats a missing path as a no-op.
func (r *Repository) DeleteActivity(ctx context.Context, date, id string) error {
	token, err := r.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	if err := r.store.Delete(ctx, token, r.userID, date, id); err != nil {
		return err
	}

	_, err = r.LoadDay(ctx, date)
	return err
}

// Day returns a copy of the cached day.
func (r *Repository) Day() []Entry {
	out := make([]Entry, len(r.day))
	copy(out, r.day)
	return out
}

// Find returns the cached activity for id.
func (r *Repository) Find(id string) (Activity, bool) {
	for _, entry := range r.day {
		if entry.ID == id {
			return entry.Activity, true
		}
	}
	return Activity{}, false
}

// Clear empties the cache without touching the store. Used when the
// selected date changes or the session is torn down.
func (r *Repository) Clear() {
	r.date = ""
	r.day = nil
}
