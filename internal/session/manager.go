package session

import (
	"context"
	"log"

	"example.com/dayledger/internal/identity"
	"example.com/dayledger/internal/ledger"
)

// AuthSource is the identity boundary the manager depends on.
// *identity.Client satisfies it.
type AuthSource interface {
	OnPrincipalChanged(handler func(*identity.Principal)) func()
	Token(ctx context.Context) (string, error)
}

// Manager owns the session lifecycle: it subscribes once to
// principal-changed notifications, builds a Session scoped to the principal
// on sign-in, and tears it down on sign-out.
type Manager struct {
	auth      AuthSource
	store     ledger.Store
	presenter Presenter
	logger    *log.Logger
	startDate string

	session     *Session
	unsubscribe func()
}

// NewManager constructs a Manager. startDate is the date new sessions open
// on; empty means today.
func NewManager(auth AuthSource, store ledger.Store, presenter Presenter, startDate string) *Manager {
	return &Manager{
		auth:      auth,
		store:     store,
		presenter: presenter,
		logger:    log.New(log.Writer(), "[session] ", log.LstdFlags),
		startDate: startDate,
	}
}

// Start subscribes to principal changes. The handler fires immediately with
// the current principal, so a signed-in state is picked up at startup.
func (m *Manager) Start(ctx context.Context) {
	m.unsubscribe = m.auth.OnPrincipalChanged(func(principal *identity.Principal) {
		m.onPrincipal(ctx, principal)
	})
}

// Stop unsubscribes and drops any live session.
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.session = nil
}

// Session returns the live session, or nil when signed out.
func (m *Manager) Session() *Session {
	return m.session
}

func (m *Manager) onPrincipal(ctx context.Context, principal *identity.Principal) {
	if principal == nil {
		if m.session != nil {
			m.logger.Printf("principal gone, tearing down session")
		}
		m.session = nil
		return
	}

	repo := ledger.NewRepository(m.store, m.auth, principal.StoreHandle())
	m.session = NewSession(repo, m.presenter)

	date := m.startDate
	if date == "" {
		date = ledger.Today()
	}
	m.logger.Printf("session created for %s, opening %s", principal.Email, date)
	if err := m.session.Start(ctx, date); err != nil {
		m.logger.Printf("initial load failed: %v", err)
	}
}
