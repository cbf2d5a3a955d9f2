package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/sirupsen/logrus"
)

// SessionModel holds the signed-in user and credential. They live under two
// store keys that are written one after the other.
type SessionModel struct {
	mu            sync.Mutex
	store         store.Store
	userKey       string
	credentialKey string
	log           logrus.FieldLogger
	session       domain.Session
	hydration     HydrationFallback
	changes       Notifier[domain.Session]
}

func NewSessionModel(st store.Store, keys store.Keys, log logrus.FieldLogger) *SessionModel {
	return &SessionModel{
		store:         st,
		userKey:       keys.User,
		credentialKey: keys.Credential,
		log:           log,
		hydration:     FallbackAbsent,
	}
}

func LoadSessionModel(ctx context.Context, st store.Store, keys store.Keys, log logrus.FieldLogger) *SessionModel {
	m := NewSessionModel(st, keys, log)
	m.Reload(ctx)
	return m
}

// Reload re-reads both keys. Unless both are present and well formed the
// session is unauthenticated; a half-written pair is not repaired.
func (m *SessionModel) Reload(ctx context.Context) domain.Session {
	userData, userFound, userErr := m.store.Get(ctx, m.userKey)
	credData, credFound, credErr := m.store.Get(ctx, m.credentialKey)
	session, fallback := hydrateSession(userData, userFound, userErr, credData, credFound, credErr)

	log := logger.FromContext(ctx, m.log)
	switch fallback {
	case FallbackUnreadable:
		log.WithError(errors.Join(userErr, credErr)).Warn("session store read failed, treating as signed out")
	case FallbackCorrupt:
		log.Warn("stored session is corrupt, treating as signed out")
	case FallbackAbsent:
		if userFound != credFound {
			log.Warn("stored session is half written, treating as signed out")
		}
	}

	m.mu.Lock()
	m.session = session
	m.hydration = fallback
	m.mu.Unlock()

	m.changes.notify(session)
	return session
}

func hydrateSession(
	userData []byte, userFound bool, userErr error,
	credData []byte, credFound bool, credErr error,
) (domain.Session, HydrationFallback) {
	if userErr != nil || credErr != nil {
		return domain.Session{}, FallbackUnreadable
	}
	if !userFound || !credFound {
		return domain.Session{}, FallbackAbsent
	}
	user, err := domain.ParseUserRecord(userData)
	if err != nil || len(credData) == 0 {
		return domain.Session{}, FallbackCorrupt
	}
	return domain.Session{User: user, Credential: string(credData)}, Hydrated
}

func (m *SessionModel) Hydration() HydrationFallback {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hydration
}

func (m *SessionModel) Session() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *SessionModel) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.IsAuthenticated()
}

func (m *SessionModel) Subscribe(fn func(domain.Session)) func() {
	return m.changes.Subscribe(fn)
}

// SignIn stores user and credential, replacing any previous session. The
// old credential is removed before the new user is written, so a failure
// part way leaves the store without a credential and the next load signs
// out instead of pairing one user with another's token. The in-memory
// session changes only once both writes succeeded.
func (m *SessionModel) SignIn(ctx context.Context, user domain.UserRecord, credential string) (domain.Session, error) {
	if len(user) == 0 || credential == "" {
		return m.Session(), ErrInvalidSession
	}
	parsed, err := domain.ParseUserRecord(user)
	if err != nil {
		return m.Session(), fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	m.mu.Lock()
	if err := m.store.Remove(ctx, m.credentialKey); err != nil {
		current := m.session
		m.mu.Unlock()
		return current, fmt.Errorf("%w: credential: %w", ErrPersist, err)
	}
	if err := m.store.Set(ctx, m.userKey, parsed); err != nil {
		m.dropLocked()
		m.mu.Unlock()
		logger.FromContext(ctx, m.log).WithError(err).Error("user write failed after credential removal, signed out")
		m.changes.notify(domain.Session{})
		return domain.Session{}, fmt.Errorf("%w: user: %w", ErrPersist, err)
	}
	if err := m.store.Set(ctx, m.credentialKey, []byte(credential)); err != nil {
		m.dropLocked()
		m.mu.Unlock()
		logger.FromContext(ctx, m.log).WithError(err).Error("credential write failed after user write, signed out")
		m.changes.notify(domain.Session{})
		return domain.Session{}, fmt.Errorf("%w: credential: %w", ErrPersist, err)
	}
	m.session = domain.Session{User: parsed, Credential: credential}
	session := m.session
	m.mu.Unlock()

	logger.FromContext(ctx, m.log).WithField("user", parsed.DisplayName()).Info("signed in")
	m.changes.notify(session)
	return session, nil
}

// dropLocked forgets the in-memory session after the stored one became
// unusable. The caller holds m.mu.
func (m *SessionModel) dropLocked() {
	m.session = domain.Session{}
}

// SignOut removes both keys, credential first, and forgets the session. If
// neither key could be removed the stored session is intact, so memory is
// left as it is and the error returned.
func (m *SessionModel) SignOut(ctx context.Context) error {
	m.mu.Lock()
	credErr := m.store.Remove(ctx, m.credentialKey)
	userErr := m.store.Remove(ctx, m.userKey)
	if credErr != nil && userErr != nil {
		m.mu.Unlock()
		err := errors.Join(credErr, userErr)
		logger.FromContext(ctx, m.log).WithError(err).Error("failed to remove stored session, still signed in")
		return fmt.Errorf("sign out failed: %w: %w", ErrPersist, err)
	}
	m.dropLocked()
	m.mu.Unlock()

	m.changes.notify(domain.Session{})

	if err := errors.Join(credErr, userErr); err != nil {
		// one key is gone, so the next load is signed out as well
		logger.FromContext(ctx, m.log).WithError(err).Warn("stored session only partly removed")
		return fmt.Errorf("sign out incomplete: %w: %w", ErrPersist, err)
	}
	logger.FromContext(ctx, m.log).Info("signed out")
	return nil
}
