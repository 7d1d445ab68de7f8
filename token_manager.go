package users

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the validity window for activation and reset tokens.
// Staleness is evaluated when a token is presented, not when it is created.
const DefaultTokenTTL = 24 * time.Hour

// HashSource produces the opaque random hash used as a token's external
// facing credential.
type HashSource func() (string, error)

// TokenManager is the only component that creates, validates, or deletes
// tokens. It holds no state across calls; every operation goes back to the
// store.
type TokenManager struct {
	store      Store
	logger     Logger
	ttl        time.Duration
	hashSource HashSource
	now        func() time.Time
}

// NewTokenManager returns a TokenManager with the default 24h validity
// window and a crypto/rand hash source.
func NewTokenManager(store Store) *TokenManager {
	return &TokenManager{
		store:      store,
		logger:     defLogger{},
		ttl:        DefaultTokenTTL,
		hashSource: generateTokenHash,
		now:        time.Now,
	}
}

func (m *TokenManager) WithLogger(logger Logger) *TokenManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithTTL overrides the validity window.
func (m *TokenManager) WithTTL(ttl time.Duration) *TokenManager {
	if ttl > 0 {
		m.ttl = ttl
	}
	return m
}

// WithHashSource overrides the random source, mostly for tests.
func (m *TokenManager) WithHashSource(source HashSource) *TokenManager {
	if source != nil {
		m.hashSource = source
	}
	return m
}

// WithClock overrides the manager's notion of now, mostly for tests.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	if now != nil {
		m.now = now
	}
	return m
}

// TTL returns the configured validity window.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue purges every token bound to identity, then creates, persists, and
// back references a new one. The purge guarantees at most one live token per
// identity; a re-register or repeated reset request therefore invalidates
// any previously mailed link.
func (m *TokenManager) Issue(ctx context.Context, identity Identity) (*Token, error) {
	ref := identity.Ref()
	if err := m.purge(ctx, ref); err != nil {
		return nil, wrapTokenCreationFailed(err)
	}

	hash, err := m.hashSource()
	if err != nil {
		return nil, wrapTokenCreationFailed(err)
	}

	now := m.now()
	token := &Token{
		ID:           uuid.New(),
		Hash:         hash,
		IdentityKind: ref.Kind,
		IdentityID:   ref.ID,
		CreatedAt:    &now,
	}

	if token, err = m.store.Tokens().Create(ctx, token); err != nil {
		return nil, wrapTokenCreationFailed(err)
	}

	if err := m.setIdentityToken(ctx, ref, &token.ID); err != nil {
		return nil, wrapTokenCreationFailed(err)
	}

	m.logger.Debug("issued token for %s identity %s", ref.Kind, ref.ID)

	return token, nil
}

// Validate looks a token up by hash, filtered to freshness against the
// store's read time. It does not consume the token; callers decide whether
// to delete it.
func (m *TokenManager) Validate(ctx context.Context, hash string) (*Token, error) {
	if hash == "" {
		return nil, ErrTokenNotValid
	}

	cutoff := m.now().Add(-m.ttl)
	token, err := m.store.Tokens().GetFresh(ctx, hash, cutoff)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrTokenNotValid
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up token").
			WithTextCode(TextCodeTokenNotValid)
	}

	return token, nil
}

// Revoke deletes every token bound to the identity the given token
// references, the same routine Issue runs before creating a new one.
func (m *TokenManager) Revoke(ctx context.Context, token *Token) error {
	if token == nil {
		return nil
	}
	if err := m.purge(ctx, token.Ref()); err != nil {
		return wrapTokenRevocationFailed(err)
	}
	return nil
}

// PurgeOrphans removes tokens whose referenced identity was deleted or never
// survived activation.
func (m *TokenManager) PurgeOrphans(ctx context.Context) (int, error) {
	purged, err := m.store.Tokens().DeleteOrphans(ctx)
	if err != nil {
		return 0, wrapTokenRevocationFailed(err)
	}
	if purged > 0 {
		m.logger.Info("purged %d orphaned tokens", purged)
	}
	return purged, nil
}

// purge removes every token referencing ref and clears the identity's token
// back reference. It must complete before a new token is issued so an old
// link can never race a fresh one.
func (m *TokenManager) purge(ctx context.Context, ref IdentityRef) error {
	tokens, err := m.store.Tokens().ListByIdentity(ctx, ref)
	if err != nil {
		return err
	}

	for _, token := range tokens {
		if err := m.store.Tokens().Delete(ctx, token); err != nil {
			return err
		}
	}

	return m.setIdentityToken(ctx, ref, nil)
}

func (m *TokenManager) setIdentityToken(ctx context.Context, ref IdentityRef, tokenID *uuid.UUID) error {
	switch ref.Kind {
	case KindTemporary:
		return m.store.TmpUsers().SetTokenRef(ctx, ref.ID, tokenID)
	default:
		return m.store.Users().SetTokenRef(ctx, ref.ID, tokenID)
	}
}

func generateTokenHash() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
