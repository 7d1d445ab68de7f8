package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// SecurityManager authenticates credentials and answers "who is the caller
// of this request". Session proofs are stateless signed claims the caller
// stores and resends; no session state lives in the process.
type SecurityManager struct {
	store        Store
	tokenService TokenService
	logger       Logger
	sink         LifecycleSink
}

// NewSecurityManager returns a SecurityManager minting proofs with the
// given configuration.
func NewSecurityManager(store Store, cfg Config) *SecurityManager {
	return &SecurityManager{
		store: store,
		tokenService: NewTokenService(
			[]byte(cfg.GetSigningKey()),
			cfg.GetTokenExpiration(),
			cfg.GetIssuer(),
			cfg.GetAudience(),
			defLogger{},
		),
		logger: defLogger{},
		sink:   noopLifecycleSink{},
	}
}

func (s *SecurityManager) WithLogger(logger Logger) *SecurityManager {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithLifecycleSink configures the sink login and logout events go to.
func (s *SecurityManager) WithLifecycleSink(sink LifecycleSink) *SecurityManager {
	s.sink = normalizeLifecycleSink(sink)
	return s
}

// WithTokenService overrides the proof signer, mostly for tests.
func (s *SecurityManager) WithTokenService(service TokenService) *SecurityManager {
	if service != nil {
		s.tokenService = service
	}
	return s
}

type loginOptions struct {
	currentProof string
}

// LoginOption tweaks a single Login call.
type LoginOption func(*loginOptions)

// WithCurrentProof passes the proof the caller already holds. When it is
// still valid Login short circuits and returns the authenticated identity
// with the same proof; re-login is a no-op, not a new session.
func WithCurrentProof(proof string) LoginOption {
	return func(o *loginOptions) {
		o.currentProof = proof
	}
}

// Login verifies the email and password pair and returns the identity with a
// fresh session proof. Unknown email and wrong password yield the same
// ErrInvalidCredentials so responses cannot be used to enumerate accounts.
func (s *SecurityManager) Login(ctx context.Context, email, password string, opts ...LoginOption) (*User, string, error) {
	options := &loginOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	if options.currentProof != "" {
		if user, err := s.CurrentCaller(ctx, options.currentProof); err == nil {
			return user, options.currentProof, nil
		}
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	// any verification failure, including a malformed digest, reads as bad
	// credentials
	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Debug("login credential mismatch for user %s", user.ID)
		return nil, "", ErrInvalidCredentials
	}

	proof, err := s.tokenService.Generate(user)
	if err != nil {
		return nil, "", err
	}

	s.record(ctx, LifecycleEvent{
		EventType: LifecycleLogin,
		Identity:  user,
		Actor:     user,
	})

	return user, proof, nil
}

// CurrentCaller verifies the presented proof and re-fetches the identity it
// names. The record is never trusted from the proof itself: a concurrently
// deleted account yields ErrNotAuthenticated and the caller should be logged
// out.
func (s *SecurityManager) CurrentCaller(ctx context.Context, proof string) (*User, error) {
	if proof == "" {
		return nil, ErrNotAuthenticated
	}

	claims, err := s.tokenService.Validate(proof)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	id, err := claims.UserUUID()
	if err != nil {
		s.logger.Debug("session proof carries malformed user id: %v", err)
		return nil, ErrNotAuthenticated
	}

	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrNotAuthenticated
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve session identity")
	}

	return user, nil
}

// SessionFromProof decodes a proof into a SessionObject without hitting the
// store.
func (s *SecurityManager) SessionFromProof(proof string) (*SessionObject, error) {
	claims, err := s.tokenService.Validate(proof)
	if err != nil {
		return nil, err
	}
	return sessionFromClaims(claims), nil
}

// Logout invalidates the caller's session. Proofs are stateless, so the
// caller discards the credential; Logout resolves it once to publish the
// event and is a silent no-op when the proof is already dead, making
// repeated calls idempotent.
func (s *SecurityManager) Logout(ctx context.Context, proof string) error {
	user, err := s.CurrentCaller(ctx, proof)
	if err != nil {
		return nil
	}

	s.record(ctx, LifecycleEvent{
		EventType: LifecycleLogout,
		Identity:  user,
		Actor:     user,
	})

	return nil
}

// EncodePassword hashes a raw password for storage.
func (s *SecurityManager) EncodePassword(raw string) (string, error) {
	return HashPassword(raw)
}

// ValidateCredential checks a raw password against the identity's stored
// digest, failing uniformly with ErrInvalidCredentials.
func (s *SecurityManager) ValidateCredential(identity Identity, raw string) error {
	if identity == nil {
		return ErrInvalidCredentials
	}
	if err := ComparePasswordAndHash(raw, identity.Credential()); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *SecurityManager) record(ctx context.Context, event LifecycleEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := normalizeLifecycleSink(s.sink).Record(ctx, event); err != nil {
		s.logger.Warn("lifecycle sink record error: %v", err)
	}
}
