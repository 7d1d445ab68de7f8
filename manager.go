package users

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Manager orchestrates the account lifecycle:
//
//	Unregistered -> PendingActivation (TmpUser + live token)
//	             -> Active (User)
//	             -> [PasswordResetPending] -> Active
//	             -> Deleted (soft)
//
// It composes the token manager, security manager, store, mailer, and the
// lifecycle sink, and holds no state across calls.
type Manager struct {
	store    Store
	tokens   *TokenManager
	security *SecurityManager
	mailer   Mailer
	sink     LifecycleSink
	logger   Logger
}

// NewManager returns a Manager wired with a default TokenManager, a noop
// mailer, and a noop lifecycle sink.
func NewManager(store Store, security *SecurityManager) *Manager {
	return &Manager{
		store:    store,
		tokens:   NewTokenManager(store),
		security: security,
		mailer:   noopMailer{},
		sink:     noopLifecycleSink{},
		logger:   defLogger{},
	}
}

func (m *Manager) WithLogger(logger Logger) *Manager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithMailer configures the transactional message sink.
func (m *Manager) WithMailer(mailer Mailer) *Manager {
	m.mailer = normalizeMailer(mailer)
	return m
}

// WithLifecycleSink configures the subscriber lifecycle events go to.
func (m *Manager) WithLifecycleSink(sink LifecycleSink) *Manager {
	m.sink = normalizeLifecycleSink(sink)
	return m
}

// WithTokenManager overrides the default token manager.
func (m *Manager) WithTokenManager(tokens *TokenManager) *Manager {
	if tokens != nil {
		m.tokens = tokens
	}
	return m
}

// TokenManager exposes the manager's token manager.
func (m *Manager) TokenManager() *TokenManager {
	return m.tokens
}

// Security exposes the manager's security manager.
func (m *Manager) Security() *SecurityManager {
	return m.security
}

// Register starts a registration for email. When a permanent account already
// holds the address the call silently succeeds with no effect, so responses
// cannot be used to probe which addresses are registered. A pending
// registration is reused, but always gets a brand new token: re-registering
// refreshes the activation window and kills the previously mailed link.
func (m *Manager) Register(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}

	_, err := m.store.Users().GetByEmail(ctx, email)
	if err == nil {
		m.logger.Debug("register: address already active, no effect")
		return nil
	}
	if !goerrors.IsNotFound(err) {
		return wrapOperationFailed(err, "failed to register user")
	}

	tmp, err := m.store.TmpUsers().GetByEmail(ctx, email)
	if err != nil {
		if !goerrors.IsNotFound(err) {
			return wrapOperationFailed(err, "failed to register user")
		}
		now := time.Now()
		tmp, err = m.store.TmpUsers().Create(ctx, &TmpUser{
			ID:        uuid.New(),
			Email:     email,
			CreatedAt: &now,
		})
		if err != nil {
			return wrapOperationFailed(err, "failed to register user")
		}
	}

	token, err := m.tokens.Issue(ctx, tmp)
	if err != nil {
		return wrapOperationFailed(err, "failed to register user")
	}

	// the purge and create above are durable, so the old activation link is
	// already dead by the time the new hash leaves the process
	if err := m.mailer.SendActivation(ctx, email, token.Hash); err != nil {
		return wrapOperationFailed(err, "failed to send activation message")
	}

	m.record(ctx, LifecycleEvent{
		EventType: LifecycleRegistered,
		Identity:  tmp,
	})

	return nil
}

// Activate consumes a registration token: it promotes the temporary identity
// to a permanent one, destroys the temporary record, and rebinds the token
// to the new account so the initial password can be set with it.
func (m *Manager) Activate(ctx context.Context, tokenHash string) (*User, error) {
	token, err := m.tokens.Validate(ctx, tokenHash)
	if err != nil {
		return nil, err
	}

	if token.IdentityKind != KindTemporary {
		// a permanent-bound token is a reset or set-password token, not a
		// registration token
		return nil, ErrTokenAlreadyUsed
	}

	tmp, err := m.store.TmpUsers().GetByID(ctx, token.IdentityID)
	if err != nil {
		return nil, wrapOperationFailed(err, "failed to resolve pending registration")
	}

	now := time.Now()
	user, err := m.store.Users().Create(ctx, &User{
		ID:        uuid.New(),
		Email:     tmp.Email,
		TokenID:   &token.ID,
		CreatedAt: &now,
		UpdatedAt: &now,
	})
	if err != nil {
		return nil, wrapOperationFailed(err, "failed to activate user")
	}

	m.record(ctx, LifecycleEvent{
		EventType: LifecycleActivated,
		Identity:  user,
	})

	if err := m.store.TmpUsers().Delete(ctx, tmp); err != nil {
		return nil, wrapOperationFailed(err, "failed to remove pending registration")
	}

	token.BindTo(user.Ref())
	if _, err := m.store.Tokens().Update(ctx, token); err != nil {
		return nil, wrapOperationFailed(err, "failed to rebind activation token")
	}

	return user, nil
}

// Verify validates a token and returns whichever identity it references
// without consuming it. Controllers use it to pre-check a link before
// showing a set-password form.
func (m *Manager) Verify(ctx context.Context, tokenHash string) (Identity, error) {
	token, err := m.tokens.Validate(ctx, tokenHash)
	if err != nil {
		return nil, err
	}

	identity, err := ResolveRef(ctx, m.store, token.Ref())
	if err != nil {
		if goerrors.IsNotFound(err) {
			// the referenced identity is gone, the token is dead
			return nil, ErrTokenNotValid
		}
		return nil, wrapOperationFailed(err, "failed to resolve token identity")
	}

	return identity, nil
}

// SetPassword consumes a permanent-bound token and stores a new password
// digest. The token is deleted afterwards; presenting the same hash again
// fails with ErrTokenNotValid.
func (m *Manager) SetPassword(ctx context.Context, tokenHash, password string) error {
	token, err := m.tokens.Validate(ctx, tokenHash)
	if err != nil {
		return err
	}

	if token.IdentityKind != KindPermanent {
		// registration tokens go through Activate first
		return ErrTokenAlreadyUsed
	}

	user, err := m.store.Users().GetByID(ctx, token.IdentityID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrTokenNotValid
		}
		return wrapOperationFailed(err, "failed to resolve token identity")
	}

	hash, err := m.security.EncodePassword(password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
	}

	user.PasswordHash = hash
	user.TokenID = nil
	user.Touch()

	if _, err := m.store.Users().Update(ctx, user); err != nil {
		return wrapOperationFailed(err, "failed to store new password")
	}

	if err := m.store.Tokens().Delete(ctx, token); err != nil {
		return wrapOperationFailed(err, "failed to consume token")
	}

	return nil
}

// ChangePassword updates the authenticated caller's password. When an old
// password is supplied it must match the current digest. The lifecycle event
// is published before the mutation and carries the pre-change identity.
func (m *Manager) ChangePassword(ctx context.Context, proof, newPassword string, oldPassword ...string) error {
	caller, err := m.security.CurrentCaller(ctx, proof)
	if err != nil {
		return err
	}

	if len(oldPassword) > 0 && oldPassword[0] != "" {
		if err := m.security.ValidateCredential(caller, oldPassword[0]); err != nil {
			return wrapOperationFailed(err, "incorrect old password")
		}
	}

	before := *caller
	m.record(ctx, LifecycleEvent{
		EventType: LifecyclePasswordChange,
		Identity:  &before,
		Actor:     caller,
	})

	hash, err := m.security.EncodePassword(newPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
	}

	caller.PasswordHash = hash
	caller.Touch()

	if _, err := m.store.Users().Update(ctx, caller); err != nil {
		return wrapOperationFailed(err, "failed to change password")
	}

	return nil
}

// ResetPassword starts a password reset for email. Unknown addresses
// silently succeed with no effect, mirroring Register's enumeration
// protection. A repeated request invalidates the previously mailed link.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}

	user, err := m.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			m.logger.Debug("reset password: unknown address, no effect")
			return nil
		}
		return wrapOperationFailed(err, "failed to reset password")
	}

	token, err := m.tokens.Issue(ctx, user)
	if err != nil {
		return wrapOperationFailed(err, "failed to reset password")
	}

	if err := m.mailer.SendPasswordReset(ctx, email, token.Hash); err != nil {
		return wrapOperationFailed(err, "failed to send reset message")
	}

	m.record(ctx, LifecycleEvent{
		EventType: LifecyclePasswordReset,
		Identity:  user,
	})

	return nil
}

// Delete soft deletes the target account. The caller must be authenticated
// and may not delete themselves. The record is retained; only lookups stop
// returning it.
func (m *Manager) Delete(ctx context.Context, proof string, targetID uuid.UUID) (*User, error) {
	caller, err := m.security.CurrentCaller(ctx, proof)
	if err != nil {
		return nil, err
	}

	target, err := m.store.Users().GetByID(ctx, targetID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, wrapOperationFailed(err, "failed to resolve delete target")
	}

	m.record(ctx, LifecycleEvent{
		EventType: LifecycleDeleteBefore,
		Identity:  target,
		Actor:     caller,
	})

	if target.ID == caller.ID {
		return nil, ErrDeleteNotAllowed
	}

	target, err = m.store.Users().SoftDelete(ctx, target)
	if err != nil {
		return nil, wrapOperationFailed(err, "failed to delete user")
	}

	m.record(ctx, LifecycleEvent{
		EventType: LifecycleDeleteAfter,
		Identity:  target,
		Actor:     caller,
	})

	return target, nil
}

func (m *Manager) record(ctx context.Context, event LifecycleEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := normalizeLifecycleSink(m.sink).Record(ctx, event); err != nil {
		m.logger.Warn("lifecycle sink record error: %v", err)
	}
}

func validateEmail(email string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid email address").
			WithTextCode(TextCodeInvalidEmail)
	}
	return nil
}
