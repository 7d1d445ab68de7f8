package users_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func staticHashSource(hash string) users.HashSource {
	return func() (string, error) { return hash, nil }
}

func TestIssuePurgesExistingTokens(t *testing.T) {
	store := NewMockStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tmp := &users.TmpUser{ID: uuid.New(), Email: "pending@example.com"}
	stale := &users.Token{ID: uuid.New(), Hash: "stale", IdentityKind: users.KindTemporary, IdentityID: tmp.ID}

	store.TokenRepo.On("ListByIdentity", mock.Anything, tmp.Ref()).Return([]*users.Token{stale}, nil)
	store.TokenRepo.On("Delete", mock.Anything, stale).Return(nil)
	// purge clears the back reference before the new token exists
	store.TmpRepo.On("SetTokenRef", mock.Anything, tmp.ID, (*uuid.UUID)(nil)).Return(nil).Once()
	store.TokenRepo.On("Create", mock.Anything, mock.MatchedBy(func(tok *users.Token) bool {
		return tok.Hash == "fresh-hash" && tok.IdentityKind == users.KindTemporary && tok.IdentityID == tmp.ID
	})).Return(&users.Token{ID: uuid.New(), Hash: "fresh-hash", IdentityKind: users.KindTemporary, IdentityID: tmp.ID, CreatedAt: &now}, nil)
	store.TmpRepo.On("SetTokenRef", mock.Anything, tmp.ID, mock.MatchedBy(func(id *uuid.UUID) bool {
		return id != nil
	})).Return(nil).Once()

	manager := users.NewTokenManager(store).
		WithClock(fixedClock(now)).
		WithHashSource(staticHashSource("fresh-hash"))

	token, err := manager.Issue(context.Background(), tmp)
	require.NoError(t, err)
	assert.Equal(t, "fresh-hash", token.Hash)
	assert.Equal(t, users.KindTemporary, token.IdentityKind)

	store.AssertExpectations(t)
}

func TestIssueWrapsStoreFailure(t *testing.T) {
	store := NewMockStore()
	user := &users.User{ID: uuid.New(), Email: "user@example.com"}

	store.TokenRepo.On("ListByIdentity", mock.Anything, user.Ref()).
		Return(nil, errors.New("boom"))

	manager := users.NewTokenManager(store)

	_, err := manager.Issue(context.Background(), user)
	require.Error(t, err)
	assert.True(t, users.HasTextCode(err, users.TextCodeTokenCreationFailed))
}

func TestIssueHashSourceFailure(t *testing.T) {
	store := NewMockStore()
	user := &users.User{ID: uuid.New()}

	store.TokenRepo.On("ListByIdentity", mock.Anything, user.Ref()).Return(nil, nil)
	store.UserRepo.On("SetTokenRef", mock.Anything, user.ID, (*uuid.UUID)(nil)).Return(nil)

	manager := users.NewTokenManager(store).WithHashSource(func() (string, error) {
		return "", errors.New("entropy exhausted")
	})

	_, err := manager.Issue(context.Background(), user)
	require.Error(t, err)
	assert.True(t, users.HasTextCode(err, users.TextCodeTokenCreationFailed))
}

func TestValidateEmptyHash(t *testing.T) {
	manager := users.NewTokenManager(NewMockStore())

	_, err := manager.Validate(context.Background(), "")
	assert.ErrorIs(t, err, users.ErrTokenNotValid)
}

func TestValidateCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMockStore()

	expected := &users.Token{ID: uuid.New(), Hash: "abc"}
	store.TokenRepo.On("GetFresh", mock.Anything, "abc", now.Add(-24*time.Hour)).
		Return(expected, nil)

	manager := users.NewTokenManager(store).WithClock(fixedClock(now))

	token, err := manager.Validate(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, expected, token)
	store.AssertExpectations(t)
}

func TestValidateMissingTokenReadsAsInvalid(t *testing.T) {
	store := NewMockStore()
	store.TokenRepo.On("GetFresh", mock.Anything, "gone", mock.Anything).
		Return(nil, repository.NewRecordNotFound())

	manager := users.NewTokenManager(store)

	_, err := manager.Validate(context.Background(), "gone")
	assert.ErrorIs(t, err, users.ErrTokenNotValid)
}

func TestValidateCustomTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMockStore()

	store.TokenRepo.On("GetFresh", mock.Anything, "abc", now.Add(-time.Hour)).
		Return(&users.Token{Hash: "abc"}, nil)

	manager := users.NewTokenManager(store).
		WithClock(fixedClock(now)).
		WithTTL(time.Hour)

	_, err := manager.Validate(context.Background(), "abc")
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestRevoke(t *testing.T) {
	store := NewMockStore()
	user := &users.User{ID: uuid.New()}
	token := &users.Token{ID: uuid.New(), Hash: "abc", IdentityKind: users.KindPermanent, IdentityID: user.ID}

	store.TokenRepo.On("ListByIdentity", mock.Anything, token.Ref()).Return([]*users.Token{token}, nil)
	store.TokenRepo.On("Delete", mock.Anything, token).Return(nil)
	store.UserRepo.On("SetTokenRef", mock.Anything, user.ID, (*uuid.UUID)(nil)).Return(nil)

	manager := users.NewTokenManager(store)

	require.NoError(t, manager.Revoke(context.Background(), token))
	store.AssertExpectations(t)
}

func TestRevokeNilTokenIsNoop(t *testing.T) {
	manager := users.NewTokenManager(NewMockStore())
	assert.NoError(t, manager.Revoke(context.Background(), nil))
}

func TestRevokeWrapsStoreFailure(t *testing.T) {
	store := NewMockStore()
	token := &users.Token{ID: uuid.New(), IdentityKind: users.KindPermanent, IdentityID: uuid.New()}

	store.TokenRepo.On("ListByIdentity", mock.Anything, token.Ref()).
		Return(nil, errors.New("boom"))

	manager := users.NewTokenManager(store)

	err := manager.Revoke(context.Background(), token)
	require.Error(t, err)
	assert.True(t, users.HasTextCode(err, users.TextCodeTokenRevocationFailed))
}

func TestPurgeOrphans(t *testing.T) {
	store := NewMockStore()
	store.TokenRepo.On("DeleteOrphans", mock.Anything).Return(3, nil)

	manager := users.NewTokenManager(store)

	purged, err := manager.PurgeOrphans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, purged)
}

func TestTokenFreshness(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		age   time.Duration
		fresh bool
	}{
		{"brand new", 0, true},
		{"almost expired", 24*time.Hour - time.Minute, true},
		{"exactly at the boundary", 24 * time.Hour, true},
		{"just past the boundary", 24*time.Hour + time.Minute, false},
		{"days old", 72 * time.Hour, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			created := now.Add(-tc.age)
			token := &users.Token{CreatedAt: &created}
			assert.Equal(t, tc.fresh, token.Fresh(users.DefaultTokenTTL, now))
		})
	}
}

func TestTokenFreshnessWithoutTimestamp(t *testing.T) {
	token := &users.Token{}
	assert.False(t, token.Fresh(users.DefaultTokenTTL, time.Now()))
}
