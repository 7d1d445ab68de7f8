package users_test

import (
	"context"
	"time"

	"github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore implements users.Store
type MockStore struct {
	mock.Mock

	UserRepo  *MockUserRepository
	TmpRepo   *MockTmpUserRepository
	TokenRepo *MockTokenRepository
}

func NewMockStore() *MockStore {
	return &MockStore{
		UserRepo:  &MockUserRepository{},
		TmpRepo:   &MockTmpUserRepository{},
		TokenRepo: &MockTokenRepository{},
	}
}

func (m *MockStore) Users() users.UserRepository       { return m.UserRepo }
func (m *MockStore) TmpUsers() users.TmpUserRepository { return m.TmpRepo }
func (m *MockStore) Tokens() users.TokenRepository     { return m.TokenRepo }

func (m *MockStore) AssertExpectations(t mock.TestingT) bool {
	ok := m.UserRepo.AssertExpectations(t)
	ok = m.TmpRepo.AssertExpectations(t) && ok
	ok = m.TokenRepo.AssertExpectations(t) && ok
	return ok
}

// MockUserRepository implements users.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	args := m.Called(ctx, email)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	args := m.Called(ctx, id)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]*users.User, error) {
	args := m.Called(ctx)
	var records []*users.User
	if v := args.Get(0); v != nil {
		records = v.([]*users.User)
	}
	return records, args.Error(1)
}

func (m *MockUserRepository) CountActive(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, record *users.User) (*users.User, error) {
	args := m.Called(ctx, record)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, record *users.User) (*users.User, error) {
	args := m.Called(ctx, record)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) SetTokenRef(ctx context.Context, id uuid.UUID, tokenID *uuid.UUID) error {
	args := m.Called(ctx, id, tokenID)
	return args.Error(0)
}

func (m *MockUserRepository) SoftDelete(ctx context.Context, record *users.User) (*users.User, error) {
	args := m.Called(ctx, record)
	return userArg(args.Get(0)), args.Error(1)
}

// MockTmpUserRepository implements users.TmpUserRepository
type MockTmpUserRepository struct {
	mock.Mock
}

func (m *MockTmpUserRepository) GetByEmail(ctx context.Context, email string) (*users.TmpUser, error) {
	args := m.Called(ctx, email)
	return tmpUserArg(args.Get(0)), args.Error(1)
}

func (m *MockTmpUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*users.TmpUser, error) {
	args := m.Called(ctx, id)
	return tmpUserArg(args.Get(0)), args.Error(1)
}

func (m *MockTmpUserRepository) Create(ctx context.Context, record *users.TmpUser) (*users.TmpUser, error) {
	args := m.Called(ctx, record)
	return tmpUserArg(args.Get(0)), args.Error(1)
}

func (m *MockTmpUserRepository) SetTokenRef(ctx context.Context, id uuid.UUID, tokenID *uuid.UUID) error {
	args := m.Called(ctx, id, tokenID)
	return args.Error(0)
}

func (m *MockTmpUserRepository) Delete(ctx context.Context, record *users.TmpUser) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockTokenRepository implements users.TokenRepository
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) GetFresh(ctx context.Context, hash string, cutoff time.Time) (*users.Token, error) {
	args := m.Called(ctx, hash, cutoff)
	return tokenArg(args.Get(0)), args.Error(1)
}

func (m *MockTokenRepository) ListByIdentity(ctx context.Context, ref users.IdentityRef) ([]*users.Token, error) {
	args := m.Called(ctx, ref)
	var tokens []*users.Token
	if v := args.Get(0); v != nil {
		tokens = v.([]*users.Token)
	}
	return tokens, args.Error(1)
}

func (m *MockTokenRepository) Create(ctx context.Context, record *users.Token) (*users.Token, error) {
	args := m.Called(ctx, record)
	return tokenArg(args.Get(0)), args.Error(1)
}

func (m *MockTokenRepository) Update(ctx context.Context, record *users.Token) (*users.Token, error) {
	args := m.Called(ctx, record)
	return tokenArg(args.Get(0)), args.Error(1)
}

func (m *MockTokenRepository) Delete(ctx context.Context, record *users.Token) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockTokenRepository) DeleteOrphans(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockMailer implements users.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendActivation(ctx context.Context, email, tokenHash string) error {
	args := m.Called(ctx, email, tokenHash)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, email, tokenHash string) error {
	args := m.Called(ctx, email, tokenHash)
	return args.Error(0)
}

// MockTokenService implements users.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Generate(user *users.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) Validate(proof string) (*users.SessionClaims, error) {
	args := m.Called(proof)
	var claims *users.SessionClaims
	if v := args.Get(0); v != nil {
		claims = v.(*users.SessionClaims)
	}
	return claims, args.Error(1)
}

// recordingSink captures published lifecycle events in order.
type recordingSink struct {
	events []users.LifecycleEvent
	err    error
}

func (s *recordingSink) Record(_ context.Context, event users.LifecycleEvent) error {
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) types() []users.LifecycleEventType {
	out := make([]users.LifecycleEventType, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event.EventType)
	}
	return out
}

// testConfig implements users.Config
type testConfig struct {
	signingKey      string
	tokenExpiration int
	issuer          string
	audience        []string
}

func (c testConfig) GetSigningKey() string    { return c.signingKey }
func (c testConfig) GetTokenExpiration() int  { return c.tokenExpiration }
func (c testConfig) GetIssuer() string        { return c.issuer }
func (c testConfig) GetAudience() []string    { return c.audience }

func defaultTestConfig() testConfig {
	return testConfig{
		signingKey:      "test-signing-key",
		tokenExpiration: 1,
		issuer:          "users-test",
		audience:        []string{"users-test"},
	}
}

func userArg(v any) *users.User {
	if v == nil {
		return nil
	}
	return v.(*users.User)
}

func tmpUserArg(v any) *users.TmpUser {
	if v == nil {
		return nil
	}
	return v.(*users.TmpUser)
}

func tokenArg(v any) *users.Token {
	if v == nil {
		return nil
	}
	return v.(*users.Token)
}
