package users_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIdentityRef(t *testing.T) {
	assert.True(t, users.IdentityRef{}.IsZero())
	assert.False(t, users.IdentityRef{Kind: users.KindPermanent, ID: uuid.New()}.IsZero())
}

func TestUserImplementsIdentity(t *testing.T) {
	user := &users.User{ID: uuid.New(), Email: "user@example.com", PasswordHash: "digest"}

	ref := user.Ref()
	assert.Equal(t, users.KindPermanent, ref.Kind)
	assert.Equal(t, user.ID, ref.ID)
	assert.Equal(t, "user@example.com", user.GetEmail())
	assert.Equal(t, "digest", user.Credential())
}

func TestTmpUserImplementsIdentity(t *testing.T) {
	tmp := &users.TmpUser{ID: uuid.New(), Email: "pending@example.com"}

	ref := tmp.Ref()
	assert.Equal(t, users.KindTemporary, ref.Kind)
	assert.Equal(t, tmp.ID, ref.ID)
	assert.Equal(t, "pending@example.com", tmp.GetEmail())
	assert.Empty(t, tmp.Credential())
}

func TestUserDeleted(t *testing.T) {
	user := &users.User{ID: uuid.New()}
	assert.False(t, user.Deleted())

	now := time.Now()
	user.DeletedAt = &now
	assert.True(t, user.Deleted())
}

func TestUserTouch(t *testing.T) {
	user := &users.User{ID: uuid.New()}
	user.Touch()
	assert.NotNil(t, user.UpdatedAt)
	assert.WithinDuration(t, time.Now(), *user.UpdatedAt, time.Second)
}

func TestTokenBindTo(t *testing.T) {
	tmpID := uuid.New()
	token := &users.Token{ID: uuid.New(), IdentityKind: users.KindTemporary, IdentityID: tmpID}

	userRef := users.IdentityRef{Kind: users.KindPermanent, ID: uuid.New()}
	token.BindTo(userRef)

	assert.Equal(t, userRef, token.Ref())
	assert.NotEqual(t, tmpID, token.IdentityID)
}
