package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// IdentityKind discriminates the two identity variants a token can bind to.
type IdentityKind string

const (
	// KindPermanent marks an activated account record.
	KindPermanent IdentityKind = "permanent"
	// KindTemporary marks a pending, not yet activated registration.
	KindTemporary IdentityKind = "temporary"
)

// IdentityRef points at exactly one identity record. The Kind tag replaces
// the dual nullable reference columns the classic schema would use, so a
// token can never reference both variants at once.
type IdentityRef struct {
	Kind IdentityKind
	ID   uuid.UUID
}

// IsZero reports whether the reference points at nothing.
func (r IdentityRef) IsZero() bool {
	return r.ID == uuid.Nil
}

// Identity is implemented by both permanent and temporary account records.
type Identity interface {
	Ref() IdentityRef
	GetEmail() string
	// Credential returns the stored password digest. Temporary identities
	// always report an empty credential.
	Credential() string
}

// User is an activated, permanent account record. It is never physically
// removed; Delete marks it via DeletedAt.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	TokenID       *uuid.UUID `bun:"token_id,nullzero,type:uuid" json:"token_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Ref implements Identity.
func (u *User) Ref() IdentityRef {
	return IdentityRef{Kind: KindPermanent, ID: u.ID}
}

// GetEmail implements Identity.
func (u *User) GetEmail() string {
	return u.Email
}

// Credential implements Identity.
func (u *User) Credential() string {
	return u.PasswordHash
}

// Deleted reports whether the record has been soft deleted.
func (u *User) Deleted() bool {
	return u.DeletedAt != nil
}

// Touch refreshes the UpdatedAt timestamp. Repositories call it on every
// mutation.
func (u *User) Touch() {
	now := time.Now()
	u.UpdatedAt = &now
}

// TmpUser is an unverified registration. It only exists between Register and
// Activate; activation destroys it and promotes its email to a User.
type TmpUser struct {
	bun.BaseModel `bun:"table:tmp_users,alias:tmp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	TokenID       *uuid.UUID `bun:"token_id,nullzero,type:uuid" json:"token_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Ref implements Identity.
func (u *TmpUser) Ref() IdentityRef {
	return IdentityRef{Kind: KindTemporary, ID: u.ID}
}

// GetEmail implements Identity.
func (u *TmpUser) GetEmail() string {
	return u.Email
}

// Credential implements Identity. Temporary identities carry no usable
// password.
func (u *TmpUser) Credential() string {
	return ""
}

// Token is a single use, time boxed authorization to perform one sensitive
// action: completing a registration or setting a password. Its hash is the
// external facing credential embedded in activation and reset links.
type Token struct {
	bun.BaseModel `bun:"table:tokens,alias:tok"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Hash          string       `bun:"hash,notnull,unique" json:"hash,omitempty"`
	IdentityKind  IdentityKind `bun:"identity_kind,notnull" json:"identity_kind,omitempty"`
	IdentityID    uuid.UUID    `bun:"identity_id,notnull,type:uuid" json:"identity_id,omitempty"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Ref returns the identity reference the token is bound to.
func (t *Token) Ref() IdentityRef {
	return IdentityRef{Kind: t.IdentityKind, ID: t.IdentityID}
}

// BindTo points the token at a different identity. Activation uses it to
// rebind a registration token to the freshly promoted permanent record.
func (t *Token) BindTo(ref IdentityRef) {
	t.IdentityKind = ref.Kind
	t.IdentityID = ref.ID
}

// Fresh reports whether the token is still inside the validity window
// relative to now.
func (t *Token) Fresh(ttl time.Duration, now time.Time) bool {
	if t.CreatedAt == nil {
		return false
	}
	return now.Sub(*t.CreatedAt) <= ttl
}

var (
	_ Identity = (*User)(nil)
	_ Identity = (*TmpUser)(nil)
)
