package authorizer

import (
	"context"
	"errors"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/anyproto/any-sync/util/crypto"

	"github.com/anyproto/any-sync-didregistry/delegation"
	"github.com/anyproto/any-sync-didregistry/ownership"
)

const CName = "didregistry.authorizer"

var log = logger.NewNamed(CName)

// delegate kind accepted for off-chain signing and attribute management
const defaultSigningDelegateKind = "x25519VerificationKey2018"

var (
	ErrBadSignature = errors.New("bad signature")
)

type Config struct {
	SigningDelegateKind string `yaml:"signingDelegateKind"`
}

type configProvider interface {
	GetAuthorizer() Config
}

// Authorizer decides who may act for an identity. It owns no state of its
// own, it composes the ownership and delegation registries.
type Authorizer interface {
	// CheckSignature returns nil iff signer produced signature over message
	CheckSignature(signature, message []byte, signer crypto.PubKey) (err error)
	// ValidSigner verifies the signature first, ErrBadSignature on failure
	// even when the signer holds a valid delegation, then requires signer to
	// be the identity's owner or a currently valid signing delegate
	ValidSigner(ctx context.Context, identity crypto.PubKey, signature, message []byte, signer crypto.PubKey, atHeight uint64) (err error)
	// CanManage returns nil iff caller is the identity's owner or a currently
	// valid signing delegate, ErrNotOwner otherwise. Delegates manage
	// attributes, never ownership or other delegates.
	CanManage(ctx context.Context, identity, caller crypto.PubKey, atHeight uint64) (err error)

	app.Component
}

func New() Authorizer {
	return new(authorizer)
}

type authorizer struct {
	conf       Config
	ownership  ownership.OwnershipRegistry
	delegation delegation.DelegateRegistry
}

func (au *authorizer) Init(a *app.App) (err error) {
	au.conf = a.MustComponent("config").(configProvider).GetAuthorizer()
	if au.conf.SigningDelegateKind == "" {
		au.conf.SigningDelegateKind = defaultSigningDelegateKind
	}
	au.ownership = a.MustComponent(ownership.CName).(ownership.OwnershipRegistry)
	au.delegation = a.MustComponent(delegation.CName).(delegation.DelegateRegistry)
	return
}

func (au *authorizer) Name() (name string) {
	return CName
}

func (au *authorizer) CheckSignature(signature, message []byte, signer crypto.PubKey) (err error) {
	ok, err := signer.Verify(message, signature)
	if err != nil || !ok {
		return ErrBadSignature
	}
	return nil
}

func (au *authorizer) ValidSigner(ctx context.Context, identity crypto.PubKey, signature, message []byte, signer crypto.PubKey, atHeight uint64) (err error) {
	if err = au.CheckSignature(signature, message, signer); err != nil {
		return
	}
	owner, err := au.ownership.OwnerOf(ctx, identity)
	if err != nil {
		return
	}
	if owner == signer.Account() {
		return nil
	}
	return au.delegation.IsValid(ctx, identity, signer, au.conf.SigningDelegateKind, atHeight)
}

func (au *authorizer) CanManage(ctx context.Context, identity, caller crypto.PubKey, atHeight uint64) (err error) {
	err = au.ownership.IsOwner(ctx, identity, caller)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ownership.ErrNotOwner) {
		return
	}
	err = au.delegation.IsValid(ctx, identity, caller, au.conf.SigningDelegateKind, atHeight)
	if err == nil {
		return nil
	}
	if !errors.Is(err, delegation.ErrInvalidDelegate) {
		return
	}
	return ownership.ErrNotOwner
}
