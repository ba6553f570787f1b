package authorizer

import (
	"context"
	"testing"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/util/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/anyproto/any-sync-didregistry/delegation"
	"github.com/anyproto/any-sync-didregistry/delegation/mock_delegation"
	"github.com/anyproto/any-sync-didregistry/ownership"
	"github.com/anyproto/any-sync-didregistry/ownership/mock_ownership"
)

var ctx = context.Background()

func newTestKeyPair(t *testing.T) (crypto.PrivKey, crypto.PubKey) {
	privKey, pubKey, err := crypto.GenerateRandomEd25519KeyPair()
	require.NoError(t, err)
	return privKey, pubKey
}

func TestAuthorizer_CheckSignature(t *testing.T) {
	fx := newFixture(t)
	defer fx.finish(t)

	signKey, pubKey := newTestKeyPair(t)
	claim := []byte("some claim")
	sign, err := signKey.Sign(claim)
	require.NoError(t, err)

	require.NoError(t, fx.CheckSignature(sign, claim, pubKey))

	t.Run("wrong signer", func(t *testing.T) {
		_, otherKey := newTestKeyPair(t)
		assert.ErrorIs(t, fx.CheckSignature(sign, claim, otherKey), ErrBadSignature)
	})
	t.Run("tampered message", func(t *testing.T) {
		assert.ErrorIs(t, fx.CheckSignature(sign, []byte("other claim"), pubKey), ErrBadSignature)
	})
}

func TestAuthorizer_ValidSigner(t *testing.T) {
	claim := []byte("some claim")

	t.Run("owner signs", func(t *testing.T) {
		fx := newFixture(t)
		defer fx.finish(t)
		signKey, identity := newTestKeyPair(t)
		sign, err := signKey.Sign(claim)
		require.NoError(t, err)

		fx.ownership.EXPECT().OwnerOf(ctx, identity).Return(identity.Account(), nil)
		require.NoError(t, fx.ValidSigner(ctx, identity, sign, claim, identity, 3))
	})
	t.Run("delegate signs", func(t *testing.T) {
		fx := newFixture(t)
		defer fx.finish(t)
		_, identity := newTestKeyPair(t)
		delegateKey, delegatePub := newTestKeyPair(t)
		sign, err := delegateKey.Sign(claim)
		require.NoError(t, err)

		fx.ownership.EXPECT().OwnerOf(ctx, identity).Return(identity.Account(), nil)
		fx.delegation.EXPECT().IsValid(ctx, identity, delegatePub, defaultSigningDelegateKind, uint64(3)).Return(nil)
		require.NoError(t, fx.ValidSigner(ctx, identity, sign, claim, delegatePub, 3))
	})
	t.Run("delegate expired", func(t *testing.T) {
		fx := newFixture(t)
		defer fx.finish(t)
		_, identity := newTestKeyPair(t)
		delegateKey, delegatePub := newTestKeyPair(t)
		sign, err := delegateKey.Sign(claim)
		require.NoError(t, err)

		fx.ownership.EXPECT().OwnerOf(ctx, identity).Return(identity.Account(), nil)
		fx.delegation.EXPECT().IsValid(ctx, identity, delegatePub, defaultSigningDelegateKind, uint64(6)).Return(delegation.ErrInvalidDelegate)
		assert.ErrorIs(t, fx.ValidSigner(ctx, identity, sign, claim, delegatePub, 6), delegation.ErrInvalidDelegate)
	})
	t.Run("signature checked before delegation", func(t *testing.T) {
		fx := newFixture(t)
		defer fx.finish(t)
		_, identity := newTestKeyPair(t)
		_, delegatePub := newTestKeyPair(t)
		strangerKey, _ := newTestKeyPair(t)
		sign, err := strangerKey.Sign(claim)
		require.NoError(t, err)

		// no registry lookups expected
		assert.ErrorIs(t, fx.ValidSigner(ctx, identity, sign, claim, delegatePub, 3), ErrBadSignature)
	})
}

func TestAuthorizer_CanManage(t *testing.T) {
	t.Run("owner", func(t *testing.T) {
		fx := newFixture(t)
		defer fx.finish(t)
		_, identity := newTestKeyPair(t)

		fx.ownership.EXPECT().IsOwner(ctx, identity, identity).Return(nil)
		require.NoError(t, fx.CanManage(ctx, identity, identity, 3))
	})
	t.Run("delegate", func(t *testing.T) {
		fx := newFixture(t)
		defer fx.finish(t)
		_, identity := newTestKeyPair(t)
		_, delegatePub := newTestKeyPair(t)

		fx.ownership.EXPECT().IsOwner(ctx, identity, delegatePub).Return(ownership.ErrNotOwner)
		fx.delegation.EXPECT().IsValid(ctx, identity, delegatePub, defaultSigningDelegateKind, uint64(3)).Return(nil)
		require.NoError(t, fx.CanManage(ctx, identity, delegatePub, 3))
	})
	t.Run("neither owner nor delegate", func(t *testing.T) {
		fx := newFixture(t)
		defer fx.finish(t)
		_, identity := newTestKeyPair(t)
		_, attackerPub := newTestKeyPair(t)

		fx.ownership.EXPECT().IsOwner(ctx, identity, attackerPub).Return(ownership.ErrNotOwner)
		fx.delegation.EXPECT().IsValid(ctx, identity, attackerPub, defaultSigningDelegateKind, uint64(3)).Return(delegation.ErrInvalidDelegate)
		assert.ErrorIs(t, fx.CanManage(ctx, identity, attackerPub, 3), ownership.ErrNotOwner)
	})
}

func TestAuthorizer_Init(t *testing.T) {
	fx := newFixture(t)
	defer fx.finish(t)
	assert.Equal(t, defaultSigningDelegateKind, fx.Authorizer.(*authorizer).conf.SigningDelegateKind)
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	fx := &fixture{
		Authorizer: New(),
		ownership:  mock_ownership.NewMockOwnershipRegistry(ctrl),
		delegation: mock_delegation.NewMockDelegateRegistry(ctrl),
		ctrl:       ctrl,
		a:          new(app.App),
	}
	fx.ownership.EXPECT().Name().Return(ownership.CName).AnyTimes()
	fx.ownership.EXPECT().Init(gomock.Any()).AnyTimes()
	fx.ownership.EXPECT().Run(gomock.Any()).AnyTimes()
	fx.ownership.EXPECT().Close(gomock.Any()).AnyTimes()
	fx.delegation.EXPECT().Name().Return(delegation.CName).AnyTimes()
	fx.delegation.EXPECT().Init(gomock.Any()).AnyTimes()
	fx.delegation.EXPECT().Run(gomock.Any()).AnyTimes()
	fx.delegation.EXPECT().Close(gomock.Any()).AnyTimes()

	fx.a.Register(config{}).
		Register(fx.ownership).
		Register(fx.delegation).
		Register(fx.Authorizer)
	require.NoError(t, fx.a.Start(ctx))
	return fx
}

type fixture struct {
	Authorizer
	a          *app.App
	ownership  *mock_ownership.MockOwnershipRegistry
	delegation *mock_delegation.MockDelegateRegistry
	ctrl       *gomock.Controller
}

func (fx *fixture) finish(t *testing.T) {
	fx.ctrl.Finish()
	require.NoError(t, fx.a.Close(ctx))
}

type config struct {
}

func (c config) Init(a *app.App) (err error) { return }
func (c config) Name() string                { return "config" }

func (c config) GetAuthorizer() Config {
	return Config{}
}
