package attribute

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/util/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyproto/any-sync-didregistry/chainclock"
	"github.com/anyproto/any-sync-didregistry/db"
	"github.com/anyproto/any-sync-didregistry/deletionlog"
)

var ctx = context.Background()

func newTestKey(t *testing.T) crypto.PubKey {
	_, pubKey, err := crypto.GenerateRandomEd25519KeyPair()
	require.NoError(t, err)
	return pubKey
}

func blocks(n uint64) *uint64 {
	return &n
}

func TestAttributeRegistry_Add(t *testing.T) {
	fx := newFixture(t)
	defer fx.finish(t)

	identity := newTestKey(t)

	t.Run("first write", func(t *testing.T) {
		entry, err := fx.Add(ctx, identity, "MyAttribute", []byte{1, 2, 3}, blocks(1000), 1)
		require.NoError(t, err)
		assert.Equal(t, identity.Account(), entry.Identity)
		assert.Equal(t, "MyAttribute", entry.Name)
		assert.Equal(t, []byte{1, 2, 3}, entry.Value)
		assert.Equal(t, uint64(1001), entry.ValidUntil)
		assert.Equal(t, uint64(1), entry.Nonce)
		assert.Equal(t, uint64(1), entry.CreatedAtHeight)
	})
	t.Run("default validity", func(t *testing.T) {
		entry, err := fx.Add(ctx, identity, "service", []byte("https://example.org"), nil, 7)
		require.NoError(t, err)
		assert.Equal(t, uint64(7+defaultValidityBlocks), entry.ValidUntil)
	})
	t.Run("clamped on overflow", func(t *testing.T) {
		entry, err := fx.Add(ctx, identity, "forever", []byte{1}, blocks(math.MaxUint64), 5)
		require.NoError(t, err)
		assert.Equal(t, uint64(math.MaxUint64), entry.ValidUntil)
	})
	t.Run("bad name", func(t *testing.T) {
		_, err := fx.Add(ctx, identity, "", []byte{1}, nil, 1)
		assert.ErrorIs(t, err, ErrInvalidAttribute)
		_, err = fx.Add(ctx, identity, strings.Repeat("n", maxNameLen+1), []byte{1}, nil, 1)
		assert.ErrorIs(t, err, ErrInvalidAttribute)
	})
	t.Run("bad value", func(t *testing.T) {
		_, err := fx.Add(ctx, identity, "big", bytes.Repeat([]byte{1}, maxValueLen+1), nil, 1)
		assert.ErrorIs(t, err, ErrInvalidAttribute)
		_, err = fx.Add(ctx, identity, "empty", nil, nil, 1)
		assert.ErrorIs(t, err, ErrInvalidAttribute)
	})
}

func TestAttributeRegistry_NonceSequence(t *testing.T) {
	fx := newFixture(t)
	defer fx.finish(t)

	identity := newTestKey(t)
	name := "MyAttribute"

	assertNonce := func(want uint64) {
		nonce, err := fx.NonceOf(ctx, identity, name)
		require.NoError(t, err)
		require.Equal(t, want, nonce)
	}

	assertNonce(0)
	_, err := fx.Add(ctx, identity, name, []byte{1}, blocks(10), 1)
	require.NoError(t, err)
	assertNonce(1)
	_, err = fx.Delete(ctx, identity, name, 2)
	require.NoError(t, err)
	assertNonce(2)
	// re-adding continues the sequence, it never resets
	_, err = fx.Add(ctx, identity, name, []byte{2}, blocks(10), 3)
	require.NoError(t, err)
	assertNonce(3)
	_, err = fx.Delete(ctx, identity, name, 4)
	require.NoError(t, err)
	assertNonce(4)
}

func TestAttributeRegistry_IsValid(t *testing.T) {
	fx := newFixture(t)
	defer fx.finish(t)

	identity := newTestKey(t)
	value := []byte{1, 2, 3}

	_, err := fx.Add(ctx, identity, "MyAttribute", value, blocks(1000), 1)
	require.NoError(t, err)

	require.NoError(t, fx.IsValid(ctx, identity, "MyAttribute", value, 1))
	require.NoError(t, fx.IsValid(ctx, identity, "MyAttribute", value, 1000))
	t.Run("expired", func(t *testing.T) {
		assert.ErrorIs(t, fx.IsValid(ctx, identity, "MyAttribute", value, 1001), ErrInvalidAttribute)
	})
	t.Run("value mismatch", func(t *testing.T) {
		assert.ErrorIs(t, fx.IsValid(ctx, identity, "MyAttribute", []byte{3, 2, 1}, 2), ErrInvalidAttribute)
	})
	t.Run("absent", func(t *testing.T) {
		assert.ErrorIs(t, fx.IsValid(ctx, identity, "NoSuchAttribute", value, 2), ErrInvalidAttribute)
	})
}

func TestAttributeRegistry_Delete(t *testing.T) {
	fx := newFixture(t)
	defer fx.finish(t)

	identity := newTestKey(t)
	value := []byte{1, 2, 3}

	_, err := fx.Add(ctx, identity, "MyAttribute", value, blocks(1000), 1)
	require.NoError(t, err)
	require.NoError(t, fx.IsValid(ctx, identity, "MyAttribute", value, 5))

	entry, err := fx.Delete(ctx, identity, "MyAttribute", 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), entry.ValidUntil)
	assert.Empty(t, entry.Value)

	// the slot is expired for good, the old value never validates again
	assert.ErrorIs(t, fx.IsValid(ctx, identity, "MyAttribute", value, 5), ErrInvalidAttribute)
	assert.ErrorIs(t, fx.IsValid(ctx, identity, "MyAttribute", value, 100), ErrInvalidAttribute)

	t.Run("absent slot", func(t *testing.T) {
		_, err := fx.Delete(ctx, identity, "NoSuchAttribute", 5)
		assert.ErrorIs(t, err, ErrInvalidAttribute)
	})
	t.Run("slot creation height survives re-add", func(t *testing.T) {
		entry, err := fx.Add(ctx, identity, "MyAttribute", []byte{7}, blocks(10), 20)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), entry.CreatedAtHeight)
		assert.Equal(t, uint64(20), entry.UpdatedAtHeight)
	})
}

func TestAttributeRegistry_Apply(t *testing.T) {
	fx := newFixture(t)
	defer fx.finish(t)

	identity := newTestKey(t)

	entry, err := fx.Apply(ctx, identity, "MyAttribute", []byte{1}, 42, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), entry.ValidUntil)
	require.NoError(t, fx.IsValid(ctx, identity, "MyAttribute", []byte{1}, 41))
	assert.ErrorIs(t, fx.IsValid(ctx, identity, "MyAttribute", []byte{1}, 42), ErrInvalidAttribute)
}

func TestAttributeRegistry_Get(t *testing.T) {
	fx := newFixture(t)
	defer fx.finish(t)

	identity := newTestKey(t)

	_, err := fx.Get(ctx, identity, "MyAttribute")
	assert.ErrorIs(t, err, ErrInvalidAttribute)

	_, err = fx.Add(ctx, identity, "MyAttribute", []byte{1}, blocks(10), 1)
	require.NoError(t, err)
	_, err = fx.Delete(ctx, identity, "MyAttribute", 5)
	require.NoError(t, err)

	// expired slots stay readable
	entry, err := fx.Get(ctx, identity, "MyAttribute")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), entry.ValidUntil)
	assert.Equal(t, uint64(2), entry.Nonce)
}

func TestAttributeRegistry_List(t *testing.T) {
	fx := newFixture(t)
	defer fx.finish(t)

	identity := newTestKey(t)
	other := newTestKey(t)

	_, err := fx.Add(ctx, identity, "a", []byte{1}, blocks(10), 1)
	require.NoError(t, err)
	_, err = fx.Add(ctx, identity, "b", []byte{2}, blocks(10), 1)
	require.NoError(t, err)
	_, err = fx.Add(ctx, other, "a", []byte{3}, blocks(10), 1)
	require.NoError(t, err)

	entries, err := fx.List(ctx, identity)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Name)
	assert.Equal(t, "b", entries[1].Name)
}

func TestSweeper(t *testing.T) {
	fx := newFixture(t)
	defer fx.finish(t)

	identity := newTestKey(t)

	_, err := fx.Add(ctx, identity, "shortLived", []byte{1}, blocks(5), 0)
	require.NoError(t, err)
	_, err = fx.Add(ctx, identity, "longLived", []byte{2}, blocks(100), 0)
	require.NoError(t, err)

	sw := &sweeper{
		coll: fx.AttributeRegistry.(*attributeRegistry).coll,
		head: func() uint64 { return 10 },
		sink: fx.deletionLog,
	}
	require.NoError(t, sw.sweep(ctx))

	recs, _, err := fx.deletionLog.GetAfter(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, identity.Account(), recs[0].Identity)
	assert.Equal(t, deletionlog.RecordKindAttribute, recs[0].Kind)
	assert.Equal(t, "shortLived", recs[0].Key)
	assert.Equal(t, uint64(5), recs[0].ExpiredAtHeight)

	t.Run("swept once", func(t *testing.T) {
		require.NoError(t, sw.sweep(ctx))
		recs, _, err := fx.deletionLog.GetAfter(ctx, "", 0)
		require.NoError(t, err)
		assert.Len(t, recs, 1)
	})
}

func newFixture(t *testing.T) *fixture {
	fx := &fixture{
		AttributeRegistry: New(),
		db:                db.New(),
		deletionLog:       deletionlog.New(),
		a:                 new(app.App),
	}
	fx.a.Register(config{}).
		Register(fx.db).
		Register(chainclock.NewManual(0)).
		Register(fx.deletionLog).
		Register(fx.AttributeRegistry)
	require.NoError(t, fx.a.Start(ctx))
	_ = fx.db.Db().Collection(collName).Drop(ctx)
	_ = fx.db.Db().Collection("deletionLog").Drop(ctx)
	return fx
}

type fixture struct {
	AttributeRegistry
	a           *app.App
	db          db.Database
	deletionLog deletionlog.DeletionLog
}

func (fx *fixture) finish(t *testing.T) {
	require.NoError(t, fx.a.Close(ctx))
}

type config struct {
}

func (c config) Init(a *app.App) (err error) { return }
func (c config) Name() string                { return "config" }

func (c config) GetMongo() db.Mongo {
	return db.Mongo{
		Connect:  "mongodb://localhost:27017",
		Database: "didregistry_unittest_attribute",
	}
}

func (c config) GetAttribute() Config {
	return Config{}
}
