package eventlog

import (
	"context"
	"testing"

	"github.com/anyproto/any-sync/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyproto/any-sync-didregistry/db"
)

var ctx = context.Background()

func TestEventLog_AddLog(t *testing.T) {
	fx := newFixture(t)
	defer fx.finish(t)

	err := fx.AddLog(ctx, EventLogEntry{
		Identity:  "identity1",
		Height:    5,
		EntryType: EntryTypeOwnerChanged,
		Owner:     "owner1",
	})
	require.NoError(t, err)

	records, hasMore, err := fx.GetAfter(ctx, "identity1", "", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, hasMore)
	assert.Equal(t, EntryTypeOwnerChanged, records[0].EntryType)
	assert.Equal(t, "owner1", records[0].Owner)
	assert.Equal(t, uint64(5), records[0].Height)
	assert.NotZero(t, records[0].Timestamp)
}

func TestEventLog_GetAfter(t *testing.T) {
	fx := newFixture(t)
	defer fx.finish(t)

	for i := 0; i < 10; i++ {
		err := fx.AddLog(ctx, EventLogEntry{
			Identity:  "identity1",
			Height:    uint64(i),
			EntryType: EntryTypeAttributeSet,
			Name:      "attr",
		})
		require.NoError(t, err)
	}

	t.Run("no identity", func(t *testing.T) {
		_, _, err := fx.GetAfter(ctx, "", "", 0)
		require.Equal(t, ErrNoIdentity, err)
	})

	t.Run("success", func(t *testing.T) {
		res, hasMore, err := fx.GetAfter(ctx, "identity1", "", 0)
		require.NoError(t, err)
		require.Len(t, res, 10)
		assert.False(t, hasMore)
	})

	t.Run("other identity", func(t *testing.T) {
		res, hasMore, err := fx.GetAfter(ctx, "identity2", "", 0)
		require.NoError(t, err)
		require.Len(t, res, 0)
		assert.False(t, hasMore)
	})

	t.Run("hasMore for last item", func(t *testing.T) {
		res, hasMore, err := fx.GetAfter(ctx, "identity1", "", 9)
		require.NoError(t, err)
		require.Len(t, res, 9)
		assert.True(t, hasMore)
	})

	t.Run("afterId", func(t *testing.T) {
		res, hasMore, err := fx.GetAfter(ctx, "identity1", "", 5)
		require.NoError(t, err)
		require.Len(t, res, 5)
		assert.True(t, hasMore)
		lastId := res[4].Id.Hex()

		res2, hasMore2, err2 := fx.GetAfter(ctx, "identity1", lastId, 0)
		require.NoError(t, err2)
		require.Len(t, res2, 5)
		assert.False(t, hasMore2)
	})
}

func newFixture(t *testing.T) *fixture {
	fx := &fixture{
		EventLog: New(),
		db:       db.New(),
		a:        new(app.App),
	}
	fx.a.Register(config{}).Register(fx.db).Register(fx.EventLog)
	require.NoError(t, fx.a.Start(ctx))
	_ = fx.db.Db().Collection(collName).Drop(ctx)
	return fx
}

type fixture struct {
	EventLog
	a  *app.App
	db db.Database
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
		Database: "didregistry_unittest_eventlog",
	}
}
