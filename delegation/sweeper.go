package delegation

import (
	"context"
	"time"

	"github.com/anyproto/any-sync/util/periodicsync"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/anyproto/any-sync-didregistry/deletionlog"
)

const sweepTimeout = time.Second * 100

// Sweeper feeds expired grants to the deletion log. Entries are marked
// instead of removed, so every grant is reported exactly once.
type Sweeper interface {
	Run(coll *mongo.Collection, head func() uint64, sink deletionlog.DeletionLog)
	Close()
}

var getSweeper = newSweeper

func newSweeper(runSeconds int) Sweeper {
	return &sweeper{runSeconds: runSeconds}
}

type sweeper struct {
	runSeconds int
	coll       *mongo.Collection
	head       func() uint64
	sink       deletionlog.DeletionLog
	loop       periodicsync.PeriodicSync
}

type expiredQuery struct {
	head uint64
}

func (e expiredQuery) toMap() bson.M {
	return bson.M{"$and": bson.A{
		bson.D{{"validUntil", bson.M{"$lte": e.head}}},
		bson.D{{"sweptAtHeight", bson.M{"$exists": false}}},
	}}
}

func (s *sweeper) Run(coll *mongo.Collection, head func() uint64, sink deletionlog.DeletionLog) {
	s.coll = coll
	s.head = head
	s.sink = sink
	s.loop = periodicsync.NewPeriodicSync(s.runSeconds, sweepTimeout, s.sweep, log)
	s.loop.Run()
}

func (s *sweeper) sweep(ctx context.Context) (err error) {
	head := s.head()
	cur, err := s.coll.Find(ctx, expiredQuery{head: head}.toMap())
	if err != nil {
		return
	}
	defer func() {
		_ = cur.Close(ctx)
	}()
	for cur.Next(ctx) {
		if err = s.processEntry(ctx, cur, head); err != nil {
			log.Debug("failed to sweep expired delegate", zap.Error(err))
			continue
		}
	}
	return nil
}

func (s *sweeper) processEntry(ctx context.Context, cur *mongo.Cursor, head uint64) (err error) {
	entry := &DelegateEntry{}
	if err = cur.Decode(entry); err != nil {
		return
	}
	if _, err = s.sink.Add(ctx, deletionlog.Record{
		Identity:        entry.Identity,
		Kind:            deletionlog.RecordKindDelegate,
		Key:             entry.Delegate,
		DelegateKind:    entry.Kind,
		ExpiredAtHeight: entry.ValidUntil,
	}); err != nil {
		return
	}
	_, err = s.coll.UpdateOne(ctx, byId{entry.Id},
		bson.D{{"$set", bson.D{{"sweptAtHeight", head}}}})
	return
}

func (s *sweeper) Close() {
	if s.loop != nil {
		s.loop.Close()
	}
}
