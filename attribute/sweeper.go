package attribute

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

// Sweeper reports slots past validity to the deletion log, once per expiry.
// Revoked slots qualify the same way as naturally expired ones.
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

func expiredFilter(head uint64) bson.M {
	return bson.M{
		"validUntil":    bson.M{"$lte": head},
		"sweptAtHeight": bson.M{"$exists": false},
	}
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
	cur, err := s.coll.Find(ctx, expiredFilter(head))
	if err != nil {
		return
	}
	defer func() {
		_ = cur.Close(ctx)
	}()
	for cur.Next(ctx) {
		var entry AttributeEntry
		if err = cur.Decode(&entry); err != nil {
			log.Debug("failed to decode expired attribute", zap.Error(err))
			continue
		}
		if _, err = s.sink.Add(ctx, deletionlog.Record{
			Identity:        entry.Identity,
			Kind:            deletionlog.RecordKindAttribute,
			Key:             entry.Name,
			ExpiredAtHeight: entry.ValidUntil,
		}); err != nil {
			log.Debug("failed to sweep expired attribute", zap.Error(err))
			continue
		}
		if _, err = s.coll.UpdateOne(ctx, byId{entry.Id},
			bson.D{{"$set", bson.D{{"sweptAtHeight", head}}}}); err != nil {
			log.Debug("failed to mark swept attribute", zap.Error(err))
			continue
		}
	}
	return nil
}

func (s *sweeper) Close() {
	if s.loop != nil {
		s.loop.Close()
	}
}
