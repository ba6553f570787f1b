package deletionlog

import (
	"context"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anyproto/any-sync-didregistry/db"
)

const CName = "didregistry.deletionLog"

var log = logger.NewNamed(CName)

const (
	collName     = "deletionLog"
	defaultLimit = 1000
)

func New() DeletionLog {
	return new(deletionLog)
}

// DeletionLog is a feed of registry slots whose validity has lapsed. Sweepers
// append to it, external compactors poll it with GetAfter. Registry slots
// themselves are never removed, the feed only points at dead ones.
type DeletionLog interface {
	GetAfter(ctx context.Context, afterId string, limit uint32) (records []Record, hasMore bool, err error)
	Add(ctx context.Context, rec Record) (id string, err error)
	app.ComponentRunnable
}

type RecordKind uint8

const (
	RecordKindDelegate  RecordKind = 0
	RecordKindAttribute RecordKind = 1
)

type Record struct {
	Id       *primitive.ObjectID `bson:"_id,omitempty"`
	Identity string              `bson:"identity"`
	Kind     RecordKind          `bson:"kind"`
	// Key is the delegate account for delegate records, the attribute name
	// for attribute records
	Key             string `bson:"key"`
	DelegateKind    string `bson:"delegateKind,omitempty"`
	ExpiredAtHeight uint64 `bson:"expiredAtHeight"`
}

func (r Record) Timestamp() int64 {
	return r.Id.Timestamp().Unix()
}

type deletionLog struct {
	coll *mongo.Collection
}

func (d *deletionLog) Init(a *app.App) (err error) {
	d.coll = a.MustComponent(db.CName).(db.Database).Db().Collection(collName)
	return
}

func (d *deletionLog) Name() (name string) {
	return CName
}

func (d *deletionLog) Run(ctx context.Context) error {
	// create collection if doesn't exist
	_ = d.coll.Database().CreateCollection(ctx, collName)
	return nil
}

func (d *deletionLog) Close(_ context.Context) (err error) {
	return nil
}

type findIdGt struct {
	Id struct {
		Gt primitive.ObjectID `bson:"$gt"`
	} `bson:"_id"`
}

var sortById = bson.D{{"_id", 1}}

func (d *deletionLog) GetAfter(ctx context.Context, afterId string, limit uint32) (records []Record, hasMore bool, err error) {
	if limit == 0 || limit > defaultLimit {
		limit = defaultLimit
	}
	// fetch one more item to detect a hasMore
	limit += 1

	var q any

	if afterId != "" {
		var qGt findIdGt
		if qGt.Id.Gt, err = primitive.ObjectIDFromHex(afterId); err != nil {
			return
		}
		q = qGt
	} else {
		q = bson.D{}
	}
	it, err := d.coll.Find(ctx, q, options.Find().SetSort(sortById).SetLimit(int64(limit)))
	if err != nil {
		return
	}
	defer func() {
		_ = it.Close(ctx)
	}()
	records = make([]Record, 0, limit)
	for it.Next(ctx) {
		var rec Record
		if err = it.Decode(&rec); err != nil {
			return
		}
		records = append(records, rec)
	}
	if len(records) == int(limit) {
		records = records[:len(records)-1]
		hasMore = true
	}
	return
}

func (d *deletionLog) Add(ctx context.Context, rec Record) (id string, err error) {
	rec.Id = nil
	res, err := d.coll.InsertOne(ctx, rec)
	if err != nil {
		return
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}
