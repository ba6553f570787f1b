//go:generate mockgen -destination mock_eventlog/mock_eventlog.go github.com/anyproto/any-sync-didregistry/eventlog EventLog
package eventlog

import (
	"context"
	"errors"
	"time"

	"github.com/anyproto/any-sync/app"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anyproto/any-sync-didregistry/db"
)

const CName = "didregistry.eventLog"

const (
	collName     = "eventLog"
	defaultLimit = 1000
)

var (
	ErrNoIdentity = errors.New("no identity")
)

type EventLogEntryType uint8

const (
	EntryTypeOwnerChanged        EventLogEntryType = 0
	EntryTypeDelegateAdded       EventLogEntryType = 1
	EntryTypeDelegateRevoked     EventLogEntryType = 2
	EntryTypeAttributeSet        EventLogEntryType = 3
	EntryTypeAttributeRevoked    EventLogEntryType = 4
	EntryTypeTransactionExecuted EventLogEntryType = 5
)

type EventLogEntry struct {
	Id        *primitive.ObjectID `bson:"_id,omitempty"`
	Identity  string              `bson:"identity"`
	Height    uint64              `bson:"height"`
	Timestamp int64               `bson:"timestamp"`
	EntryType EventLogEntryType   `bson:"entryType"`
	// only for EntryTypeOwnerChanged
	Owner string `bson:"owner,omitempty"`
	// only for delegate entries
	Delegate   string `bson:"delegate,omitempty"`
	Kind       string `bson:"kind,omitempty"`
	ValidUntil uint64 `bson:"validUntil,omitempty"`
	// only for attribute and transaction entries
	Name string `bson:"name,omitempty"`
	// only for EntryTypeTransactionExecuted
	Signer string `bson:"signer,omitempty"`
}

type findIdGt struct {
	Identity string `bson:"identity"`

	Id struct {
		Gt primitive.ObjectID `bson:"$gt"`
	} `bson:"_id"`
}

type findIdentity struct {
	Identity string `bson:"identity"`
}

var sortById = bson.D{{"_id", 1}}

// EventLog keeps one append-only stream of registry changes per identity, the
// notification feed consumers poll with GetAfter.
type EventLog interface {
	AddLog(ctx context.Context, entry EventLogEntry) (err error)
	GetAfter(ctx context.Context, identity, afterId string, limit uint32) (records []EventLogEntry, hasMore bool, err error)

	app.ComponentRunnable
}

func New() EventLog {
	return new(eventLog)
}

type eventLog struct {
	coll *mongo.Collection
}

func (d *eventLog) Init(a *app.App) (err error) {
	d.coll = a.MustComponent(db.CName).(db.Database).Db().Collection(collName)
	return
}

func (d *eventLog) Name() (name string) {
	return CName
}

func (d *eventLog) Run(ctx context.Context) error {
	// create collection if doesn't exist
	_ = d.coll.Database().CreateCollection(ctx, collName)
	return nil
}

func (d *eventLog) Close(_ context.Context) (err error) {
	return nil
}

func (d *eventLog) AddLog(ctx context.Context, entry EventLogEntry) (err error) {
	entry.Timestamp = time.Now().Unix()
	_, err = d.coll.InsertOne(ctx, entry)
	return
}

func (d *eventLog) GetAfter(ctx context.Context, identity string, afterId string, limit uint32) (records []EventLogEntry, hasMore bool, err error) {
	if identity == "" {
		err = ErrNoIdentity
		return
	}

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
		qGt.Identity = identity

		q = qGt
	} else {
		var qId findIdentity
		qId.Identity = identity

		q = qId
	}

	it, err := d.coll.Find(ctx, q, options.Find().SetSort(sortById).SetLimit(int64(limit)))
	if err != nil {
		return
	}
	defer func() {
		_ = it.Close(ctx)
	}()
	records = make([]EventLogEntry, 0, limit)
	for it.Next(ctx) {
		var rec EventLogEntry
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
