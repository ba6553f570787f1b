//go:generate mockgen -destination mock_delegation/mock_delegation.go github.com/anyproto/any-sync-didregistry/delegation DelegateRegistry
package delegation

import (
	"context"
	"errors"
	"math"
	"time"
	"unicode/utf8"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/anyproto/any-sync/util/crypto"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anyproto/any-sync-didregistry/chainclock"
	"github.com/anyproto/any-sync-didregistry/db"
	"github.com/anyproto/any-sync-didregistry/deletionlog"
)

const CName = "didregistry.delegation"

var log = logger.NewNamed(CName)

const (
	collName   = "delegates"
	maxKindLen = 64

	defaultValidityBlocks = 1_000_000
)

var (
	ErrInvalidDelegate = errors.New("invalid delegate")
)

type Config struct {
	// DefaultValidityBlocks bounds grants that carry no explicit validity,
	// a grant is never unbounded
	DefaultValidityBlocks uint64 `yaml:"defaultValidityBlocks"`
	// SweepSeconds enables the expiry sweeper when positive
	SweepSeconds int `yaml:"sweepSeconds"`
}

type configProvider interface {
	GetDelegation() Config
}

// DelegateEntry is the stored grant. Expired entries stay in place as an
// audit log of historical delegation, the sweeper only feeds them to the
// deletion log.
type DelegateEntry struct {
	Id              string `bson:"_id"`
	Identity        string `bson:"identity"`
	Kind            string `bson:"kind"`
	Delegate        string `bson:"delegate"`
	ValidUntil      uint64 `bson:"validUntil"`
	GrantedAtHeight uint64 `bson:"grantedAtHeight"`
	Updated         int64  `bson:"updated"`
	SweptAtHeight   uint64 `bson:"sweptAtHeight,omitempty"`
}

type byId struct {
	Id string `bson:"_id"`
}

type byIdentity struct {
	Identity string `bson:"identity"`
}

type byIdValid struct {
	Id         string `bson:"_id"`
	ValidUntil struct {
		Gt uint64 `bson:"$gt"`
	} `bson:"validUntil"`
}

var (
	updOpts  = options.Update().SetUpsert(true)
	sortById = bson.D{{"_id", 1}}
)

type DelegateRegistry interface {
	// Add grants delegate the kind authority until atHeight+validityBlocks,
	// the configured default period when validityBlocks is nil
	Add(ctx context.Context, identity, delegate crypto.PubKey, kind string, validityBlocks *uint64, atHeight uint64) (validUntil uint64, err error)
	// Revoke truncates a currently valid grant to atHeight,
	// ErrInvalidDelegate when no such grant is in effect
	Revoke(ctx context.Context, identity, delegate crypto.PubKey, kind string, atHeight uint64) (err error)
	// IsValid returns nil iff the exact (identity, kind, delegate) grant
	// exists and atHeight < validUntil
	IsValid(ctx context.Context, identity, delegate crypto.PubKey, kind string, atHeight uint64) (err error)
	// List returns every grant of an identity, expired ones included
	List(ctx context.Context, identity crypto.PubKey) (entries []DelegateEntry, err error)

	app.ComponentRunnable
}

func New() DelegateRegistry {
	return new(delegateRegistry)
}

type delegateRegistry struct {
	conf        Config
	coll        *mongo.Collection
	chainClock  chainclock.ChainClock
	deletionLog deletionlog.DeletionLog
	sweeper     Sweeper
}

func (r *delegateRegistry) Init(a *app.App) (err error) {
	r.conf = a.MustComponent("config").(configProvider).GetDelegation()
	if r.conf.DefaultValidityBlocks == 0 {
		r.conf.DefaultValidityBlocks = defaultValidityBlocks
	}
	r.coll = a.MustComponent(db.CName).(db.Database).Db().Collection(collName)
	r.chainClock = a.MustComponent(chainclock.CName).(chainclock.ChainClock)
	r.deletionLog = app.MustComponent[deletionlog.DeletionLog](a)
	r.sweeper = getSweeper(r.conf.SweepSeconds)
	return
}

func (r *delegateRegistry) Name() (name string) {
	return CName
}

func (r *delegateRegistry) Run(ctx context.Context) (err error) {
	// create collection if doesn't exist
	_ = r.coll.Database().CreateCollection(ctx, collName)
	if r.conf.SweepSeconds > 0 {
		r.sweeper.Run(r.coll, r.chainClock.Head, r.deletionLog)
	}
	return
}

func (r *delegateRegistry) Close(_ context.Context) (err error) {
	if r.sweeper != nil {
		r.sweeper.Close()
	}
	return
}

func (r *delegateRegistry) Add(ctx context.Context, identity, delegate crypto.PubKey, kind string, validityBlocks *uint64, atHeight uint64) (validUntil uint64, err error) {
	if err = validateKind(kind); err != nil {
		return
	}
	blocks := r.conf.DefaultValidityBlocks
	if validityBlocks != nil {
		blocks = *validityBlocks
	}
	validUntil = atHeight + blocks
	if validUntil < atHeight {
		// clamp on overflow
		validUntil = math.MaxUint64
	}
	entry := DelegateEntry{
		Id:              delegateId(identity.Account(), kind, delegate.Account()),
		Identity:        identity.Account(),
		Kind:            kind,
		Delegate:        delegate.Account(),
		ValidUntil:      validUntil,
		GrantedAtHeight: atHeight,
		Updated:         time.Now().Unix(),
	}
	// a fresh grant must become visible to the sweeper again
	_, err = r.coll.UpdateOne(ctx, byId{entry.Id},
		bson.D{{"$set", entry}, {"$unset", bson.D{{"sweptAtHeight", ""}}}}, updOpts)
	return
}

func (r *delegateRegistry) Revoke(ctx context.Context, identity, delegate crypto.PubKey, kind string, atHeight uint64) (err error) {
	q := byIdValid{Id: delegateId(identity.Account(), kind, delegate.Account())}
	q.ValidUntil.Gt = atHeight
	res := r.coll.FindOneAndUpdate(ctx, q, bson.D{{"$set", bson.D{
		{"validUntil", atHeight},
		{"updated", time.Now().Unix()},
	}}})
	if err = res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrInvalidDelegate
		}
		return
	}
	return
}

func (r *delegateRegistry) IsValid(ctx context.Context, identity, delegate crypto.PubKey, kind string, atHeight uint64) (err error) {
	var entry DelegateEntry
	err = r.coll.FindOne(ctx, byId{delegateId(identity.Account(), kind, delegate.Account())}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrInvalidDelegate
		}
		return
	}
	if atHeight >= entry.ValidUntil {
		return ErrInvalidDelegate
	}
	return
}

func (r *delegateRegistry) List(ctx context.Context, identity crypto.PubKey) (entries []DelegateEntry, err error) {
	it, err := r.coll.Find(ctx, byIdentity{identity.Account()}, options.Find().SetSort(sortById))
	if err != nil {
		return
	}
	defer func() {
		_ = it.Close(ctx)
	}()
	for it.Next(ctx) {
		var entry DelegateEntry
		if err = it.Decode(&entry); err != nil {
			return
		}
		entries = append(entries, entry)
	}
	return
}

// account strings never contain a slash, kind sits between them
func delegateId(identity, kind, delegate string) string {
	return identity + "/" + kind + "/" + delegate
}

func validateKind(kind string) error {
	if kind == "" || len(kind) > maxKindLen || !utf8.ValidString(kind) {
		return ErrInvalidDelegate
	}
	return nil
}
