//go:generate mockgen -destination mock_ownership/mock_ownership.go github.com/anyproto/any-sync-didregistry/ownership OwnershipRegistry
package ownership

import (
	"context"
	"errors"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/anyproto/any-sync/util/crypto"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anyproto/any-sync-didregistry/db"
)

const CName = "didregistry.ownership"

var log = logger.NewNamed(CName)

const collName = "owners"

var (
	ErrNotOwner = errors.New("not an owner")
)

// OwnerEntry is the stored owner record. An identity without an entry is
// owned by its own key, so the collection only holds identities whose
// ownership was transferred at least once.
type OwnerEntry struct {
	Identity        string `bson:"_id"`
	Owner           string `bson:"owner"`
	ChangedBy       string `bson:"changedBy"`
	ChangedAtHeight uint64 `bson:"changedAtHeight"`
	Updated         int64  `bson:"updated"`
}

type byIdentity struct {
	Identity string `bson:"_id"`
}

var updOpts = options.Update().SetUpsert(true)

type OwnershipRegistry interface {
	// OwnerOf returns the account of the current owner, the identity's own
	// account when no record exists
	OwnerOf(ctx context.Context, identity crypto.PubKey) (owner string, err error)
	// IsOwner returns ErrNotOwner unless candidate is the current owner
	IsOwner(ctx context.Context, identity, candidate crypto.PubKey) (err error)
	// SetOwner upserts the owner record, authorization is the caller's duty
	SetOwner(ctx context.Context, identity, newOwner, changedBy crypto.PubKey, atHeight uint64) (err error)

	app.ComponentRunnable
}

func New() OwnershipRegistry {
	return new(ownershipRegistry)
}

type ownershipRegistry struct {
	coll *mongo.Collection
}

func (r *ownershipRegistry) Init(a *app.App) (err error) {
	r.coll = a.MustComponent(db.CName).(db.Database).Db().Collection(collName)
	return
}

func (r *ownershipRegistry) Name() (name string) {
	return CName
}

func (r *ownershipRegistry) Run(ctx context.Context) (err error) {
	// create collection if doesn't exist
	_ = r.coll.Database().CreateCollection(ctx, collName)
	return
}

func (r *ownershipRegistry) Close(_ context.Context) (err error) {
	return
}

func (r *ownershipRegistry) OwnerOf(ctx context.Context, identity crypto.PubKey) (owner string, err error) {
	var entry OwnerEntry
	err = r.coll.FindOne(ctx, byIdentity{identity.Account()}).Decode(&entry)
	if err == nil {
		return entry.Owner, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return
	}
	// self-owned by default
	return identity.Account(), nil
}

func (r *ownershipRegistry) IsOwner(ctx context.Context, identity, candidate crypto.PubKey) (err error) {
	owner, err := r.OwnerOf(ctx, identity)
	if err != nil {
		return
	}
	if candidate.Account() != owner {
		return ErrNotOwner
	}
	return
}

func (r *ownershipRegistry) SetOwner(ctx context.Context, identity, newOwner, changedBy crypto.PubKey, atHeight uint64) (err error) {
	entry := OwnerEntry{
		Identity:        identity.Account(),
		Owner:           newOwner.Account(),
		ChangedBy:       changedBy.Account(),
		ChangedAtHeight: atHeight,
		Updated:         time.Now().Unix(),
	}
	_, err = r.coll.UpdateOne(ctx, byIdentity{entry.Identity}, bson.D{{"$set", entry}}, updOpts)
	return
}
