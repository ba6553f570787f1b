//go:generate mockgen -destination mock_attribute/mock_attribute.go github.com/anyproto/any-sync-didregistry/attribute AttributeRegistry
package attribute

import (
	"bytes"
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

const CName = "didregistry.attribute"

var log = logger.NewNamed(CName)

const (
	collName = "attributes"

	maxNameLen  = 64
	maxValueLen = 64 * 1024

	defaultValidityBlocks = 1_000_000
)

var (
	ErrInvalidAttribute = errors.New("invalid attribute")
)

type Config struct {
	DefaultValidityBlocks uint64 `yaml:"defaultValidityBlocks"`
	SweepSeconds          int    `yaml:"sweepSeconds"`
}

type configProvider interface {
	GetAttribute() Config
}

// AttributeEntry is the stored slot of one (identity, name) pair. A slot is
// written once and then mutated in place, deletion truncates validUntil and
// wipes the value but never removes the slot. Nonce counts every successful
// mutation of the slot.
type AttributeEntry struct {
	Id              string `bson:"_id"`
	Identity        string `bson:"identity"`
	Name            string `bson:"name"`
	Value           []byte `bson:"value"`
	ValidUntil      uint64 `bson:"validUntil"`
	Nonce           uint64 `bson:"nonce"`
	CreatedAtHeight uint64 `bson:"createdAtHeight"`
	UpdatedAtHeight uint64 `bson:"updatedAtHeight"`
	Updated         int64  `bson:"updated"`
	SweptAtHeight   uint64 `bson:"sweptAtHeight,omitempty"`
}

type byId struct {
	Id string `bson:"_id"`
}

type byIdentity struct {
	Identity string `bson:"identity"`
}

var (
	applyOpts = options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	delOpts   = options.FindOneAndUpdate().SetReturnDocument(options.After)
	sortById  = bson.D{{"_id", 1}}
)

type AttributeRegistry interface {
	// Add writes name=value valid until atHeight+validityBlocks,
	// the configured default period when validityBlocks is nil
	Add(ctx context.Context, identity crypto.PubKey, name string, value []byte, validityBlocks *uint64, atHeight uint64) (entry AttributeEntry, err error)
	// Apply writes name=value with an absolute validUntil height
	Apply(ctx context.Context, identity crypto.PubKey, name string, value []byte, validUntil, atHeight uint64) (entry AttributeEntry, err error)
	// Delete truncates the slot's validity to atHeight and wipes the stored
	// value, keeping the slot and its nonce in place,
	// ErrInvalidAttribute when no slot exists
	Delete(ctx context.Context, identity crypto.PubKey, name string, atHeight uint64) (entry AttributeEntry, err error)
	// IsValid returns nil iff the slot exists, atHeight < validUntil and the
	// stored value equals the given one
	IsValid(ctx context.Context, identity crypto.PubKey, name string, value []byte, atHeight uint64) (err error)
	// NonceOf returns the slot's mutation count, zero for an absent slot
	NonceOf(ctx context.Context, identity crypto.PubKey, name string) (nonce uint64, err error)
	// Get returns the slot whatever its validity, ErrInvalidAttribute when
	// no slot exists
	Get(ctx context.Context, identity crypto.PubKey, name string) (entry AttributeEntry, err error)
	// List returns every slot of an identity, expired ones included
	List(ctx context.Context, identity crypto.PubKey) (entries []AttributeEntry, err error)

	app.ComponentRunnable
}

func New() AttributeRegistry {
	return new(attributeRegistry)
}

type attributeRegistry struct {
	conf        Config
	coll        *mongo.Collection
	chainClock  chainclock.ChainClock
	deletionLog deletionlog.DeletionLog
	sweeper     Sweeper
}

func (r *attributeRegistry) Init(a *app.App) (err error) {
	r.conf = a.MustComponent("config").(configProvider).GetAttribute()
	if r.conf.DefaultValidityBlocks == 0 {
		r.conf.DefaultValidityBlocks = defaultValidityBlocks
	}
	r.coll = a.MustComponent(db.CName).(db.Database).Db().Collection(collName)
	r.chainClock = a.MustComponent(chainclock.CName).(chainclock.ChainClock)
	r.deletionLog = app.MustComponent[deletionlog.DeletionLog](a)
	r.sweeper = getSweeper(r.conf.SweepSeconds)
	return
}

func (r *attributeRegistry) Name() (name string) {
	return CName
}

func (r *attributeRegistry) Run(ctx context.Context) (err error) {
	// create collection if doesn't exist
	_ = r.coll.Database().CreateCollection(ctx, collName)
	if r.conf.SweepSeconds > 0 {
		r.sweeper.Run(r.coll, r.chainClock.Head, r.deletionLog)
	}
	return
}

func (r *attributeRegistry) Close(_ context.Context) (err error) {
	if r.sweeper != nil {
		r.sweeper.Close()
	}
	return
}

func (r *attributeRegistry) Add(ctx context.Context, identity crypto.PubKey, name string, value []byte, validityBlocks *uint64, atHeight uint64) (entry AttributeEntry, err error) {
	blocks := r.conf.DefaultValidityBlocks
	if validityBlocks != nil {
		blocks = *validityBlocks
	}
	validUntil := atHeight + blocks
	if validUntil < atHeight {
		// clamp on overflow
		validUntil = math.MaxUint64
	}
	return r.Apply(ctx, identity, name, value, validUntil, atHeight)
}

func (r *attributeRegistry) Apply(ctx context.Context, identity crypto.PubKey, name string, value []byte, validUntil, atHeight uint64) (entry AttributeEntry, err error) {
	if err = ValidateName(name); err != nil {
		return
	}
	if err = ValidateValue(value); err != nil {
		return
	}
	res := r.coll.FindOneAndUpdate(ctx, byId{attrId(identity.Account(), name)}, bson.D{
		{"$set", bson.D{
			{"identity", identity.Account()},
			{"name", name},
			{"value", value},
			{"validUntil", validUntil},
			{"updatedAtHeight", atHeight},
			{"updated", time.Now().Unix()},
		}},
		{"$inc", bson.D{{"nonce", 1}}},
		{"$setOnInsert", bson.D{{"createdAtHeight", atHeight}}},
		{"$unset", bson.D{{"sweptAtHeight", ""}}},
	}, applyOpts)
	if err = res.Decode(&entry); err != nil {
		return
	}
	return
}

func (r *attributeRegistry) Delete(ctx context.Context, identity crypto.PubKey, name string, atHeight uint64) (entry AttributeEntry, err error) {
	res := r.coll.FindOneAndUpdate(ctx, byId{attrId(identity.Account(), name)}, bson.D{
		{"$set", bson.D{
			{"value", []byte{}},
			{"validUntil", atHeight},
			{"updatedAtHeight", atHeight},
			{"updated", time.Now().Unix()},
		}},
		{"$inc", bson.D{{"nonce", 1}}},
	}, delOpts)
	if err = res.Decode(&entry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = ErrInvalidAttribute
		}
		return
	}
	return
}

func (r *attributeRegistry) IsValid(ctx context.Context, identity crypto.PubKey, name string, value []byte, atHeight uint64) (err error) {
	var entry AttributeEntry
	err = r.coll.FindOne(ctx, byId{attrId(identity.Account(), name)}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrInvalidAttribute
		}
		return
	}
	if atHeight >= entry.ValidUntil {
		return ErrInvalidAttribute
	}
	if !bytes.Equal(entry.Value, value) {
		return ErrInvalidAttribute
	}
	return
}

func (r *attributeRegistry) NonceOf(ctx context.Context, identity crypto.PubKey, name string) (nonce uint64, err error) {
	var entry AttributeEntry
	err = r.coll.FindOne(ctx, byId{attrId(identity.Account(), name)}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// an untouched slot expects nonce 0
			return 0, nil
		}
		return
	}
	return entry.Nonce, nil
}

func (r *attributeRegistry) Get(ctx context.Context, identity crypto.PubKey, name string) (entry AttributeEntry, err error) {
	err = r.coll.FindOne(ctx, byId{attrId(identity.Account(), name)}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = ErrInvalidAttribute
		}
		return
	}
	return
}

func (r *attributeRegistry) List(ctx context.Context, identity crypto.PubKey) (entries []AttributeEntry, err error) {
	it, err := r.coll.Find(ctx, byIdentity{identity.Account()}, options.Find().SetSort(sortById))
	if err != nil {
		return
	}
	defer func() {
		_ = it.Close(ctx)
	}()
	for it.Next(ctx) {
		var entry AttributeEntry
		if err = it.Decode(&entry); err != nil {
			return
		}
		entries = append(entries, entry)
	}
	return
}

// account strings never contain a slash, the name follows the first one
func attrId(identity, name string) string {
	return identity + "/" + name
}

func ValidateName(name string) error {
	if name == "" || len(name) > maxNameLen || !utf8.ValidString(name) {
		return ErrInvalidAttribute
	}
	return nil
}

func ValidateValue(value []byte) error {
	if len(value) == 0 || len(value) > maxValueLen {
		return ErrInvalidAttribute
	}
	return nil
}
