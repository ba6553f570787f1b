package didregistry

import (
	"context"
	"errors"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/anyproto/any-sync/metric"
	"github.com/anyproto/any-sync/net/peer"
	"github.com/anyproto/any-sync/util/crypto"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/anyproto/any-sync-didregistry/attribute"
	"github.com/anyproto/any-sync-didregistry/authorizer"
	"github.com/anyproto/any-sync-didregistry/chainclock"
	"github.com/anyproto/any-sync-didregistry/db"
	"github.com/anyproto/any-sync-didregistry/delegation"
	"github.com/anyproto/any-sync-didregistry/eventlog"
	"github.com/anyproto/any-sync-didregistry/ownership"
)

const CName = "didregistry.registry"

var log = logger.NewNamed(CName)

var (
	// ErrStaleTransaction reports a nonce mismatch, the signed instruction
	// targets a slot state that has since moved on
	ErrStaleTransaction = errors.New("stale transaction")
	// ErrForbidden reports a mutation attempt without an authenticated origin
	ErrForbidden = errors.New("forbidden")
)

func New() DidRegistry {
	return new(didRegistry)
}

// DidRegistry is the boundary surface of the registry. Mutations resolve the
// caller from the peer context, read the chain head once and run their writes
// in one mongo transaction together with the event log append. Reads are
// unauthenticated.
type DidRegistry interface {
	// ChangeOwner transfers the identity to newOwner, current owner only
	ChangeOwner(ctx context.Context, identity, newOwner crypto.PubKey) (err error)
	// AddDelegate grants delegate the kind authority, owner only
	AddDelegate(ctx context.Context, identity, delegate crypto.PubKey, kind string, validityBlocks *uint64) (err error)
	// RevokeDelegate expires a currently valid grant, owner only
	RevokeDelegate(ctx context.Context, identity, delegate crypto.PubKey, kind string) (err error)
	// SetAttribute writes an attribute slot, owner or signing delegate
	SetAttribute(ctx context.Context, identity crypto.PubKey, name string, value []byte, validityBlocks *uint64) (err error)
	// RevokeAttribute expires an attribute slot, owner or signing delegate
	RevokeAttribute(ctx context.Context, identity crypto.PubKey, name string) (err error)
	// Execute applies a signed attribute transaction relayed by any
	// authenticated caller, only the embedded signature authorizes it
	Execute(ctx context.Context, tx AttributeTransaction) (err error)

	OwnerOf(ctx context.Context, identity crypto.PubKey) (owner string, err error)
	IsOwner(ctx context.Context, identity, candidate crypto.PubKey) (err error)
	ValidDelegate(ctx context.Context, identity, delegate crypto.PubKey, kind string) (err error)
	ValidAttribute(ctx context.Context, identity crypto.PubKey, name string, value []byte) (err error)
	ValidSigner(ctx context.Context, identity crypto.PubKey, signature, message []byte, signer crypto.PubKey) (err error)
	CheckSignature(signature, message []byte, signer crypto.PubKey) (err error)
	NonceOf(ctx context.Context, identity crypto.PubKey, name string) (nonce uint64, err error)
	Delegates(ctx context.Context, identity crypto.PubKey) (entries []delegation.DelegateEntry, err error)
	Attribute(ctx context.Context, identity crypto.PubKey, name string) (entry attribute.AttributeEntry, err error)

	app.Component
}

type didRegistry struct {
	db         db.Database
	chainClock chainclock.ChainClock
	ownership  ownership.OwnershipRegistry
	delegation delegation.DelegateRegistry
	attribute  attribute.AttributeRegistry
	authorizer authorizer.Authorizer
	eventLog   eventlog.EventLog
	metric     metric.Metric
}

func (d *didRegistry) Init(a *app.App) (err error) {
	d.db = a.MustComponent(db.CName).(db.Database)
	d.chainClock = a.MustComponent(chainclock.CName).(chainclock.ChainClock)
	d.ownership = a.MustComponent(ownership.CName).(ownership.OwnershipRegistry)
	d.delegation = a.MustComponent(delegation.CName).(delegation.DelegateRegistry)
	d.attribute = a.MustComponent(attribute.CName).(attribute.AttributeRegistry)
	d.authorizer = a.MustComponent(authorizer.CName).(authorizer.Authorizer)
	d.eventLog = a.MustComponent(eventlog.CName).(eventlog.EventLog)
	d.metric = a.MustComponent(metric.CName).(metric.Metric)
	return
}

func (d *didRegistry) Name() (name string) {
	return CName
}

func (d *didRegistry) ChangeOwner(ctx context.Context, identity, newOwner crypto.PubKey) (err error) {
	st := time.Now()
	head := d.chainClock.Head()
	defer func() {
		d.metric.RequestLog(ctx, "didregistry.changeOwner",
			metric.TotalDur(time.Since(st)),
			zap.String("identity", identity.Account()),
			zap.Error(err),
		)
	}()
	caller, err := d.caller(ctx)
	if err != nil {
		return
	}
	if err = d.ownership.IsOwner(ctx, identity, caller); err != nil {
		return
	}
	return d.db.Tx(ctx, func(txCtx mongo.SessionContext) error {
		if err := d.ownership.SetOwner(txCtx, identity, newOwner, caller, head); err != nil {
			return err
		}
		return d.eventLog.AddLog(txCtx, eventlog.EventLogEntry{
			Identity:  identity.Account(),
			Height:    head,
			EntryType: eventlog.EntryTypeOwnerChanged,
			Owner:     newOwner.Account(),
		})
	})
}

func (d *didRegistry) AddDelegate(ctx context.Context, identity, delegate crypto.PubKey, kind string, validityBlocks *uint64) (err error) {
	st := time.Now()
	head := d.chainClock.Head()
	defer func() {
		d.metric.RequestLog(ctx, "didregistry.addDelegate",
			metric.TotalDur(time.Since(st)),
			zap.String("identity", identity.Account()),
			zap.Error(err),
		)
	}()
	caller, err := d.caller(ctx)
	if err != nil {
		return
	}
	// delegates never manage other delegates
	if err = d.ownership.IsOwner(ctx, identity, caller); err != nil {
		return
	}
	return d.db.Tx(ctx, func(txCtx mongo.SessionContext) error {
		validUntil, err := d.delegation.Add(txCtx, identity, delegate, kind, validityBlocks, head)
		if err != nil {
			return err
		}
		return d.eventLog.AddLog(txCtx, eventlog.EventLogEntry{
			Identity:   identity.Account(),
			Height:     head,
			EntryType:  eventlog.EntryTypeDelegateAdded,
			Delegate:   delegate.Account(),
			Kind:       kind,
			ValidUntil: validUntil,
		})
	})
}

func (d *didRegistry) RevokeDelegate(ctx context.Context, identity, delegate crypto.PubKey, kind string) (err error) {
	st := time.Now()
	head := d.chainClock.Head()
	defer func() {
		d.metric.RequestLog(ctx, "didregistry.revokeDelegate",
			metric.TotalDur(time.Since(st)),
			zap.String("identity", identity.Account()),
			zap.Error(err),
		)
	}()
	caller, err := d.caller(ctx)
	if err != nil {
		return
	}
	if err = d.ownership.IsOwner(ctx, identity, caller); err != nil {
		return
	}
	return d.db.Tx(ctx, func(txCtx mongo.SessionContext) error {
		if err := d.delegation.Revoke(txCtx, identity, delegate, kind, head); err != nil {
			return err
		}
		return d.eventLog.AddLog(txCtx, eventlog.EventLogEntry{
			Identity:   identity.Account(),
			Height:     head,
			EntryType:  eventlog.EntryTypeDelegateRevoked,
			Delegate:   delegate.Account(),
			Kind:       kind,
			ValidUntil: head,
		})
	})
}

func (d *didRegistry) SetAttribute(ctx context.Context, identity crypto.PubKey, name string, value []byte, validityBlocks *uint64) (err error) {
	st := time.Now()
	head := d.chainClock.Head()
	defer func() {
		d.metric.RequestLog(ctx, "didregistry.setAttribute",
			metric.TotalDur(time.Since(st)),
			zap.String("identity", identity.Account()),
			zap.Error(err),
		)
	}()
	caller, err := d.caller(ctx)
	if err != nil {
		return
	}
	if err = d.authorizer.CanManage(ctx, identity, caller, head); err != nil {
		return
	}
	return d.db.Tx(ctx, func(txCtx mongo.SessionContext) error {
		entry, err := d.attribute.Add(txCtx, identity, name, value, validityBlocks, head)
		if err != nil {
			return err
		}
		return d.eventLog.AddLog(txCtx, eventlog.EventLogEntry{
			Identity:   identity.Account(),
			Height:     head,
			EntryType:  eventlog.EntryTypeAttributeSet,
			Name:       name,
			ValidUntil: entry.ValidUntil,
		})
	})
}

func (d *didRegistry) RevokeAttribute(ctx context.Context, identity crypto.PubKey, name string) (err error) {
	st := time.Now()
	head := d.chainClock.Head()
	defer func() {
		d.metric.RequestLog(ctx, "didregistry.revokeAttribute",
			metric.TotalDur(time.Since(st)),
			zap.String("identity", identity.Account()),
			zap.Error(err),
		)
	}()
	caller, err := d.caller(ctx)
	if err != nil {
		return
	}
	if err = d.authorizer.CanManage(ctx, identity, caller, head); err != nil {
		return
	}
	return d.db.Tx(ctx, func(txCtx mongo.SessionContext) error {
		if _, err := d.attribute.Delete(txCtx, identity, name, head); err != nil {
			return err
		}
		return d.eventLog.AddLog(txCtx, eventlog.EventLogEntry{
			Identity:   identity.Account(),
			Height:     head,
			EntryType:  eventlog.EntryTypeAttributeRevoked,
			Name:       name,
			ValidUntil: head,
		})
	})
}

func (d *didRegistry) Execute(ctx context.Context, tx AttributeTransaction) (err error) {
	if tx.Identity == nil || tx.Signer == nil {
		return attribute.ErrInvalidAttribute
	}
	st := time.Now()
	head := d.chainClock.Head()
	defer func() {
		d.metric.RequestLog(ctx, "didregistry.execute",
			metric.TotalDur(time.Since(st)),
			zap.String("identity", tx.Identity.Account()),
			zap.String("name", tx.Name),
			zap.Error(err),
		)
	}()
	// any authenticated account may relay
	if _, err = d.caller(ctx); err != nil {
		return
	}
	if err = attribute.ValidateName(tx.Name); err != nil {
		return
	}
	if tx.ValidUntil != 0 {
		if err = attribute.ValidateValue(tx.Value); err != nil {
			return
		}
	}
	payload, err := tx.SigningPayload()
	if err != nil {
		return
	}
	if err = d.authorizer.ValidSigner(ctx, tx.Identity, tx.Signature, payload, tx.Signer, head); err != nil {
		return
	}
	nonce, err := d.attribute.NonceOf(ctx, tx.Identity, tx.Name)
	if err != nil {
		return
	}
	if nonce != tx.Nonce {
		return ErrStaleTransaction
	}
	return d.db.Tx(ctx, func(txCtx mongo.SessionContext) error {
		var (
			entry     attribute.AttributeEntry
			entryType = eventlog.EntryTypeAttributeSet
			err       error
		)
		if tx.ValidUntil == 0 {
			entryType = eventlog.EntryTypeAttributeRevoked
			entry, err = d.attribute.Delete(txCtx, tx.Identity, tx.Name, head)
		} else {
			entry, err = d.attribute.Apply(txCtx, tx.Identity, tx.Name, tx.Value, tx.ValidUntil, head)
		}
		if err != nil {
			return err
		}
		if err = d.eventLog.AddLog(txCtx, eventlog.EventLogEntry{
			Identity:   tx.Identity.Account(),
			Height:     head,
			EntryType:  entryType,
			Name:       tx.Name,
			ValidUntil: entry.ValidUntil,
		}); err != nil {
			return err
		}
		return d.eventLog.AddLog(txCtx, eventlog.EventLogEntry{
			Identity:   tx.Identity.Account(),
			Height:     head,
			EntryType:  eventlog.EntryTypeTransactionExecuted,
			Name:       tx.Name,
			ValidUntil: entry.ValidUntil,
			Signer:     tx.Signer.Account(),
		})
	})
}

func (d *didRegistry) OwnerOf(ctx context.Context, identity crypto.PubKey) (owner string, err error) {
	return d.ownership.OwnerOf(ctx, identity)
}

func (d *didRegistry) IsOwner(ctx context.Context, identity, candidate crypto.PubKey) (err error) {
	return d.ownership.IsOwner(ctx, identity, candidate)
}

func (d *didRegistry) ValidDelegate(ctx context.Context, identity, delegate crypto.PubKey, kind string) (err error) {
	return d.delegation.IsValid(ctx, identity, delegate, kind, d.chainClock.Head())
}

func (d *didRegistry) ValidAttribute(ctx context.Context, identity crypto.PubKey, name string, value []byte) (err error) {
	return d.attribute.IsValid(ctx, identity, name, value, d.chainClock.Head())
}

func (d *didRegistry) ValidSigner(ctx context.Context, identity crypto.PubKey, signature, message []byte, signer crypto.PubKey) (err error) {
	return d.authorizer.ValidSigner(ctx, identity, signature, message, signer, d.chainClock.Head())
}

func (d *didRegistry) CheckSignature(signature, message []byte, signer crypto.PubKey) (err error) {
	return d.authorizer.CheckSignature(signature, message, signer)
}

func (d *didRegistry) NonceOf(ctx context.Context, identity crypto.PubKey, name string) (nonce uint64, err error) {
	return d.attribute.NonceOf(ctx, identity, name)
}

func (d *didRegistry) Delegates(ctx context.Context, identity crypto.PubKey) (entries []delegation.DelegateEntry, err error) {
	return d.delegation.List(ctx, identity)
}

func (d *didRegistry) Attribute(ctx context.Context, identity crypto.PubKey, name string) (entry attribute.AttributeEntry, err error) {
	return d.attribute.Get(ctx, identity, name)
}

func (d *didRegistry) caller(ctx context.Context) (pubKey crypto.PubKey, err error) {
	pubKey, err = peer.CtxPubKey(ctx)
	if err != nil {
		log.Debug("mutation without authenticated origin", zap.Error(err))
		return nil, ErrForbidden
	}
	return
}
