package didregistry

import (
	"encoding/binary"
	"fmt"

	"github.com/anyproto/any-sync/util/crypto"
)

// AttributeTransaction is an off-chain signed, caller-relayed attribute
// mutation. The signature covers the canonical encoding of
// (name, value, validUntil, identity), see SigningPayload. ValidUntil is an
// absolute block height, zero turns the transaction into a revoke. Nonce
// must equal the slot's current mutation count at execution time.
type AttributeTransaction struct {
	Identity   crypto.PubKey
	Name       string
	Value      []byte
	ValidUntil uint64
	Nonce      uint64
	Signer     crypto.PubKey
	Signature  []byte
}

// SigningPayload returns the canonical byte encoding covered by the
// transaction signature: length-prefixed name and value, 8 big-endian bytes
// of validUntil, the length-prefixed marshalled identity key. The nonce is
// not part of the payload.
func (tx AttributeTransaction) SigningPayload() (payload []byte, err error) {
	identityRaw, err := tx.Identity.Marshall()
	if err != nil {
		return nil, fmt.Errorf("marshal identity: %w", err)
	}
	payload = make([]byte, 0, 3*lenPrefixSize+8+len(tx.Name)+len(tx.Value)+len(identityRaw))
	payload = appendPrefixed(payload, []byte(tx.Name))
	payload = appendPrefixed(payload, tx.Value)
	payload = binary.BigEndian.AppendUint64(payload, tx.ValidUntil)
	payload = appendPrefixed(payload, identityRaw)
	return payload, nil
}

// ParseSigningPayload decodes a canonical payload back into its fields,
// rejecting truncated input and trailing bytes.
func ParseSigningPayload(payload []byte) (name string, value []byte, validUntil uint64, identity crypto.PubKey, err error) {
	rest := payload
	nameRaw, rest, err := cutPrefixed(rest, "name")
	if err != nil {
		return
	}
	value, rest, err = cutPrefixed(rest, "value")
	if err != nil {
		return
	}
	if len(rest) < 8 {
		err = fmt.Errorf("canonical payload: truncated validUntil")
		return
	}
	validUntil = binary.BigEndian.Uint64(rest)
	identityRaw, rest, err := cutPrefixed(rest[8:], "identity")
	if err != nil {
		return
	}
	if len(rest) != 0 {
		err = fmt.Errorf("canonical payload: %d trailing bytes", len(rest))
		return
	}
	identity, err = crypto.UnmarshalEd25519PublicKeyProto(identityRaw)
	if err != nil {
		err = fmt.Errorf("canonical payload: unmarshal identity: %w", err)
		return
	}
	return string(nameRaw), value, validUntil, identity, nil
}

// NewSignedTransaction builds an AttributeTransaction and signs its canonical
// payload with signKey.
func NewSignedTransaction(signKey crypto.PrivKey, identity crypto.PubKey, name string, value []byte, validUntil, nonce uint64) (tx AttributeTransaction, err error) {
	tx = AttributeTransaction{
		Identity:   identity,
		Name:       name,
		Value:      value,
		ValidUntil: validUntil,
		Nonce:      nonce,
		Signer:     signKey.GetPublic(),
	}
	payload, err := tx.SigningPayload()
	if err != nil {
		return
	}
	if tx.Signature, err = signKey.Sign(payload); err != nil {
		return
	}
	return tx, nil
}

const lenPrefixSize = 4

func appendPrefixed(buf, field []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(field)))
	return append(buf, field...)
}

func cutPrefixed(buf []byte, fieldName string) (field, rest []byte, err error) {
	if len(buf) < lenPrefixSize {
		return nil, nil, fmt.Errorf("canonical payload: truncated %s length", fieldName)
	}
	fieldLen := int(binary.BigEndian.Uint32(buf))
	buf = buf[lenPrefixSize:]
	if len(buf) < fieldLen {
		return nil, nil, fmt.Errorf("canonical payload: %s needs %d bytes, %d left", fieldName, fieldLen, len(buf))
	}
	return buf[:fieldLen], buf[fieldLen:], nil
}
