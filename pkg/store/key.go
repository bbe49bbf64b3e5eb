package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	lenPrefix = 4
	seqSize   = 8
	// bbolt rejects keys above this size.
	maxKeySize = 32768
)

var (
	ErrKeyTooLong   = errors.New("store: key too long")
	ErrMalformedKey = errors.New("store: malformed key")
)

// HeadwordPrefix returns the part of a key shared by every dictionary's
// record for headword. Scanning it never reaches a longer headword that
// merely starts with the same text.
func HeadwordPrefix(headword string) []byte {
	b := make([]byte, lenPrefix, lenPrefix+len(headword))
	binary.BigEndian.PutUint32(b, uint32(len(headword)))
	return append(b, headword...)
}

// EncodeKey builds the key of one dictionary's record for headword.
func EncodeKey(headword, dict string) ([]byte, error) {
	if len(headword) > math.MaxUint32 || lenPrefix+len(headword)+len(dict)+seqSize > maxKeySize {
		return nil, fmt.Errorf("%w: %d byte headword, %d byte dictionary name", ErrKeyTooLong, len(headword), len(dict))
	}
	return append(HeadwordPrefix(headword), dict...), nil
}

// DecodeKey splits a key produced by EncodeKey.
func DecodeKey(key []byte) (headword, dict string, err error) {
	if len(key) < lenPrefix {
		return "", "", fmt.Errorf("%w: %d bytes", ErrMalformedKey, len(key))
	}
	n := binary.BigEndian.Uint32(key)
	if uint64(n) > uint64(len(key)-lenPrefix) {
		return "", "", fmt.Errorf("%w: headword length %d exceeds key", ErrMalformedKey, n)
	}
	return string(key[lenPrefix : lenPrefix+int(n)]), string(key[lenPrefix+int(n):]), nil
}

func pendingKey(key []byte, seq uint64) []byte {
	pk := make([]byte, len(key)+seqSize)
	copy(pk, key)
	binary.BigEndian.PutUint64(pk[len(key):], seq)
	return pk
}

// baseOf strips the sequence number off a pending operand key.
func baseOf(pk []byte) []byte { return pk[:len(pk)-seqSize] }
