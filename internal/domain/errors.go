package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrKeysNotLoaded      = errors.New("keys not fully loaded")
	ErrKeysNotVerified    = errors.New("keys could not be verified")
	ErrEncryption         = errors.New("vote encryption failed")
	ErrDecryption         = errors.New("vote decryption failed")
	ErrKeyAlreadySet      = errors.New("organization key already set")
	ErrInvalidPublicKey   = errors.New("invalid public key")
	ErrRawVotesMalformed  = errors.New("raw votes malformed")
	ErrHistoryUnavailable = errors.New("verification history unavailable")
	ErrHistoryBroken      = errors.New("verification history chain broken")
)
