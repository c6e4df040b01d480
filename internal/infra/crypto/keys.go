package crypto

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"voteaudit/internal/domain"
)

// ParseOrgPublicKey accepts an organization key in either base64 or hex;
// exactly one of the arguments must be set.
func ParseOrgPublicKey(hexValue, base64Value string) (ed25519.PublicKey, error) {
	raw, err := decodeOneOf(hexValue, base64Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPublicKey, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: ed25519 key length %d", domain.ErrInvalidPublicKey, len(raw))
	}
	return append(ed25519.PublicKey(nil), raw...), nil
}

// ParseOrgPrivateKey accepts a 32 byte seed or a 64 byte private key.
func ParseOrgPrivateKey(hexValue, base64Value string) (ed25519.PrivateKey, error) {
	raw, err := decodeOneOf(hexValue, base64Value)
	if err != nil {
		return nil, err
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return append(ed25519.PrivateKey(nil), raw...), nil
	default:
		return nil, errors.New("invalid ed25519 private key length")
	}
}

// DecodeOrgPublicKeyBase64 decodes the organization's
// vote_decrypt_public_main_key field.
func DecodeOrgPublicKeyBase64(value string) (ed25519.PublicKey, error) {
	return ParseOrgPublicKey("", value)
}

func DecodeBallotKeyBase64(value string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPublicKey, err)
	}
	if len(raw) != BallotKeySize {
		return nil, fmt.Errorf("%w: x25519 key length %d", domain.ErrInvalidPublicKey, len(raw))
	}
	return raw, nil
}

func decodeOneOf(hexValue, base64Value string) ([]byte, error) {
	hexValue = strings.TrimSpace(hexValue)
	base64Value = strings.TrimSpace(base64Value)
	switch {
	case hexValue != "" && base64Value != "":
		return nil, errors.New("key given twice")
	case hexValue != "":
		return hex.DecodeString(hexValue)
	case base64Value != "":
		return base64.StdEncoding.DecodeString(base64Value)
	default:
		return nil, errors.New("key is required")
	}
}
