package crypto

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	"voteaudit/internal/domain"
)

// Service verifies organization signatures on poll material.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// VerifySignature checks a base64 Ed25519 signature over message.
func (s *Service) VerifySignature(message []byte, signatureB64 string, pubKey []byte) error {
	if len(pubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid ed25519 public key length: %d", len(pubKey))
	}
	if signatureB64 == "" {
		return errors.New("signature value is required")
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("invalid ed25519 signature length: %d", len(sig))
	}
	if !ed25519.Verify(ed25519.PublicKey(pubKey), message, sig) {
		return errors.New("signature verification failed")
	}
	return nil
}

// VerifyVotesSignature checks votes_signature over the exact votes_raw text.
// Failures come back as reasons; it never returns an error.
func (s *Service) VerifyVotesSignature(poll domain.Poll, orgKey []byte) (bool, []string) {
	if err := s.VerifySignature([]byte(poll.VotesRaw), poll.VotesSignature, orgKey); err != nil {
		return false, []string{fmt.Sprintf("signature of raw votes could not be verified: %v", err)}
	}
	return true, nil
}

// VerifyCryptKey checks crypt_signature over the raw crypt_key bytes and
// returns the decoded X25519 poll key.
func (s *Service) VerifyCryptKey(poll domain.Poll, orgKey []byte) ([]byte, error) {
	if !poll.HasCryptKeys() {
		return nil, domain.ErrKeysNotLoaded
	}
	key, err := base64.StdEncoding.DecodeString(poll.CryptKey)
	if err != nil {
		return nil, fmt.Errorf("%w: crypt_key encoding: %v", domain.ErrKeysNotVerified, err)
	}
	if len(key) != BallotKeySize {
		return nil, fmt.Errorf("%w: crypt_key length %d", domain.ErrKeysNotVerified, len(key))
	}
	if err := s.VerifySignature(key, poll.CryptSignature, orgKey); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeysNotVerified, err)
	}
	return key, nil
}

// SignBase64 is the counterpart used by fixtures and the CLI.
func (s *Service) SignBase64(message []byte, privateKey ed25519.PrivateKey) string {
	return base64.StdEncoding.EncodeToString(ed25519.Sign(privateKey, message))
}
