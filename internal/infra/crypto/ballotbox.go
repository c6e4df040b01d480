package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"voteaudit/internal/domain"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

const (
	BallotKeySize   = curve25519.PointSize
	BallotNonceSize = 12
	ballotAESKeyLen = 32
)

// BallotBox seals ballots to a poll's X25519 key. A sealed ballot is
// ephemeral public key (32) || nonce (12) || AES-GCM ciphertext.
type BallotBox struct {
	Rand io.Reader
}

func NewBallotBox() *BallotBox {
	return &BallotBox{Rand: rand.Reader}
}

func (b *BallotBox) Encrypt(pollKey, plaintext []byte) ([]byte, error) {
	if len(pollKey) != BallotKeySize {
		return nil, fmt.Errorf("%w: poll key length %d", domain.ErrInvalidPublicKey, len(pollKey))
	}
	ephemeral := make([]byte, curve25519.ScalarSize)
	if _, err := io.ReadFull(b.random(), ephemeral); err != nil {
		return nil, fmt.Errorf("generate ephemeral key: %w", err)
	}
	ephemeralPub, err := curve25519.X25519(ephemeral, curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	shared, err := curve25519.X25519(ephemeral, pollKey)
	if err != nil {
		return nil, fmt.Errorf("key agreement: %w", err)
	}
	aead, err := newBallotAEAD(shared)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, BallotNonceSize)
	if _, err := io.ReadFull(b.random(), nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, BallotKeySize+BallotNonceSize+len(plaintext)+aead.Overhead())
	out = append(out, ephemeralPub...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

func (b *BallotBox) Decrypt(privateKey, sealed []byte) ([]byte, error) {
	if len(privateKey) != curve25519.ScalarSize {
		return nil, fmt.Errorf("%w: private key length %d", domain.ErrDecryption, len(privateKey))
	}
	if len(sealed) < BallotKeySize+BallotNonceSize {
		return nil, fmt.Errorf("%w: payload too short", domain.ErrDecryption)
	}
	ephemeralPub := sealed[:BallotKeySize]
	nonce := sealed[BallotKeySize : BallotKeySize+BallotNonceSize]
	shared, err := curve25519.X25519(privateKey, ephemeralPub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	aead, err := newBallotAEAD(shared)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, sealed[BallotKeySize+BallotNonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	return plaintext, nil
}

func (b *BallotBox) EncryptBase64(pollKey, plaintext []byte) (string, error) {
	sealed, err := b.Encrypt(pollKey, plaintext)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (b *BallotBox) DecryptBase64(privateKey []byte, payload string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: payload encoding: %v", domain.ErrDecryption, err)
	}
	return b.Decrypt(privateKey, sealed)
}

// GenerateKey returns a fresh X25519 key pair for a poll's ballot box.
func (b *BallotBox) GenerateKey() (privateKey, publicKey []byte, err error) {
	privateKey = make([]byte, curve25519.ScalarSize)
	if _, err := io.ReadFull(b.random(), privateKey); err != nil {
		return nil, nil, err
	}
	publicKey, err = curve25519.X25519(privateKey, curve25519.Basepoint)
	if err != nil {
		return nil, nil, err
	}
	return privateKey, publicKey, nil
}

func (b *BallotBox) random() io.Reader {
	if b == nil || b.Rand == nil {
		return rand.Reader
	}
	return b.Rand
}

func newBallotAEAD(shared []byte) (cipher.AEAD, error) {
	key := make([]byte, ballotAESKeyLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, nil, nil), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
