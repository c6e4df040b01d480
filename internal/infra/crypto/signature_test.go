package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"voteaudit/internal/domain"
)

func newOrgKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return pub, priv
}

func TestVerifyVotesSignatureRoundTrip(t *testing.T) {
	pub, priv := newOrgKey(t)
	service := NewService()
	raw := `{"id":"7","votes":[{"token":"a","votes":{"1":"Y"}}]}`
	poll := domain.Poll{ID: 7, VotesRaw: raw, VotesSignature: service.SignBase64([]byte(raw), priv)}

	ok, reasons := service.VerifyVotesSignature(poll, pub)
	if !ok || len(reasons) != 0 {
		t.Fatalf("expected valid signature, got %v %v", ok, reasons)
	}
}

func TestVerifyVotesSignatureFailures(t *testing.T) {
	pub, priv := newOrgKey(t)
	otherPub, _ := newOrgKey(t)
	service := NewService()
	raw := `{"votes":[]}`
	sig := service.SignBase64([]byte(raw), priv)

	cases := []struct {
		name string
		poll domain.Poll
		key  []byte
	}{
		{"tampered message", domain.Poll{VotesRaw: raw + " ", VotesSignature: sig}, pub},
		{"mismatched key", domain.Poll{VotesRaw: raw, VotesSignature: sig}, otherPub},
		{"bad encoding", domain.Poll{VotesRaw: raw, VotesSignature: "%%%"}, pub},
		{"short signature", domain.Poll{VotesRaw: raw, VotesSignature: base64.StdEncoding.EncodeToString([]byte("x"))}, pub},
		{"short key", domain.Poll{VotesRaw: raw, VotesSignature: sig}, pub[:10]},
		{"missing signature", domain.Poll{VotesRaw: raw}, pub},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reasons := service.VerifyVotesSignature(tc.poll, tc.key)
			if ok {
				t.Fatal("expected verification failure")
			}
			if len(reasons) != 1 || !strings.Contains(reasons[0], "signature of raw votes") {
				t.Fatalf("unexpected reasons: %v", reasons)
			}
		})
	}
}

func TestVerifyCryptKey(t *testing.T) {
	pub, priv := newOrgKey(t)
	service := NewService()
	_, pollPub, err := NewBallotBox().GenerateKey()
	if err != nil {
		t.Fatalf("generate ballot key: %v", err)
	}
	poll := domain.Poll{
		CryptKey:       base64.StdEncoding.EncodeToString(pollPub),
		CryptSignature: service.SignBase64(pollPub, priv),
	}

	key, err := service.VerifyCryptKey(poll, pub)
	if err != nil {
		t.Fatalf("verify crypt key: %v", err)
	}
	if string(key) != string(pollPub) {
		t.Fatal("returned key differs from crypt_key")
	}

	if _, err := service.VerifyCryptKey(domain.Poll{CryptKey: poll.CryptKey}, pub); !errors.Is(err, domain.ErrKeysNotLoaded) {
		t.Fatalf("expected keys not loaded, got %v", err)
	}

	forged := poll
	forged.CryptSignature = service.SignBase64([]byte("other"), priv)
	if _, err := service.VerifyCryptKey(forged, pub); !errors.Is(err, domain.ErrKeysNotVerified) {
		t.Fatalf("expected keys not verified, got %v", err)
	}
}

func TestParseOrgKeys(t *testing.T) {
	pub, priv := newOrgKey(t)
	parsed, err := ParseOrgPublicKey("", base64.StdEncoding.EncodeToString(pub))
	if err != nil || !parsed.Equal(pub) {
		t.Fatalf("parse base64 public key: %v", err)
	}
	if _, err := ParseOrgPublicKey("00", base64.StdEncoding.EncodeToString(pub)); err == nil {
		t.Fatal("expected error when both encodings are given")
	}
	if _, err := ParseOrgPublicKey("", base64.StdEncoding.EncodeToString(pub[:5])); !errors.Is(err, domain.ErrInvalidPublicKey) {
		t.Fatalf("expected invalid public key, got %v", err)
	}
	fromSeed, err := ParseOrgPrivateKey("", base64.StdEncoding.EncodeToString(priv.Seed()))
	if err != nil || !fromSeed.Equal(priv) {
		t.Fatalf("parse seed: %v", err)
	}
}
