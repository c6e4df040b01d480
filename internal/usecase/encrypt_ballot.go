package usecase

import (
	"context"
	"errors"
	"fmt"

	"voteaudit/internal/domain"
)

// EncryptBallot seals one voter's plaintext ballot to a poll's verified
// crypt_key.
type EncryptBallot struct {
	Keys   KeyProvider
	Crypto SignatureVerifier
	Box    BallotSealer
}

func (uc *EncryptBallot) Execute(ctx context.Context, poll domain.Poll, plaintext []byte) (string, error) {
	if !poll.HasCryptKeys() {
		return "", domain.ErrKeysNotLoaded
	}
	orgKey, err := uc.Keys.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrKeysNotLoaded, err)
	}
	pollKey, err := uc.Crypto.VerifyCryptKey(poll, orgKey)
	if err != nil {
		if errors.Is(err, domain.ErrKeysNotLoaded) || errors.Is(err, domain.ErrKeysNotVerified) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", domain.ErrKeysNotVerified, err)
	}
	payload, err := uc.Box.EncryptBase64(pollKey, plaintext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEncryption, err)
	}
	return payload, nil
}
