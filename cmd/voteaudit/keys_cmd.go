package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"flag"

	cryptoinfra "voteaudit/internal/infra/crypto"
)

// keyMaterial is fixture material for one organization and one poll.
type keyMaterial struct {
	OrgPublicKeyBase64  string `json:"org_public_key_base64"`
	OrgPrivateKeyBase64 string `json:"org_private_key_base64"`
	CryptKey            string `json:"crypt_key"`
	CryptSignature      string `json:"crypt_signature"`
	PollPrivateKey      string `json:"poll_private_key_base64"`
}

func (c *cli) runKeysGenerate(args []string) int {
	fs := flag.NewFlagSet("keys generate", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var outPath string
	fs.StringVar(&outPath, "out", "", "output path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return exitError
	}

	orgPub, orgPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return c.errorf("generate organization key: %v", err)
	}
	pollPriv, pollPub, err := cryptoinfra.NewBallotBox().GenerateKey()
	if err != nil {
		return c.errorf("generate poll key: %v", err)
	}

	material := keyMaterial{
		OrgPublicKeyBase64:  base64.StdEncoding.EncodeToString(orgPub),
		OrgPrivateKeyBase64: base64.StdEncoding.EncodeToString(orgPriv.Seed()),
		CryptKey:            base64.StdEncoding.EncodeToString(pollPub),
		CryptSignature:      cryptoinfra.NewService().SignBase64(pollPub, orgPriv),
		PollPrivateKey:      base64.StdEncoding.EncodeToString(pollPriv),
	}
	if err := writeJSON(c.stdout, outPath, material); err != nil {
		return c.errorf("write keys: %v", err)
	}
	return exitOK
}
