package main

import (
	"context"
	"flag"
	"strings"

	cryptoinfra "voteaudit/internal/infra/crypto"
	"voteaudit/internal/infra/orgkey"
	"voteaudit/internal/usecase"
)

func (c *cli) runEncrypt(args []string) int {
	fs := flag.NewFlagSet("encrypt", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var pollPath string
	var orgB64 string
	var vote string
	var outPath string

	fs.StringVar(&pollPath, "poll", "", "poll JSON file carrying crypt_key and crypt_signature")
	fs.StringVar(&orgB64, "org-pubkey-base64", "", "organization public key (base64)")
	fs.StringVar(&vote, "vote", "", "ballot JSON, or @file")
	fs.StringVar(&outPath, "out", "", "output path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if pollPath == "" || orgB64 == "" || vote == "" {
		return c.errorf("encrypt requires --poll, --org-pubkey-base64 and --vote")
	}

	poll, err := readPoll(pollPath)
	if err != nil {
		return c.errorf("read poll: %v", err)
	}
	keys := orgkey.New()
	if err := keys.SetBase64(orgB64); err != nil {
		return c.errorf("parse organization key: %v", err)
	}
	plaintext, err := argOrFile(vote)
	if err != nil {
		return c.errorf("read vote: %v", err)
	}

	uc := &usecase.EncryptBallot{
		Keys:   keys,
		Crypto: cryptoinfra.NewService(),
		Box:    cryptoinfra.NewBallotBox(),
	}
	payload, err := uc.Execute(context.Background(), poll, plaintext)
	if err != nil {
		return c.errorf("encrypt ballot: %v", err)
	}
	if err := writeOutput(c.stdout, outPath, []byte(payload+"\n")); err != nil {
		return c.errorf("write payload: %v", err)
	}
	return exitOK
}

func (c *cli) runDecrypt(args []string) int {
	fs := flag.NewFlagSet("decrypt", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var keyB64 string
	var in string
	var outPath string

	fs.StringVar(&keyB64, "key-base64", "", "poll X25519 private key (base64)")
	fs.StringVar(&in, "in", "", "base64 payload, or @file")
	fs.StringVar(&outPath, "out", "", "output path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if keyB64 == "" || in == "" {
		return c.errorf("decrypt requires --key-base64 and --in")
	}

	privateKey, err := cryptoinfra.DecodeBallotKeyBase64(keyB64)
	if err != nil {
		return c.errorf("parse private key: %v", err)
	}
	payload, err := argOrFile(in)
	if err != nil {
		return c.errorf("read payload: %v", err)
	}
	plaintext, err := cryptoinfra.NewBallotBox().DecryptBase64(privateKey, strings.TrimSpace(string(payload)))
	if err != nil {
		return c.errorf("decrypt ballot: %v", err)
	}
	if err := writeOutput(c.stdout, outPath, plaintext); err != nil {
		return c.errorf("write plaintext: %v", err)
	}
	return exitOK
}
