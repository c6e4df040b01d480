package main

import (
	"flag"
	"os"

	cryptoinfra "voteaudit/internal/infra/crypto"
)

// runSign signs the exact bytes of a votes_raw file.
func (c *cli) runSign(args []string) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var inPath string
	var keyHex string
	var keyB64 string
	var outPath string

	fs.StringVar(&inPath, "in", "", "votes_raw file")
	fs.StringVar(&keyHex, "key-hex", "", "organization private key or seed (hex)")
	fs.StringVar(&keyB64, "key-base64", "", "organization private key or seed (base64)")
	fs.StringVar(&outPath, "out", "", "output path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if inPath == "" {
		return c.errorf("sign requires --in")
	}

	privateKey, err := cryptoinfra.ParseOrgPrivateKey(keyHex, keyB64)
	if err != nil {
		return c.errorf("parse private key: %v", err)
	}
	raw, err := os.ReadFile(inPath)
	if err != nil {
		return c.errorf("read votes: %v", err)
	}
	signature := cryptoinfra.NewService().SignBase64(raw, privateKey)
	if err := writeOutput(c.stdout, outPath, []byte(signature+"\n")); err != nil {
		return c.errorf("write signature: %v", err)
	}
	return exitOK
}
