package main

import (
	"fmt"
	"io"
	"path/filepath"
)

const (
	exitOK            = 0
	exitError         = 1
	exitDiscrepancies = 2
)

type cli struct {
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	if len(args) < 2 {
		c.usage(args)
		return exitError
	}

	switch args[1] {
	case "verify":
		return c.runVerify(args[2:])
	case "encrypt":
		return c.runEncrypt(args[2:])
	case "decrypt":
		return c.runDecrypt(args[2:])
	case "keys":
		if len(args) >= 3 && args[2] == "generate" {
			return c.runKeysGenerate(args[3:])
		}
	case "sign":
		return c.runSign(args[2:])
	}

	c.usage(args)
	return exitError
}

func (c *cli) usage(args []string) {
	name := "voteaudit"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(c.stderr, "usage:\n")
	fmt.Fprintf(c.stderr, "  %s verify --in <poll.json> (--pubkey-base64 <b64>|--pubkey-hex <hex>) [--policy <bundle dir>] [--json]\n", name)
	fmt.Fprintf(c.stderr, "  %s encrypt --poll <poll.json> --org-pubkey-base64 <b64> --vote <json|@file> [--out <file>]\n", name)
	fmt.Fprintf(c.stderr, "  %s decrypt --key-base64 <x25519 private key> --in <payload|@file> [--out <file>]\n", name)
	fmt.Fprintf(c.stderr, "  %s keys generate [--out <file>]\n", name)
	fmt.Fprintf(c.stderr, "  %s sign --in <votes_raw.json> (--key-base64 <b64>|--key-hex <hex>) [--out <file>]\n", name)
}

func (c *cli) errorf(format string, args ...any) int {
	fmt.Fprintf(c.stderr, format+"\n", args...)
	return exitError
}
