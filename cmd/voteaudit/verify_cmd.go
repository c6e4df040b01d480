package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"voteaudit/internal/domain"
	cryptoinfra "voteaudit/internal/infra/crypto"
	"voteaudit/internal/infra/policyopa"
	"voteaudit/internal/usecase"

	"github.com/sirupsen/logrus"
)

func (c *cli) runVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var inPath string
	var pubHex string
	var pubB64 string
	var policyPath string
	var asJSON bool

	fs.StringVar(&inPath, "in", "", "poll JSON file")
	fs.StringVar(&pubHex, "pubkey-hex", "", "organization public key (hex)")
	fs.StringVar(&pubB64, "pubkey-base64", "", "organization public key (base64)")
	fs.StringVar(&policyPath, "policy", "", "acceptance policy bundle directory")
	fs.BoolVar(&asJSON, "json", false, "print the verification as JSON")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if inPath == "" {
		return c.errorf("verify requires --in")
	}

	orgKey, err := cryptoinfra.ParseOrgPublicKey(pubHex, pubB64)
	if err != nil {
		return c.errorf("parse public key: %v", err)
	}
	poll, err := readPoll(inPath)
	if err != nil {
		return c.errorf("read poll: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(c.stderr)
	logger.SetLevel(logrus.WarnLevel)
	verifier := &usecase.PollVerifier{
		Crypto: cryptoinfra.NewService(),
		Logger: logger,
	}
	ctx := context.Background()
	if policyPath != "" {
		engine, err := policyopa.NewEngineFromBundlePath(ctx, policyPath)
		if err != nil {
			return c.errorf("load policy bundle: %v", err)
		}
		verifier.Policy = engine
	}

	verification := verifier.VerifyPoll(ctx, poll, orgKey)
	if asJSON {
		if err := writeJSON(c.stdout, "", verification); err != nil {
			return c.errorf("write result: %v", err)
		}
	} else {
		fmt.Fprintf(c.stdout, "poll=%d status=%s invalid=%d\n", poll.ID, verification.Outcome(), verification.InvalidCount)
		for _, reason := range verification.Reasons {
			fmt.Fprintf(c.stdout, "reason=%s\n", reason)
		}
		if verification.Policy != nil {
			codes := make([]string, 0, len(verification.Policy.Result.Deny))
			for _, deny := range verification.Policy.Result.Deny {
				codes = append(codes, deny.Code)
			}
			fmt.Fprintf(c.stdout, "policy.allow=%t policy.deny=%s policy.bundle_hash=%s\n",
				verification.Policy.Result.Allow, strings.Join(codes, ","), verification.Policy.BundleHash)
		}
	}

	if verification.Outcome() != domain.OutcomeVerified {
		return exitDiscrepancies
	}
	if verification.Policy != nil && !verification.Policy.Result.Allow {
		return exitDiscrepancies
	}
	return exitOK
}
