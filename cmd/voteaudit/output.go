package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"voteaudit/internal/domain"
)

// argOrFile returns the flag value, or the contents of the named file when
// the value starts with "@".
func argOrFile(value string) ([]byte, error) {
	if strings.HasPrefix(value, "@") {
		return os.ReadFile(strings.TrimPrefix(value, "@"))
	}
	return []byte(value), nil
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func writeJSON(stdout io.Writer, path string, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(stdout, path, append(payload, '\n'))
}

func readPoll(path string) (domain.Poll, error) {
	var poll domain.Poll
	payload, err := os.ReadFile(path)
	if err != nil {
		return poll, err
	}
	if err := json.Unmarshal(payload, &poll); err != nil {
		return poll, err
	}
	return poll, nil
}
