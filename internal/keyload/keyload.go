// Package keyload retrieves the sequencer's signing identity from its
// process environment. Absence of the configured key is a fatal boot
// error; this package never invents a substitute identity.
package keyload

import (
	"fmt"
	"os"
	"sync"

	"github.com/sergerad/nolemma/internal/signer"
)

// KeyEnvVar is the default environment variable holding the sequencer's
// secp256k1 secret key as hex text.
const KeyEnvVar = "SEQUENCER_KEY"

var (
	mu        sync.Mutex
	cachedKey *signer.Signer
)

// Get returns the sequencer's Signer, parsed from the named environment
// variable. The result is cached after the first successful call; errors
// are not cached, so a caller can retry after fixing a malformed or
// missing key.
func Get(keyEnvVar string) (*signer.Signer, error) {
	mu.Lock()
	defer mu.Unlock()

	if cachedKey != nil {
		return cachedKey, nil
	}
	s, err := load(keyEnvVar)
	if err != nil {
		return nil, err
	}
	cachedKey = s
	return cachedKey, nil
}

func load(keyEnvVar string) (*signer.Signer, error) {
	raw := os.Getenv(keyEnvVar)
	if raw == "" {
		return nil, fmt.Errorf("keyload: %s is not set", keyEnvVar)
	}
	s, err := signer.NewFromHex(raw)
	if err != nil {
		return nil, fmt.Errorf("keyload: parse %s: %w", keyEnvVar, err)
	}
	return s, nil
}
