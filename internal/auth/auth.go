// Package auth resolves the DeepL auth key from the environment or the OS keychain.
package auth

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const (
	serviceName  = "deepltr"
	deeplAccount = "deepl-auth-key"
	EnvVar       = "DEEPL_AUTH_KEY"
)

// Source names where a key was found.
const (
	SourceKeychain = "Keychain"
	SourceEnv      = "Environment Variable"
)

// GetKey returns the key and the place it came from. The keychain is tried
// first; the environment is consulted only when allowEnv is true. Both
// results are empty when no key is stored.
func GetKey(allowEnv bool) (string, string) {
	key, err := keyring.Get(serviceName, deeplAccount)
	if err == nil && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key), SourceKeychain
	}

	if allowEnv {
		if key, ok := GetEnvKey(); ok {
			return key, SourceEnv
		}
	}

	return "", ""
}

// GetEnvKey reads DEEPL_AUTH_KEY.
func GetEnvKey() (string, bool) {
	key := strings.TrimSpace(os.Getenv(EnvVar))
	if key == "" {
		return "", false
	}
	return key, true
}

// SaveKey stores key in the OS keychain.
func SaveKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("refusing to store an empty key")
	}
	return keyring.Set(serviceName, deeplAccount, key)
}

// DeleteKey removes the stored key. Deleting a missing key is not an error.
func DeleteKey() error {
	err := keyring.Delete(serviceName, deeplAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// HasKey reports whether the keychain holds a key.
func HasKey() bool {
	key, err := keyring.Get(serviceName, deeplAccount)
	return err == nil && key != ""
}

// PromptForKey reads a key from the terminal without echoing it.
func PromptForKey(w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
