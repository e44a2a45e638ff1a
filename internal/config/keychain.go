package config

import "github.com/zalando/go-keyring"

const (
	keychainService = "channel-signature-bot"
	keychainAccount = "telegram"
)

// TokenSource supplies the bot token when the environment has none.
type TokenSource interface {
	Token() (string, error)
}

// Keychain keeps the bot token in the OS secret store.
type Keychain struct{}

func (Keychain) Token() (string, error) {
	return keyring.Get(keychainService, keychainAccount)
}

func (Keychain) SetToken(token string) error {
	return keyring.Set(keychainService, keychainAccount, token)
}
