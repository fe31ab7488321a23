package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/mrz1836/injecteur/internal/crypto"
	"github.com/mrz1836/injecteur/internal/errors"
)

// sealedEntry is the shape of an encrypted field in a credential file:
//
//	mot_de_passe:
//	  crypte: true
//	  valeur: {key_aes: ..., iv_base64: ..., data_base64: ...}
type sealedEntry struct {
	Encrypted bool               `mapstructure:"crypte"`
	Value     crypto.SealedValue `mapstructure:"valeur"`
}

// loadCredentials reads the ISAC user file and returns the fields of the
// active platform's section, with encrypted entries decrypted.
func loadCredentials(usersPath, user, platform string) (map[string]any, error) {
	path := CredentialsPath(usersPath, user)
	doc, err := LoadYAMLFile(path)
	if err != nil {
		return nil, err
	}

	section, ok := doc[platform].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %q section", errors.ErrCredentialsNotFound, path, platform)
	}

	out := make(map[string]any, len(section))
	for key, raw := range section {
		switch value := raw.(type) {
		case string:
			out[key] = value
		case map[string]any:
			plain, err := openEntry(value)
			if err != nil {
				return nil, errors.Wrapf(err, "credential %s.%s", user, key)
			}
			out[key] = plain
		default:
			// Scalars other than strings are not credential fields.
		}
	}
	return out, nil
}

// openEntry decrypts a sealed entry, or returns the mapping untouched when
// it is not marked as encrypted.
func openEntry(raw map[string]any) (any, error) {
	var entry sealedEntry
	if err := mapstructure.WeakDecode(raw, &entry); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrDecryptFailed, err)
	}
	if !entry.Encrypted {
		return raw, nil
	}
	return crypto.Decrypt(entry.Value)
}
