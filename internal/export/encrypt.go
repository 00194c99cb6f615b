package export

import (
	"fmt"
	"io"
	"strings"

	"filippo.io/age"

	"github.com/Veraticus/spice-dashboard/internal/common"
)

// ParseRecipients parses age X25519 public keys ("age1...").
func ParseRecipients(keys []string) ([]age.Recipient, error) {
	recipients := make([]age.Recipient, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		r, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidRecipient, err)
		}
		recipients = append(recipients, r)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: none given", common.ErrInvalidRecipient)
	}
	return recipients, nil
}

// Encrypt wraps w so everything written is age-encrypted to recipients.
// The caller must Close the returned writer to flush the final chunk; it
// does not close w.
func Encrypt(w io.Writer, keys []string) (io.WriteCloser, error) {
	recipients, err := ParseRecipients(keys)
	if err != nil {
		return nil, err
	}
	ew, err := age.Encrypt(w, recipients...)
	if err != nil {
		return nil, fmt.Errorf("failed to start encryption: %w", err)
	}
	return ew, nil
}

// Decrypt returns a reader of the plaintext of an age file encrypted to one
// of identities.
func Decrypt(r io.Reader, identities ...age.Identity) (io.Reader, error) {
	pr, err := age.Decrypt(r, identities...)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return pr, nil
}
