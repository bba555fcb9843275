package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bali7319/marketplace-core/internal/domain"
)

const ivLength = 16

// Service implements the credential vault with AES-256-GCM. Tokens are
// laid out as base64(iv):base64(tag):base64(ciphertext).
type Service struct {
	key []byte
}

// NewService derives the 32-byte key from the configured secret: a
// 64-hex-character secret is used directly, anything else goes through
// SHA-256 so operators may supply either a raw key or a passphrase.
func NewService(secret string) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("encryption secret is required")
	}

	if len(secret) == 64 {
		if key, err := hex.DecodeString(secret); err == nil {
			return &Service{key: key}, nil
		}
	}
	sum := sha256.Sum256([]byte(secret))
	return &Service{key: sum[:]}, nil
}

// Encrypt seals plaintext into an iv:tag:ciphertext token.
func (s *Service) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return "", fmt.Errorf("init gcm: %w", err)
	}

	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ct := sealed[:len(sealed)-gcm.Overhead()]
	tag := sealed[len(sealed)-gcm.Overhead():]

	b64 := base64.StdEncoding
	return b64.EncodeToString(iv) + ":" + b64.EncodeToString(tag) + ":" + b64.EncodeToString(ct), nil
}

// Decrypt opens an iv:tag:ciphertext token. A token with the wrong
// number of segments is a decode error; a tag mismatch (wrong key or
// tampered data) is a decrypt error. The input is never returned on
// failure.
func (s *Service) Decrypt(token string) (string, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: token must have 3 segments, got %d", domain.ErrDecrypt, len(parts))
	}

	b64 := base64.StdEncoding
	iv, err := b64.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: bad iv encoding: %v", domain.ErrDecrypt, err)
	}
	tag, err := b64.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: bad tag encoding: %v", domain.ErrDecrypt, err)
	}
	ct, err := b64.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext encoding: %v", domain.ErrDecrypt, err)
	}
	if len(iv) != ivLength {
		return "", fmt.Errorf("%w: iv must be %d bytes, got %d", domain.ErrDecrypt, ivLength, len(iv))
	}

	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return "", fmt.Errorf("init gcm: %w", err)
	}
	if len(tag) != gcm.Overhead() {
		return "", fmt.Errorf("%w: tag must be %d bytes, got %d", domain.ErrDecrypt, gcm.Overhead(), len(tag))
	}

	plaintext, err := gcm.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecrypt, err)
	}
	return string(plaintext), nil
}
