package service

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/0xsj/overwatch-pkg/security"
	"github.com/awnumar/memguard"
	"golang.org/x/crypto/hkdf"
)

const signingKeyLength = 32

var signingKeyInfo = []byte("overwatch-payments/session-signature/v1")

// HMACSessionSigner signs payment sessions with an HMAC-SHA256 key derived
// from the configured secret. The derived key lives in a memguard enclave.
type HMACSessionSigner struct {
	key *memguard.Enclave
}

// NewHMACSessionSigner derives the signing key from secret.
func NewHMACSessionSigner(secret []byte) (*HMACSessionSigner, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("session signing secret must not be empty")
	}
	h := hkdf.New(sha256.New, secret, nil, signingKeyInfo)
	key := make([]byte, signingKeyLength)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	// NewEnclave wipes key.
	return &HMACSessionSigner{key: memguard.NewEnclave(key)}, nil
}

func (s *HMACSessionSigner) Sign(payload []byte) (string, error) {
	var sig string
	err := s.withHMAC(func(h *security.HMAC) error {
		sig = h.SignBase64URL(payload)
		return nil
	})
	return sig, err
}

func (s *HMACSessionSigner) Verify(payload []byte, signature string) error {
	return s.withHMAC(func(h *security.HMAC) error {
		return h.VerifyBase64URL(payload, signature)
	})
}

func (s *HMACSessionSigner) withHMAC(fn func(h *security.HMAC) error) error {
	buf, err := s.key.Open()
	if err != nil {
		return fmt.Errorf("failed to open signing key: %w", err)
	}
	defer buf.Destroy()

	h, err := security.NewHMAC(security.HMACSHA256, buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to create hmac: %w", err)
	}
	return fn(h)
}
