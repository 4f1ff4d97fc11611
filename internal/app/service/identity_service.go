package service

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/0xsj/overwatch-pkg/provenance"
	"github.com/0xsj/overwatch-pkg/security"

	"github.com/0xsj/overwatch-payments/internal/config"
)

// ServiceIdentity holds the service's signing identity. Every published
// payment event is wrapped in an envelope signed with it.
type ServiceIdentity struct {
	identity *provenance.ServiceIdentity
	builder  *provenance.EnvelopeBuilder
}

// NewServiceIdentity loads or generates the identity described by cfg.
func NewServiceIdentity(cfg config.ServiceIdentityConfig) (*ServiceIdentity, error) {
	var (
		identity *provenance.ServiceIdentity
		err      error
	)

	switch {
	case cfg.PrivateKeyBase64 != "":
		identity, err = identityFromKey(cfg.ID, cfg.Name, []byte(cfg.PrivateKeyBase64))
	case cfg.PrivateKeyPath != "":
		var data []byte
		data, err = os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		identity, err = identityFromKey(cfg.ID, cfg.Name, data)
	case cfg.GenerateIfMissing:
		identity, err = provenance.GenerateServiceIdentity(cfg.ID, cfg.Name)
	default:
		return nil, fmt.Errorf("no service identity configured and generation disabled")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load service identity: %w", err)
	}

	builder, err := provenance.NewEnvelopeBuilder(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to create envelope builder: %w", err)
	}

	return &ServiceIdentity{
		identity: identity,
		builder:  builder,
	}, nil
}

func (s *ServiceIdentity) DID() string         { return s.identity.DID() }
func (s *ServiceIdentity) ServiceName() string { return s.identity.ServiceName() }

// PublicKeyBase64 returns the base64-encoded public key.
func (s *ServiceIdentity) PublicKeyBase64() string {
	return base64.StdEncoding.EncodeToString(s.identity.PublicKey())
}

// Seal signs payload as the event identified by eventID. The envelope keeps
// the event's own id and occurrence time.
func (s *ServiceIdentity) Seal(eventID, eventType string, occurredAt time.Time, payload any) ([]byte, error) {
	fields, err := payloadFields(payload)
	if err != nil {
		return nil, err
	}
	env, err := s.builder.BuildWithOptions(eventType, fields, provenance.EnvelopeOptions{
		EventID:    eventID,
		OccurredAt: occurredAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build envelope: %w", err)
	}
	return env.Marshal()
}

// payloadFields decodes payload into the generic form verifiers rebuild
// from the envelope, so the signed bytes match on both ends.
func payloadFields(payload any) (any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	var fields any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return fields, nil
}

// identityFromKey accepts a base64 or raw Ed25519 seed or private key.
func identityFromKey(id, name string, data []byte) (*provenance.ServiceIdentity, error) {
	keyBytes, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		keyBytes = data
	}

	keyPair, err := security.NewEd25519FromSeed(keyBytes)
	if err != nil {
		keyPair, err = security.NewEd25519FromPrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("invalid Ed25519 key: %w", err)
		}
	}
	return provenance.NewServiceIdentity(id, name, keyPair)
}

// WriteNewIdentity generates an identity and prints its DID, public key and
// the private key to configure it with.
func WriteNewIdentity(w io.Writer, serviceName string) error {
	keyPair, err := security.GenerateEd25519()
	if err != nil {
		return fmt.Errorf("failed to generate key pair: %w", err)
	}
	identity, err := provenance.NewServiceIdentity("generated", serviceName, keyPair)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Service: %s\n", serviceName)
	fmt.Fprintf(w, "DID: %s\n", identity.DID())
	fmt.Fprintf(w, "Public Key (base64): %s\n", base64.StdEncoding.EncodeToString(identity.PublicKey()))
	fmt.Fprintf(w, "Private Key (base64): %s\n", base64.StdEncoding.EncodeToString(keyPair.PrivateKeyBytes()))
	fmt.Fprintln(w, "\nSet PAYMENTS_SERVICE_IDENTITY_PRIVATE_KEY to the private key above.")
	return nil
}
