package service

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/0xsj/overwatch-pkg/errors"
	"github.com/0xsj/overwatch-pkg/log"
	"github.com/golang-jwt/jwt/v5"

	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

// TrustConfigFile is the name of the directory server trust file inside a
// version directory.
const TrustConfigFile = "ds_certificates.json"

// Signature algorithms an ACS may use for its signed content.
var acsSigningMethods = []string{jwt.SigningMethodES256.Alg(), jwt.SigningMethodPS256.Alg()}

type trustConfig struct {
	DirectoryServerInfo map[string]directoryServerInfo `json:"directoryServerInfo"`
}

type directoryServerInfo struct {
	CARootCertificates []string `json:"caRootCertificates"`
}

// CertificateValidator re-verifies ACS signed content against the directory
// server roots of the session's trust version.
type CertificateValidator struct {
	dir    string
	logger log.Logger

	mu    sync.RWMutex
	pools map[string]map[string]*x509.CertPool
}

// NewCertificateValidator creates a validator reading trust files from dir.
func NewCertificateValidator(dir string, logger log.Logger) *CertificateValidator {
	return &CertificateValidator{
		dir:    dir,
		logger: logger.With(log.Component("certificate_validator")),
		pools:  make(map[string]map[string]*x509.CertPool),
	}
}

// Validate returns the status the caller should keep after checking the
// ACS signed content. status is returned unchanged when the content verifies.
func (v *CertificateValidator) Validate(session *model.StoredSession, signedContent string, status model.ChallengeStatus) model.ChallengeStatus {
	version := session.Features.TrustVersion()

	roots, err := v.rootsFor(version)
	if err != nil {
		v.integrationError(session, domainerror.CodeTrustConfigUnavailable, err)
		return model.ChallengeStatusFailed
	}

	pool, ok := roots[strings.ToLower(session.PaymentMethodType)]
	if !ok {
		v.integrationError(session, domainerror.CodeDirectoryServerInfoNotFound,
			fmt.Errorf("no directory server info for %q in trust version %s", session.PaymentMethodType, version))
		return model.ChallengeStatusFailed
	}

	if err := VerifySignedContent(signedContent, pool, session.IsEmulatorScenario()); err != nil {
		v.integrationError(session, domainerror.CodeACSSignatureInvalid, err)
		return model.ChallengeStatusUnknown
	}
	return status
}

func (v *CertificateValidator) integrationError(session *model.StoredSession, code errors.Code, err error) {
	v.logger.Error("certificate validation failed",
		log.String("integration_error", code.String()),
		log.String("session_id", session.ID),
		log.String("payment_method_type", session.PaymentMethodType),
		log.Err(err),
	)
}

func (v *CertificateValidator) rootsFor(version string) (map[string]*x509.CertPool, error) {
	v.mu.RLock()
	roots, ok := v.pools[version]
	v.mu.RUnlock()
	if ok {
		return roots, nil
	}

	roots, err := LoadTrustRoots(filepath.Join(v.dir, version, TrustConfigFile))
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.pools[version] = roots
	v.mu.Unlock()
	return roots, nil
}

// LoadTrustRoots reads a trust file into one root pool per payment method
// type. Keys are lower-cased.
func LoadTrustRoots(path string) (map[string]*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trust config: %w", err)
	}

	var cfg trustConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse trust config: %w", err)
	}

	out := make(map[string]*x509.CertPool, len(cfg.DirectoryServerInfo))
	for pmType, info := range cfg.DirectoryServerInfo {
		pool := x509.NewCertPool()
		for i, encoded := range info.CARootCertificates {
			cert, err := parseBase64Certificate(encoded)
			if err != nil {
				return nil, fmt.Errorf("failed to parse root %d of %s: %w", i, pmType, err)
			}
			pool.AddCert(cert)
		}
		out[strings.ToLower(pmType)] = pool
	}
	return out, nil
}

// VerifySignedContent checks a compact JWS whose x5c header carries the
// signing certificate followed by its intermediates. The chain must lead to
// one of roots unless skipChain is set.
func VerifySignedContent(signedContent string, roots *x509.CertPool, skipChain bool) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods(acsSigningMethods),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.Parse(signedContent, func(t *jwt.Token) (interface{}, error) {
		chain, err := certificateChain(t.Header["x5c"])
		if err != nil {
			return nil, err
		}
		leaf := chain[0]
		if skipChain {
			return leaf.PublicKey, nil
		}

		intermediates := x509.NewCertPool()
		for _, cert := range chain[1:] {
			intermediates.AddCert(cert)
		}
		if _, err := leaf.Verify(x509.VerifyOptions{
			Roots:         roots,
			Intermediates: intermediates,
			KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
		}); err != nil {
			return nil, fmt.Errorf("failed to build certificate chain: %w", err)
		}
		return leaf.PublicKey, nil
	})
	if err != nil {
		return fmt.Errorf("failed to verify signed content: %w", err)
	}
	return nil
}

func certificateChain(header interface{}) ([]*x509.Certificate, error) {
	raw, ok := header.([]interface{})
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("missing x5c header")
	}
	chain := make([]*x509.Certificate, 0, len(raw))
	for i, entry := range raw {
		encoded, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("x5c entry %d is not a string", i)
		}
		cert, err := parseBase64Certificate(encoded)
		if err != nil {
			return nil, fmt.Errorf("x5c entry %d: %w", i, err)
		}
		chain = append(chain, cert)
	}
	return chain, nil
}

func parseBase64Certificate(encoded string) (*x509.Certificate, error) {
	der, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return x509.ParseCertificate(der)
}
