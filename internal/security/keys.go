package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"strings"
	"time"
)

// ErrInvalidKey is returned when PEM, key type or HMAC secret is invalid.
var ErrInvalidKey = errors.New("invalid key")

// KeyConfig selects how tokens are signed. PrivateKey/PublicKey (inline PEM or
// file paths) take precedence over Secret.
type KeyConfig struct {
	Secret     string
	PrivateKey string
	PublicKey  string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewTokenProviderFromKeys builds a TokenProvider from kc: RS256/ES256 when a
// key pair is configured, HS256 with Secret otherwise.
func NewTokenProviderFromKeys(kc KeyConfig) (*TokenProvider, error) {
	if strings.TrimSpace(kc.PrivateKey) != "" || strings.TrimSpace(kc.PublicKey) != "" {
		signer, err := ParsePrivateKey(kc.PrivateKey)
		if err != nil {
			return nil, err
		}
		pub, err := ParsePublicKey(kc.PublicKey)
		if err != nil {
			return nil, err
		}
		return NewTokenProvider(signer, pub, kc.Issuer, kc.Audience, kc.AccessTTL, kc.RefreshTTL)
	}
	return NewHMACTokenProvider([]byte(kc.Secret), kc.Issuer, kc.Audience, kc.AccessTTL, kc.RefreshTTL)
}

// LoadPEM returns s as bytes when it is inline PEM and reads the file at s otherwise.
// Escaped newlines ("\n" as two characters, common in env files) are expanded.
func LoadPEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	if strings.HasPrefix(s, "-----BEGIN") {
		return []byte(strings.ReplaceAll(s, `\n`, "\n")), nil
	}
	return os.ReadFile(s)
}

func decodePEM(s string) (*pem.Block, error) {
	pemBytes, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	return block, nil
}

// ParsePrivateKey parses a PEM-encoded RSA or ECDSA private key. s may be inline PEM or a file path.
func ParsePrivateKey(s string) (crypto.Signer, error) {
	block, err := decodePEM(s)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		switch k := key.(type) {
		case *rsa.PrivateKey:
			return k, nil
		case *ecdsa.PrivateKey:
			return k, nil
		}
	}
	return nil, ErrInvalidKey
}

// ParsePublicKey parses a PEM-encoded RSA or ECDSA public key. s may be inline PEM or a file path.
func ParsePublicKey(s string) (crypto.PublicKey, error) {
	block, err := decodePEM(s)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		if KeyAlg(key) == "" {
			return nil, ErrInvalidKey
		}
		return key, nil
	}
	return nil, ErrInvalidKey
}

// KeyAlg returns "RS256" for RSA and "ES256" for ECDSA; empty otherwise.
func KeyAlg(pub crypto.PublicKey) string {
	switch pub.(type) {
	case *rsa.PublicKey:
		return "RS256"
	case *ecdsa.PublicKey:
		return "ES256"
	default:
		return ""
	}
}
