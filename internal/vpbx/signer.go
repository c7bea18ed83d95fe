package vpbx

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
)

// Credentials are issued by the provider per VPBX.
// Salt is never transmitted; it only feeds the signature.
type Credentials struct {
	APIKey string
	Salt   string
}

func (c Credentials) Valid() bool {
	return c.APIKey != "" && c.Salt != ""
}

// Signer computes sha256(apiKey + payload + salt) as lowercase hex.
type Signer struct {
	creds Credentials
}

func NewSigner(creds Credentials) *Signer {
	return &Signer{creds: creds}
}

func (s *Signer) APIKey() string { return s.creds.APIKey }

// Sign signs payload. Strings, byte slices and json.RawMessage are signed as-is;
// anything else is JSON encoded first (see canonicalJSON).
func (s *Signer) Sign(payload any) (string, error) {
	if !s.creds.Valid() {
		return "", ErrMissingCredentials
	}
	data, err := payloadBytes(payload)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(s.creds.APIKey))
	h.Write(data)
	h.Write([]byte(s.creds.Salt))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify reports whether claimed is the signature of payload.
func (s *Signer) Verify(payload any, claimed string) (bool, error) {
	want, err := s.Sign(payload)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(claimed)) == 1, nil
}

func payloadBytes(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		return canonicalJSON(v)
	}
}
