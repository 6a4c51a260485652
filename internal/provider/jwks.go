package provider

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/dom/auth-gateway/internal/domain"
)

const (
	jwksCacheTTL     = time.Hour
	jwksFetchTimeout = 10 * time.Second
)

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

// KeySet fetches and caches a provider's JWKS document. Refresh is
// lazy and synchronized: expiry triggers a single re-fetch under the
// lock, and the previous keys keep serving if that fetch fails.
type KeySet struct {
	url    string
	client *http.Client

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func NewKeySet(url string) *KeySet {
	return &KeySet{
		url:    url,
		client: &http.Client{Timeout: jwksFetchTimeout},
	}
}

// Key returns the RSA public key with the given key id, refreshing the
// cache when it is older than an hour or the kid is unknown.
func (s *KeySet) Key(kid string) (*rsa.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := time.Since(s.fetchedAt) < jwksCacheTTL
	if fresh {
		if key, ok := s.keys[kid]; ok {
			return key, nil
		}
	}

	if err := s.refreshLocked(); err != nil {
		// A stale key is still better than an outage.
		if key, ok := s.keys[kid]; ok {
			return key, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	key, ok := s.keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: unknown signing key", domain.ErrInvalidAssertion)
	}
	return key, nil
}

func (s *KeySet) refreshLocked() error {
	resp, err := s.client.Get(s.url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks endpoint returned status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decoding jwks document: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		key, err := parseRSAKey(k)
		if err != nil {
			return fmt.Errorf("parsing jwks key %q: %w", k.Kid, err)
		}
		keys[k.Kid] = key
	}

	s.keys = keys
	s.fetchedAt = time.Now()
	return nil
}

func parseRSAKey(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}

	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}
