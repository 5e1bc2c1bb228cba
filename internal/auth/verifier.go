// Package auth verifies dashboard bearer tokens and derives what a user may see.
package auth

import (
	"crypto"
	"crypto/hmac"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config selects the verification mode and the claim names to read.
type Config struct {
	Mode             string `mapstructure:"mode"` // dev, hmac or jwks
	HMACSecret       string `mapstructure:"hmac_secret"`
	JWKSURL          string `mapstructure:"jwks_url"`
	UserClaim        string `mapstructure:"user_claim"`
	NameClaim        string `mapstructure:"name_claim"`
	RoleClaim        string `mapstructure:"role_claim"`
	TeamsClaim       string `mapstructure:"teams_claim"`
	DispatchersClaim string `mapstructure:"dispatchers_claim"`
}

// Verifier validates JWTs and extracts the dashboard principal.
// Supports modes: dev (no verify), hmac (HS256), jwks (RS256 from JWKS URL).
type Verifier struct {
	cfg       Config
	secret    []byte
	http      *http.Client
	mu        sync.RWMutex
	jwks      jwks
	lastFetch time.Time
	cacheTTL  time.Duration
	now       func() time.Time
}

type jwks struct {
	Keys []jwk `json:"keys"`
}
type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
	Alg string `json:"alg"`
}

func NewVerifier(cfg Config) *Verifier {
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	if cfg.Mode == "" {
		cfg.Mode = "dev"
	}
	cfg.UserClaim = or(cfg.UserClaim, "sub")
	cfg.NameClaim = or(cfg.NameClaim, "name")
	cfg.RoleClaim = or(cfg.RoleClaim, "role")
	cfg.TeamsClaim = or(cfg.TeamsClaim, "teams")
	cfg.DispatchersClaim = or(cfg.DispatchersClaim, "dispatchers")
	return &Verifier{
		cfg:      cfg,
		secret:   []byte(cfg.HMACSecret),
		http:     &http.Client{Timeout: 5 * time.Second},
		cacheTTL: 10 * time.Minute,
		now:      time.Now,
	}
}

func or(v, d string) string {
	if v != "" {
		return v
	}
	return d
}

// Mode reports the configured verification mode.
func (v *Verifier) Mode() string { return v.cfg.Mode }

// Verify checks the token and returns its principal.
//
// Dev tokens are "user:role[:team1,team2]" and are accepted unverified.
func (v *Verifier) Verify(token string) (Principal, error) {
	if v.cfg.Mode == "dev" {
		parts := strings.SplitN(token, ":", 3)
		if len(parts) < 2 || parts[0] == "" {
			return Principal{}, errors.New("invalid dev token; expected user:role[:teams]")
		}
		p := Principal{User: parts[0], Name: parts[0], Role: normalizeRole(parts[1])}
		if len(parts) == 3 {
			p.Teams = splitList(parts[2])
		}
		return p, nil
	}
	segs := strings.Split(token, ".")
	if len(segs) != 3 {
		return Principal{}, errors.New("invalid JWT")
	}
	headerJSON, err := b64urlDecode(segs[0])
	if err != nil {
		return Principal{}, err
	}
	payloadJSON, err := b64urlDecode(segs[1])
	if err != nil {
		return Principal{}, err
	}
	sig, err := b64urlDecode(segs[2])
	if err != nil {
		return Principal{}, err
	}
	var hdr map[string]any
	if err := json.Unmarshal(headerJSON, &hdr); err != nil {
		return Principal{}, err
	}
	var claims map[string]any
	if err := json.Unmarshal(payloadJSON, &claims); err != nil {
		return Principal{}, err
	}
	alg, _ := hdr["alg"].(string)
	kid, _ := hdr["kid"].(string)
	signingInput := []byte(segs[0] + "." + segs[1])
	switch v.cfg.Mode {
	case "hmac":
		if alg != "HS256" {
			return Principal{}, errors.New("unsupported alg for hmac")
		}
		mac := hmac.New(sha256.New, v.secret)
		mac.Write(signingInput)
		if !hmac.Equal(mac.Sum(nil), sig) {
			return Principal{}, errors.New("bad signature")
		}
	case "jwks":
		if alg != "RS256" {
			return Principal{}, errors.New("unsupported alg for jwks")
		}
		pub, err := v.getRSAPublicKey(kid)
		if err != nil {
			return Principal{}, err
		}
		h := sha256.Sum256(signingInput)
		if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, h[:], sig); err != nil {
			return Principal{}, errors.New("bad signature")
		}
	default:
		return Principal{}, errors.New("unsupported auth mode")
	}
	if exp, ok := claims["exp"].(float64); ok && v.now().Unix() >= int64(exp) {
		return Principal{}, errors.New("token expired")
	}

	user, _ := claims[v.cfg.UserClaim].(string)
	if user == "" {
		return Principal{}, errors.New("missing user claim")
	}
	name, _ := claims[v.cfg.NameClaim].(string)
	if name == "" {
		name = user
	}
	role, _ := claims[v.cfg.RoleClaim].(string)
	return Principal{
		User:        user,
		Name:        name,
		Role:        normalizeRole(role),
		Teams:       claimList(claims[v.cfg.TeamsClaim]),
		Dispatchers: claimList(claims[v.cfg.DispatchersClaim]),
	}, nil
}

// claimList accepts a JSON array of strings or a comma-separated string.
func claimList(c any) []string {
	switch t := c.(type) {
	case string:
		return splitList(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s, ok := x.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func b64urlDecode(s string) ([]byte, error) { return base64.RawURLEncoding.DecodeString(s) }

// get RSAPublicKey from JWKS cache/fetch
func (v *Verifier) getRSAPublicKey(kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	cached := v.jwks
	stale := time.Since(v.lastFetch) > v.cacheTTL
	v.mu.RUnlock()
	if len(cached.Keys) == 0 || stale {
		if err := v.fetchJWKS(); err != nil {
			return nil, err
		}
		v.mu.RLock()
		cached = v.jwks
		v.mu.RUnlock()
	}
	for _, k := range cached.Keys {
		if k.Kid == kid && strings.EqualFold(k.Kty, "RSA") {
			nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
			if err != nil {
				return nil, err
			}
			eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
			if err != nil {
				return nil, err
			}
			e := new(big.Int).SetBytes(eBytes)
			n := new(big.Int).SetBytes(nBytes)
			return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
		}
	}
	return nil, errors.New("kid not found in JWKS")
}

func (v *Verifier) fetchJWKS() error {
	if v.cfg.JWKSURL == "" {
		return errors.New("auth.jwks_url not set")
	}
	req, _ := http.NewRequest(http.MethodGet, v.cfg.JWKSURL, nil)
	resp, err := v.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	var j jwks
	if err := json.NewDecoder(resp.Body).Decode(&j); err != nil {
		return err
	}
	v.mu.Lock()
	v.jwks = j
	v.lastFetch = time.Now()
	v.mu.Unlock()
	return nil
}
