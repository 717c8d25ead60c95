package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MediaTokenSigner creates and validates signed media view tokens. The token
// carries the demo id and the opaque content handle; the media service that
// actually streams the bytes verifies the signature with the shared secret.
type MediaTokenSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewMediaTokenSigner constructs a signer with the provided secret and TTL.
func NewMediaTokenSigner(secret string, ttl time.Duration) *MediaTokenSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MediaTokenSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Generate returns a signed token referencing the demo and its content handle.
func (s *MediaTokenSigner) Generate(demoID, contentRef string) (string, time.Time, error) {
	if demoID == "" || contentRef == "" {
		return "", time.Time{}, fmt.Errorf("demoID and contentRef required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	encodedRef := base64.RawURLEncoding.EncodeToString([]byte(contentRef))
	payload := fmt.Sprintf("%s|%d|%s", demoID, expiresAt.Unix(), encodedRef)
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))
	token := strings.Join([]string{demoID, strconv.FormatInt(expiresAt.Unix(), 10), encodedRef, signature}, ".")
	return token, expiresAt, nil
}

// Parse validates a token and returns the embedded metadata.
func (s *MediaTokenSigner) Parse(token string) (demoID, contentRef string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, fmt.Errorf("invalid token format")
	}
	demoID = parts[0]
	ts := parts[1]
	encodedRef := parts[2]
	signature := parts[3]

	rawRef, err := base64.RawURLEncoding.DecodeString(encodedRef)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode content ref: %w", err)
	}

	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("parse expiry: %w", err)
	}
	expiresAt = time.Unix(expUnix, 0)

	payload := fmt.Sprintf("%s|%s|%s", demoID, ts, encodedRef)
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", "", time.Time{}, fmt.Errorf("invalid token signature")
	}
	if time.Now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}

	return demoID, string(rawRef), expiresAt, nil
}
