package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMediaTokenSignerRoundTrip(t *testing.T) {
	signer := NewMediaTokenSigner("test-secret", time.Minute)

	token, expiresAt, err := signer.Generate("demo-1", "media/2026/demo-1.mp4")
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	demoID, contentRef, parsedExp, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "demo-1", demoID)
	require.Equal(t, "media/2026/demo-1.mp4", contentRef)
	require.Equal(t, expiresAt.Unix(), parsedExp.Unix())
}

func TestMediaTokenSignerRejectsTampering(t *testing.T) {
	signer := NewMediaTokenSigner("test-secret", time.Minute)

	token, _, err := signer.Generate("demo-1", "media/demo-1.mp4")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token + "x")
	require.Error(t, err)

	other := NewMediaTokenSigner("other-secret", time.Minute)
	_, _, _, err = other.Parse(token)
	require.Error(t, err)
}

func TestMediaTokenSignerExpiry(t *testing.T) {
	signer := NewMediaTokenSigner("test-secret", time.Minute)
	signer.ttl = -time.Minute

	token, _, err := signer.Generate("demo-1", "media/demo-1.mp4")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token)
	require.Error(t, err)
}

func TestMediaTokenSignerRequiresInput(t *testing.T) {
	signer := NewMediaTokenSigner("test-secret", time.Minute)

	_, _, err := signer.Generate("", "ref")
	require.Error(t, err)
	_, _, err = signer.Generate("demo-1", "")
	require.Error(t, err)
}
