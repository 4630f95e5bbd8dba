package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	data := []byte(`{"sample_id":"s-1","confidence":0.87}`)

	sig, err := SignData(key, data)
	require.NoError(t, err)
	assert.Len(t, sig, 128)

	valid, err := VerifySignature(&key.PublicKey, data, sig)
	require.NoError(t, err)
	assert.True(t, valid)

	// Tampered payload must not verify
	valid, err = VerifySignature(&key.PublicKey, []byte(`{"sample_id":"s-2"}`), sig)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifySignatureRejectsMalformed(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	_, err = VerifySignature(&key.PublicKey, []byte("data"), "not-hex")
	assert.Error(t, err)

	_, err = VerifySignature(&key.PublicKey, []byte("data"), "abcd")
	assert.Error(t, err)
}

func TestPrivateKeyHexRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	hexKey := PrivateKeyToHex(key)
	restored, err := LoadPrivateKeyFromHex("0x" + hexKey)
	require.NoError(t, err)

	assert.Equal(t, 0, key.D.Cmp(restored.D))
	assert.Equal(t, 0, key.PublicKey.X.Cmp(restored.PublicKey.X))
}

func TestPublicKeyHexRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	hexKey := PublicKeyToHex(&key.PublicKey)
	restored, err := LoadPublicKeyFromHex(hexKey)
	require.NoError(t, err)

	assert.Equal(t, 0, key.PublicKey.X.Cmp(restored.X))
	assert.Equal(t, 0, key.PublicKey.Y.Cmp(restored.Y))

	// A signature made with the private key verifies against the restored key
	sig, err := SignData(key, []byte("claim"))
	require.NoError(t, err)

	valid, err := VerifySignature(restored, []byte("claim"), sig)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestMintVerificationID(t *testing.T) {
	id := MintVerificationID(1, 100.0, 0.999, "2025-01-02T03:04:05Z")

	// Deterministic for identical claims and timestamps
	assert.Equal(t, id, MintVerificationID(1, 100.0, 0.999, "2025-01-02T03:04:05Z"))
	assert.Len(t, id, 64)

	// Any change to the claim yields a different identifier
	assert.NotEqual(t, id, MintVerificationID(2, 100.0, 0.999, "2025-01-02T03:04:05Z"))
	assert.NotEqual(t, id, MintVerificationID(1, 100.5, 0.999, "2025-01-02T03:04:05Z"))
	assert.NotEqual(t, id, MintVerificationID(1, 100.0, 0.995, "2025-01-02T03:04:05Z"))
	assert.NotEqual(t, id, MintVerificationID(1, 100.0, 0.999, "2025-01-02T03:04:06Z"))
}
