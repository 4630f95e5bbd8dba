package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// LoadPrivateKeyFromHex loads an ECDSA private key from hex string
func LoadPrivateKeyFromHex(hexKey string) (*ecdsa.PrivateKey, error) {
	// Remove 0x prefix
	hexKey = strings.TrimPrefix(hexKey, "0x")

	keyBytes, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex key: %v", err)
	}

	privateKey := new(ecdsa.PrivateKey)
	privateKey.Curve = elliptic.P256()
	privateKey.D = new(big.Int).SetBytes(keyBytes)

	// Calculate public key
	privateKey.PublicKey.X, privateKey.PublicKey.Y = privateKey.Curve.ScalarBaseMult(keyBytes)

	return privateKey, nil
}

// GeneratePrivateKey generates a new ECDSA private key
func GeneratePrivateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}

// PrivateKeyToHex converts a private key to hex string
func PrivateKeyToHex(privateKey *ecdsa.PrivateKey) string {
	keyBytes := privateKey.D.Bytes()
	return hex.EncodeToString(keyBytes)
}

// LoadPublicKeyFromHex loads an ECDSA public key from hex string
func LoadPublicKeyFromHex(hexKey string) (*ecdsa.PublicKey, error) {
	hexKey = strings.TrimPrefix(hexKey, "0x")

	keyBytes, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex key: %v", err)
	}

	if len(keyBytes) != 64 {
		return nil, fmt.Errorf("invalid public key length: %d", len(keyBytes))
	}

	publicKey := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(keyBytes[:32]),
		Y:     new(big.Int).SetBytes(keyBytes[32:]),
	}

	if !publicKey.Curve.IsOnCurve(publicKey.X, publicKey.Y) {
		return nil, fmt.Errorf("point is not on curve")
	}

	return publicKey, nil
}

// PublicKeyToHex converts a public key to hex string
func PublicKeyToHex(publicKey *ecdsa.PublicKey) string {
	x := publicKey.X.Bytes()
	y := publicKey.Y.Bytes()

	// Pad to 32 bytes
	for len(x) < 32 {
		x = append([]byte{0}, x...)
	}
	for len(y) < 32 {
		y = append([]byte{0}, y...)
	}

	return hex.EncodeToString(append(x, y...))
}

// SignData signs data with ECDSA private key
func SignData(privateKey *ecdsa.PrivateKey, data []byte) (string, error) {
	hash := sha256.Sum256(data)

	r, s, err := ecdsa.Sign(rand.Reader, privateKey, hash[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign data: %v", err)
	}

	// Encode r and s as fixed-width hex
	signature := append(pad32(r.Bytes()), pad32(s.Bytes())...)
	return hex.EncodeToString(signature), nil
}

func pad32(b []byte) []byte {
	for len(b) < 32 {
		b = append([]byte{0}, b...)
	}
	return b
}

// VerifySignature verifies ECDSA signature
func VerifySignature(publicKey *ecdsa.PublicKey, data []byte, signature string) (bool, error) {
	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return false, fmt.Errorf("failed to decode signature: %v", err)
	}

	if len(sigBytes) != 64 {
		return false, fmt.Errorf("invalid signature length: %d", len(sigBytes))
	}

	r := new(big.Int).SetBytes(sigBytes[:32])
	s := new(big.Int).SetBytes(sigBytes[32:])

	hash := sha256.Sum256(data)

	valid := ecdsa.Verify(publicKey, hash[:], r, s)
	return valid, nil
}

// HashData computes SHA256 hash of data
func HashData(data []byte) []byte {
	hash := sha256.Sum256(data)
	return hash[:]
}

// HashDataHex computes SHA256 hash and returns hex string
func HashDataHex(data []byte) string {
	hash := HashData(data)
	return hex.EncodeToString(hash)
}

// MintVerificationID derives the verification identifier for a verified sample.
// The identifier is the SHA256 hex digest of the concatenated metal type, weight,
// purity and verification timestamp, so the same claim verified at the same
// instant always mints the same identifier.
func MintVerificationID(metalType int, weightGrams, purity float64, timestamp string) string {
	payload := strconv.Itoa(metalType) +
		strconv.FormatFloat(weightGrams, 'f', -1, 64) +
		strconv.FormatFloat(purity, 'f', -1, 64) +
		timestamp
	return HashDataHex([]byte(payload))
}
