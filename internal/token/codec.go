// Package token builds and verifies session tokens.
//
// A token has three base64url parts separated by dots: the decimal user id,
// the big-endian session id and the session signature. The signature is an
// HMAC-SHA256 of "{user_id}.{session_id}" keyed with the per-user session key.
package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/yepcord/server-sub002/internal/model"
)

// Parsed is a decoded token. Parsing does not touch the database, so a
// Parsed token is not yet authenticated.
type Parsed struct {
	UserID    int64
	SessionID int64
	Signature string
}

// Format renders a token from its parts.
func Format(userID, sessionID int64, signature string) string {
	var sid [8]byte
	binary.BigEndian.PutUint64(sid[:], uint64(sessionID))

	return encode([]byte(strconv.FormatInt(userID, 10))) + "." +
		encode(sid[:]) + "." +
		encode([]byte(signature))
}

// Parse splits and decodes a token. It fails with model.ErrMalformedToken when
// the token is not three base64url parts.
func Parse(token string) (Parsed, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Parsed{}, model.ErrMalformedToken
	}

	uid, err := decode(parts[0])
	if err != nil {
		return Parsed{}, model.ErrMalformedToken
	}
	sid, err := decode(parts[1])
	if err != nil || len(sid) == 0 || len(sid) > 8 {
		return Parsed{}, model.ErrMalformedToken
	}
	sig, err := decode(parts[2])
	if err != nil || len(sig) == 0 {
		return Parsed{}, model.ErrMalformedToken
	}

	userID, err := strconv.ParseInt(string(uid), 10, 64)
	if err != nil {
		return Parsed{}, model.ErrMalformedToken
	}

	var padded [8]byte
	copy(padded[8-len(sid):], sid)

	return Parsed{
		UserID:    userID,
		SessionID: int64(binary.BigEndian.Uint64(padded[:])),
		Signature: string(sig),
	}, nil
}

// Sign computes the session signature for userID and sessionID. key is the
// hex encoded session key stored on the user row.
func Sign(key string, userID, sessionID int64) (string, error) {
	rawKey, err := hex.DecodeString(key)
	if err != nil {
		return "", fmt.Errorf("failed to decode session key: %w", err)
	}

	mac := hmac.New(sha256.New, rawKey)
	mac.Write([]byte(strconv.FormatInt(userID, 10) + "." + strconv.FormatInt(sessionID, 10)))

	return encode(mac.Sum(nil)), nil
}

// Verify checks a parsed token against the user's session key and the
// signature stored with the session.
func Verify(p Parsed, key, stored string) error {
	expected, err := Sign(key, p.UserID, p.SessionID)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(p.Signature)) != 1 {
		return model.ErrInvalidSignature
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(p.Signature)) != 1 {
		return model.ErrInvalidSignature
	}
	return nil
}

// NewSessionKey derives a per-user session key by encrypting the first 12
// hex characters of the password hash with AES-128-CBC under the master key
// and a random IV. The result (IV followed by ciphertext) is hex encoded.
func NewSessionKey(masterKey []byte, passwordHash string) (string, error) {
	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}

	payload := []byte(hex.EncodeToString([]byte(passwordHash)))
	if len(payload) > 12 {
		payload = payload[:12]
	}
	payload = pkcs7Pad(payload, aes.BlockSize)

	out := make([]byte, aes.BlockSize+len(payload))
	iv := out[:aes.BlockSize]
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], payload)

	return hex.EncodeToString(out), nil
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	for i := 0; i < n; i++ {
		b = append(b, byte(n))
	}
	return b
}

func encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decode(s string) ([]byte, error) {
	if s == "" {
		return nil, model.ErrMalformedToken
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
