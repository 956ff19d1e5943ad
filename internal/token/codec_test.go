package token

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yepcord/server-sub002/internal/model"
)

func newKey(t *testing.T) string {
	t.Helper()
	master := make([]byte, 16)
	_, err := rand.Read(master)
	require.NoError(t, err)

	key, err := NewSessionKey(master, "$2a$10$abcdefghijklmnopqrstuv")
	require.NoError(t, err)
	return key
}

func TestFormatParse_Roundtrip(t *testing.T) {
	cases := []Parsed{
		{UserID: 1, SessionID: 1, Signature: "sig"},
		{UserID: 1234567890123456789, SessionID: 9876543210987654321 >> 1, Signature: "a.b-c_d"},
		{UserID: 0, SessionID: 0, Signature: "x"},
	}
	for _, c := range cases {
		got, err := Parse(Format(c.UserID, c.SessionID, c.Signature))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, tok := range []string{
		"",
		"abc",
		"a.b",
		"a.b.c.d",
		"!!!.AAAA.AAAA",
		"MQ..c2ln",
		"bm90LWEtbnVtYmVy.AAAAAAAAAAE.c2ln",
		"MQ.AAAAAAAAAAAAAAAA.c2ln",
	} {
		_, err := Parse(tok)
		assert.ErrorIs(t, err, model.ErrMalformedToken, tok)
	}
}

func TestParse_AcceptsPaddingAndShortSessionID(t *testing.T) {
	// session id 1 encoded as a single byte with padding
	got, err := Parse("MQ==.AQ==.c2ln")
	require.NoError(t, err)
	assert.Equal(t, Parsed{UserID: 1, SessionID: 1, Signature: "sig"}, got)
}

func TestSignVerify(t *testing.T) {
	key := newKey(t)

	sig, err := Sign(key, 10, 20)
	require.NoError(t, err)

	p, err := Parse(Format(10, 20, sig))
	require.NoError(t, err)
	require.NoError(t, Verify(p, key, sig))

	t.Run("other key", func(t *testing.T) {
		assert.ErrorIs(t, Verify(p, newKey(t), sig), model.ErrInvalidSignature)
	})
	t.Run("stored signature differs", func(t *testing.T) {
		assert.ErrorIs(t, Verify(p, key, "revoked"), model.ErrInvalidSignature)
	})
	t.Run("tampered session id", func(t *testing.T) {
		p2 := p
		p2.SessionID++
		assert.ErrorIs(t, Verify(p2, key, sig), model.ErrInvalidSignature)
	})
}

func TestNewSessionKey(t *testing.T) {
	master := make([]byte, 16)

	a, err := NewSessionKey(master, "hash")
	require.NoError(t, err)
	b, err := NewSessionKey(master, "hash")
	require.NoError(t, err)

	raw, err := hex.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.NotEqual(t, a, b, "random iv makes keys differ")

	_, err = NewSessionKey([]byte("short"), "hash")
	assert.Error(t, err)
}
