package token

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

const (
	totpStep   = 30
	totpDigits = 1000000
)

// VerifyTOTP checks a six digit RFC 6238 code against a base32 secret,
// accepting one step of clock drift either way.
func VerifyTOTP(secret, code string, now time.Time) bool {
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(strings.TrimRight(secret, "=")))
	if err != nil {
		return false
	}
	counter := now.Unix() / totpStep
	for _, drift := range []int64{0, -1, 1} {
		if hmac.Equal([]byte(totpCode(key, counter+drift)), []byte(code)) {
			return true
		}
	}
	return false
}

func totpCode(key []byte, counter int64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%06d", value%totpDigits)
}
