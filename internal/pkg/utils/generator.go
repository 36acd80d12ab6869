package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"konsulin-wallet-service/internal/pkg/constvars"

	"github.com/google/uuid"
)

const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateRandomCode returns length characters drawn from an unambiguous
// uppercase alphabet using crypto/rand.
func GenerateRandomCode(length int) (string, error) {
	max := big.NewInt(int64(len(referenceAlphabet)))

	code := make([]byte, length)
	for i := range code {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = referenceAlphabet[num.Int64()]
	}

	return string(code), nil
}

// GenerateReferenceNumber builds PREFIX-YYYYMMDDhhmmss-SUFFIX.
func GenerateReferenceNumber(prefix string, now time.Time) (string, error) {
	suffix, err := GenerateRandomCode(constvars.ReferenceRandomSuffixLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format(constvars.ReferenceTimestampLayout), suffix), nil
}

func GenerateRequestID() string {
	return constvars.REQUEST_ID_PREFIX + uuid.NewString()
}
