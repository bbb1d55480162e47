package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// =====================================================
// FEEDBACK SIGNATURE
// =====================================================

// HeaderSignature carries the signature of a feedback body
const HeaderSignature = "Vnpay-Signature"

// GenerateSignature signs a raw feedback body
//
// Algorithm:
// 1. HMAC-SHA512(body, secretKey) over the exact bytes received
// 2. Uppercase hex encode
func GenerateSignature(body []byte, secretKey string) string {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// VerifySignature checks the signature received with a feedback body.
// An empty signature or secret key never verifies.
func VerifySignature(body []byte, signature, secretKey string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" || secretKey == "" {
		return false
	}

	received, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	return hmac.Equal(received, mac.Sum(nil))
}
