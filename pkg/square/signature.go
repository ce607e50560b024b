package square

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignPayment returns hex(HMAC-SHA256(secret, remoteOrderID + "|" + paymentID)).
func SignPayment(secret, remoteOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(remoteOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature checks a client-supplied payment signature.
func VerifyPaymentSignature(secret, remoteOrderID, paymentID, signature string) bool {
	signature = strings.ToLower(strings.TrimSpace(signature))
	if secret == "" || signature == "" {
		return false
	}
	expected := SignPayment(secret, remoteOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
