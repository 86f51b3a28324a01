package engine

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// newAnalysisID derives a 16-hex-char identifier from the submission plus a
// random nonce. The nonce keeps ids distinct even when the same file is
// submitted by the same caller within one timer tick.
func newAnalysisID(fileRef, submittedBy string) string {
	var nonce [8]byte
	_, _ = rand.Read(nonce[:])
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d|%x",
		fileRef, submittedBy, time.Now().UnixNano(), nonce))
	return hex.EncodeToString(sum[:8])
}
