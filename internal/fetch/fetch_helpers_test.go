package fetch

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/phalanx-pm/phalanx/manifest"
)

// HashHexForTest returns the BLAKE3 hex digest of s, used by tests that
// need a correct expected checksum without importing internal/cache.
func HashHexForTest(s string) string {
	sum := blake3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func parseAuthFileForTest(host string) (*manifest.AuthFile, error) {
	doc := fmt.Sprintf(`{"http-basic":{%q:{"username":"alice","password":"secret"}}}`, host)
	return manifest.ParseAuthFile([]byte(doc))
}
