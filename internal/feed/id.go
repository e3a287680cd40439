package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// RecordID derives a stable identifier from a source tag and the upstream
// item's own identifier. The same pair always yields the same string, so
// re-scraping an unchanged listing produces the same record id.
func RecordID(source SourceTag, externalID string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", source, externalID)))
	return fmt.Sprintf("%s-%s", source, hex.EncodeToString(sum[:8]))
}
