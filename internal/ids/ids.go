package ids

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/segmentio/ksuid"
)

// New returns a sortable unique identifier for users and sessions.
func New() string {
	return ksuid.New().String()
}

// NewUploadName builds a storage filename from the upload timestamp and a
// random integer, keeping the original extension verbatim. The random part
// only has to make same-millisecond collisions improbable; it is not a
// security boundary.
func NewUploadName(originalName string) string {
	ext := filepath.Ext(originalName)
	return fmt.Sprintf("%d-%d%s", time.Now().UnixMilli(), rand.Int63(), ext)
}
