package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Record ids are type-prefixed 12-hex strings, e.g. "img_3fa85f642b88".

func NewAssetID() string     { return "img_" + randomHex(12) }
func NewProcessedID() string { return "proc_" + randomHex(12) }
func NewDemoID() string      { return "demo_" + randomHex(12) }

func randomHex(n int) string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:n]
}
