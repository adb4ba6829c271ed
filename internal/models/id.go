package models

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a prefixed unique identifier, e.g. "txn_6f1a…".
// The prefix makes IDs self-describing in logs and API payloads.
func NewID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}
