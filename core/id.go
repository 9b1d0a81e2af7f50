package core

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// NewID generates a new ULID with the specified prefix.
// The resulting ID follows the format: prefix_ULID
// Example: NewID("alg") returns "alg_01G0EZ1XTM37C5X11SQTDNCTM1"
func NewID(prefix string) string {
	if strings.TrimSpace(prefix) == "" {
		panic("Prefix cannot be empty")
	}

	cleanPrefix := strings.TrimSpace(strings.ToLower(prefix))
	id := ulid.Make()

	return fmt.Sprintf("%s_%s", cleanPrefix, id.String())
}

// IsValidULID checks whether the part after the prefix parses as a ULID.
func IsValidULID(id string) bool {
	parts := strings.SplitN(id, "_", 2)
	if len(parts) != 2 {
		return false
	}
	_, err := ulid.Parse(parts[1])
	return err == nil
}
