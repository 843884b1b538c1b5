package mcapi

import (
	"os"
	"strings"
)

// StrictFromEnv reports whether MCAPI_STRICT demands a pinned vendor shim.
func StrictFromEnv() bool {
	v := os.Getenv("MCAPI_STRICT")
	return v == "1" || strings.EqualFold(v, "true")
}
