package harness

import "bytes"

// Equal reports whether a and b agree on their first n bytes. Either buffer
// shorter than n, or buffers of different lengths, fail at StageLength.
func Equal(a, b []byte, n int) error {
	if len(a) < n || len(b) < n {
		return stageErr(StageLength, "declared %d bytes, provider %d reference %d", n, len(a), len(b))
	}
	if len(a) != len(b) {
		return stageErr(StageLength, "provider %d bytes, reference %d bytes", len(a), len(b))
	}
	if bytes.Equal(a[:n], b[:n]) {
		return nil
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return stageErr(StageCompare, "first difference at offset %d (%#02x != %#02x)", i, a[i], b[i])
		}
	}
	return nil
}
