package capture

import (
	"crypto/md5"
	"encoding/hex"
)

// Fingerprint is a 128-bit content digest used for duplicate suppression.
// It identifies repeats; it is not a security boundary.
type Fingerprint [md5.Size]byte

// FingerprintOf digests an item's payload.
func FingerprintOf(it *Item) Fingerprint {
	return Fingerprint(md5.Sum(it.Payload()))
}

// String renders the fingerprint as lowercase hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the leading eight hex characters, enough for log lines.
func (f Fingerprint) Short() string {
	return f.String()[:8]
}

// MarshalText lets fingerprints serialize as hex in JSON payloads.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText parses the hex form produced by MarshalText.
func (f *Fingerprint) UnmarshalText(b []byte) error {
	decoded, err := hex.DecodeString(string(b))
	if err != nil {
		return err
	}
	copy(f[:], decoded)
	return nil
}
