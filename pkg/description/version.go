package description

import (
	"strconv"
	"strings"
)

const versionMarker = "description_version_"

// VersionTag returns the hidden textile span carrying version.
func VersionTag(version int) string {
	return "%{visibility:hidden}" + versionMarker + strconv.Itoa(version) + "%"
}

// DetectVersion returns the version named by the last "description_version_<N>%"
// marker of raw, matched case-insensitively, or 1 when there is none. A marker whose
// number cannot be read yields 0, which no decoder supports.
func DetectVersion(raw string) int {
	lower := asciiLower(raw)
	for end := len(lower); ; {
		i := strings.LastIndex(lower[:end], versionMarker)
		if i < 0 {
			return 1
		}
		digits := lower[i+len(versionMarker):]
		n := 0
		for n < len(digits) && digits[n] >= '0' && digits[n] <= '9' {
			n++
		}
		if n > 0 && n < len(digits) && digits[n] == '%' {
			v, err := strconv.Atoi(digits[:n])
			if err != nil {
				return 0
			}
			return v
		}
		end = i
	}
}

type decoder func(c Codec, raw, fingerprint string) (*Description, error)

// decoders maps each readable version to its layout.
var decoders = map[int]decoder{
	1:              Codec.decodeV1,
	CurrentVersion: Codec.decodeCurrent,
}

// Decode reads a description written with CurrentVersion. Any other version, including
// an untagged description, fails with ErrUnsupportedVersion.
func (c Codec) Decode(raw, fingerprint string) (*Description, error) {
	if v := DetectVersion(raw); v != CurrentVersion {
		return nil, parseError(ErrUnsupportedVersion, 0, "found version %d, expected %d", v, CurrentVersion)
	}
	return c.decodeCurrent(raw, fingerprint)
}

// DecodeAny reads a description in any known layout, choosing the decoder from the
// detected version.
func (c Codec) DecodeAny(raw, fingerprint string) (*Description, error) {
	v := DetectVersion(raw)
	decode, ok := decoders[v]
	if !ok {
		return nil, parseError(ErrUnsupportedVersion, 0, "found version %d", v)
	}
	return decode(c, raw, fingerprint)
}

// Supported reports whether DecodeAny can read version.
func Supported(version int) bool {
	_, ok := decoders[version]
	return ok
}
