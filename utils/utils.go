package utils

import (
	"crypto/md5"
	"slices"
	"strings"

	"github.com/gofrs/uuid"
)

// DeriveId maps a set of strings to a stable v3-style uuid. The order of
// parts does not matter.
func DeriveId(parts ...string) uuid.UUID {
	if len(parts) == 0 {
		return uuid.Nil
	}
	sorted := slices.Clone(parts)
	slices.Sort(sorted)

	sum := md5.Sum([]byte(strings.Join(sorted, "")))
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	return uuid.FromBytesOrNil(sum[:])
}

// ParseId accepts either a uuid or a free-form address, which is derived.
func ParseId(s string) uuid.UUID {
	s = strings.TrimSpace(s)
	if id, err := uuid.FromString(s); err == nil {
		return id
	}
	return DeriveId(s)
}
