package util

import (
	"fmt"
	"strconv"
	"strings"
)

// Uint64ToString converts uint64 to string
func Uint64ToString(n uint64) string {
	return strconv.FormatUint(n, 10)
}

// StringToUint64 converts string to uint64
func StringToUint64(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse uint64: %w", err)
	}
	return n, nil
}

// NormalizeSnowflake trims s and checks that it is a non-zero Discord id.
// The canonical decimal form is returned.
func NormalizeSnowflake(s string) (string, error) {
	n, err := StringToUint64(strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", fmt.Errorf("id must not be zero")
	}
	return Uint64ToString(n), nil
}

// SplitIDs parses a comma separated list of snowflakes, skipping empty parts.
// The first invalid part is returned alongside the error.
func SplitIDs(raw string) ([]string, string, error) {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := NormalizeSnowflake(part)
		if err != nil {
			return nil, part, err
		}
		ids = append(ids, id)
	}
	return ids, "", nil
}
