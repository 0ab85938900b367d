package version

import "fmt"

// Normalize parses s and returns its canonical string form.
//
//   - "1.01.1" → "1.1.1"
//   - "1" → "1.0.0"
//   - "1.0.0.0" → "1.0.0"
//   - "2.5.3.1" → "2.5.3.1"
func Normalize(s string) (string, error) {
	v, err := Parse(s)
	if err != nil {
		return "", fmt.Errorf("cannot normalize: %w", err)
	}
	return v.ToNormalizedString(), nil
}

// NormalizeOrOriginal returns the normalized form of s, or s itself when it
// does not parse.
func NormalizeOrOriginal(s string) string {
	normalized, err := Normalize(s)
	if err != nil {
		return s
	}
	return normalized
}
