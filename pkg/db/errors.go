package db

import "strings"

// IsUniqueViolation reports whether the provided error is a unique
// violation. When constraintName is provided, the violated constraint must
// also mention it; other error classes that happen to quote a column name
// never match.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}
