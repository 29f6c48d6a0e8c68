package types

import (
	"github.com/google/uuid"
)

// NewRuleID generates a UUIDv7 rule identifier.
// Time-ordered IDs ensure sequential inserts cluster in B-tree pages.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRuleID() RuleID {
	return RuleID(uuid.Must(uuid.NewV7()).String())
}

// NewCoverageTypeID generates a UUIDv7 coverage type identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewCoverageTypeID() CoverageTypeID {
	return CoverageTypeID(uuid.Must(uuid.NewV7()).String())
}

// ParseRuleID validates and converts a string to RuleID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseRuleID(s string) (RuleID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return RuleID(s), nil
}

// ParseCoverageTypeID validates and converts a string to CoverageTypeID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseCoverageTypeID(s string) (CoverageTypeID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return CoverageTypeID(s), nil
}
