package enums

import "fmt"

// InvitationStatus tracks digital-invitation issuance.
type InvitationStatus string

const (
	InvitationStatusDraft     InvitationStatus = "draft"
	InvitationStatusPublished InvitationStatus = "published"
	InvitationStatusRevoked   InvitationStatus = "revoked"
)

var validInvitationStatuses = []InvitationStatus{
	InvitationStatusDraft,
	InvitationStatusPublished,
	InvitationStatusRevoked,
}

// String implements fmt.Stringer.
func (i InvitationStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InvitationStatus.
func (i InvitationStatus) IsValid() bool {
	for _, candidate := range validInvitationStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInvitationStatus converts raw input into an InvitationStatus.
func ParseInvitationStatus(value string) (InvitationStatus, error) {
	for _, candidate := range validInvitationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invitation status %q", value)
}
