package enums

import "fmt"

// AuditAction names a sensitive action recorded in the audit ledger.
type AuditAction string

const (
	AuditActionSubmit           AuditAction = "submit"
	AuditActionApprove          AuditAction = "approve"
	AuditActionReject           AuditAction = "reject"
	AuditActionVisibilityChange AuditAction = "visibility_change"
	AuditActionShareGrant       AuditAction = "share_grant"
	AuditActionShareRevoke      AuditAction = "share_revoke"
	AuditActionAssetDelete      AuditAction = "asset_delete"
)

var validAuditActions = []AuditAction{
	AuditActionSubmit,
	AuditActionApprove,
	AuditActionReject,
	AuditActionVisibilityChange,
	AuditActionShareGrant,
	AuditActionShareRevoke,
	AuditActionAssetDelete,
}

// String returns the literal string for the action.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the action is known.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into an AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
