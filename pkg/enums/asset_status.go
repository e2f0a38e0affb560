package enums

import "fmt"

// AssetStatus describes the review lifecycle state of an asset.
type AssetStatus string

const (
	AssetStatusDraft         AssetStatus = "draft"
	AssetStatusPendingReview AssetStatus = "pending_review"
	AssetStatusApproved      AssetStatus = "approved"
	AssetStatusRejected      AssetStatus = "rejected"
)

var validAssetStatuses = []AssetStatus{
	AssetStatusDraft,
	AssetStatusPendingReview,
	AssetStatusApproved,
	AssetStatusRejected,
}

// String returns the literal string for the status.
func (s AssetStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is known.
func (s AssetStatus) IsValid() bool {
	for _, candidate := range validAssetStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAssetStatus converts raw input into an AssetStatus.
func ParseAssetStatus(value string) (AssetStatus, error) {
	for _, candidate := range validAssetStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid asset status %q", value)
}
