package enums

import "fmt"

// AssetKind classifies the uploaded content.
type AssetKind string

const (
	AssetKindImage    AssetKind = "image"
	AssetKindVideo    AssetKind = "video"
	AssetKindDocument AssetKind = "document"
	AssetKindLink     AssetKind = "link"
	AssetKindCarousel AssetKind = "carousel"
)

var validAssetKinds = []AssetKind{
	AssetKindImage,
	AssetKindVideo,
	AssetKindDocument,
	AssetKindLink,
	AssetKindCarousel,
}

// String returns the literal string for the kind.
func (k AssetKind) String() string {
	return string(k)
}

// IsValid reports whether the kind is known.
func (k AssetKind) IsValid() bool {
	for _, candidate := range validAssetKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseAssetKind converts raw input into an AssetKind.
func ParseAssetKind(value string) (AssetKind, error) {
	for _, candidate := range validAssetKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid asset kind %q", value)
}
