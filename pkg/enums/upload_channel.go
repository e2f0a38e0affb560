package enums

import "fmt"

// UploadChannel marks whether an asset passes through review before release.
type UploadChannel string

const (
	// UploadChannelReviewed assets must be approved before non-owners see them.
	UploadChannelReviewed UploadChannel = "reviewed"
	// UploadChannelPrivate assets never enter review.
	UploadChannelPrivate UploadChannel = "private"
)

var validUploadChannels = []UploadChannel{
	UploadChannelReviewed,
	UploadChannelPrivate,
}

// String returns the literal string for the channel.
func (c UploadChannel) String() string {
	return string(c)
}

// IsValid reports whether the channel is known.
func (c UploadChannel) IsValid() bool {
	for _, candidate := range validUploadChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseUploadChannel converts raw input into an UploadChannel.
func ParseUploadChannel(value string) (UploadChannel, error) {
	for _, candidate := range validUploadChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid upload channel %q", value)
}
