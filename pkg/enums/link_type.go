package enums

import "fmt"

// LinkType names the auth provider's generate_link flavours used by the admin actions.
type LinkType string

const (
	LinkTypeInvite    LinkType = "invite"
	LinkTypeMagicLink LinkType = "magiclink"
	LinkTypeRecovery  LinkType = "recovery"
)

var validLinkTypes = []LinkType{
	LinkTypeInvite,
	LinkTypeMagicLink,
	LinkTypeRecovery,
}

// String implements fmt.Stringer.
func (l LinkType) String() string {
	return string(l)
}

// IsValid reports whether the value is known.
func (l LinkType) IsValid() bool {
	for _, candidate := range validLinkTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLinkType converts raw input into a LinkType.
func ParseLinkType(value string) (LinkType, error) {
	for _, candidate := range validLinkTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid link type %q", value)
}
