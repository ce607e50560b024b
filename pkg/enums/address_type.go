package enums

import "fmt"

// AddressType labels a saved shipping address.
type AddressType string

const (
	AddressTypeHome   AddressType = "Home"
	AddressTypeOffice AddressType = "Office"
	AddressTypeFriend AddressType = "Friend"
	AddressTypeOther  AddressType = "Other"
)

var validAddressTypes = []AddressType{
	AddressTypeHome,
	AddressTypeOffice,
	AddressTypeFriend,
	AddressTypeOther,
}

func (a AddressType) String() string {
	return string(a)
}

func (a AddressType) IsValid() bool {
	for _, candidate := range validAddressTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAddressType converts raw input into an AddressType; empty input maps to Home.
func ParseAddressType(value string) (AddressType, error) {
	if value == "" {
		return AddressTypeHome, nil
	}
	for _, candidate := range validAddressTypes {
		if equalFold(string(candidate), value) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid address type %q", value)
}
