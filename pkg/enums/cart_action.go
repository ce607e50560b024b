package enums

import (
	"fmt"
	"strings"
)

// CartAction is the mutation requested on a cart line.
type CartAction string

const (
	CartActionAdd    CartAction = "add"
	CartActionRemove CartAction = "remove"
)

var validCartActions = []CartAction{
	CartActionAdd,
	CartActionRemove,
}

func (a CartAction) String() string {
	return string(a)
}

func (a CartAction) IsValid() bool {
	for _, candidate := range validCartActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseCartAction converts raw input into a CartAction.
func ParseCartAction(value string) (CartAction, error) {
	for _, candidate := range validCartActions {
		if equalFold(string(candidate), value) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart action %q", value)
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, strings.TrimSpace(b))
}
