package caller

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidAddress = errors.New("invalid address")

// Validator rejects malformed identities before they reach any plan state.
type Validator interface {
	Validate(address string) error
}

// AddressValidator performs a shape check on bech32-style addresses: a
// lowercase human-readable prefix, the "1" separator, and a lowercase
// alphanumeric data part. It does not verify the checksum; custody of real
// keys is out of scope.
type AddressValidator struct {
	// Prefix, when set, is the required human-readable part (e.g. "xion").
	Prefix string
}

func (v AddressValidator) Validate(address string) error {
	if len(address) < 8 || len(address) > 90 {
		return fmt.Errorf("%w: length must be between 8 and 90", ErrInvalidAddress)
	}
	sep := strings.LastIndex(address, "1")
	if sep < 1 {
		return fmt.Errorf("%w: missing separator", ErrInvalidAddress)
	}
	prefix, data := address[:sep], address[sep+1:]
	if v.Prefix != "" && prefix != v.Prefix {
		return fmt.Errorf("%w: expected prefix %q", ErrInvalidAddress, v.Prefix)
	}
	if len(data) < 6 {
		return fmt.Errorf("%w: data part too short", ErrInvalidAddress)
	}
	for _, r := range address {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return fmt.Errorf("%w: must be lowercase alphanumeric", ErrInvalidAddress)
		}
	}
	return nil
}
