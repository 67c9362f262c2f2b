package caller

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const AddressKey contextKey = "callerAddress"

var ErrNoCaller = errors.New("caller not found")

// Current retrieves the calling identity from the context. Returns ErrNoCaller
// if no caller address is present.
func Current(ctx context.Context) (string, error) {
	address, ok := ctx.Value(AddressKey).(string)
	if !ok || address == "" {
		log.Trace("caller not found in context")
		return "", ErrNoCaller
	}
	return address, nil
}

func WithAddress(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, AddressKey, address)
}
