package services

import (
	"context"
	"fmt"

	"nftconnect/internal/auth"
)

// NonceChannel asks the host bridge for a fresh single-use payload on every
// call. It keeps nothing between calls.
type NonceChannel struct {
	bridge HostBridge
}

func NewNonceChannel(bridge HostBridge) *NonceChannel {
	return &NonceChannel{bridge}
}

func (n *NonceChannel) Request(ctx context.Context) (string, error) {
	payload, err := n.bridge.RequestPayload(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", auth.ErrNonceUnavailable, err)
	}
	if payload == "" {
		return "", auth.ErrNonceUnavailable
	}
	return payload, nil
}
