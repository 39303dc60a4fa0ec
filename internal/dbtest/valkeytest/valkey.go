// Package valkeytest runs a throwaway ValKey container for tests.
package valkeytest

import (
	"context"
	"net"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/valkey-io/valkey-go"

	valkeycontainer "github.com/testcontainers/testcontainers-go/modules/valkey"
	slogctx "github.com/veqryn/slog-context"
)

// Start initialises a ValKey instance and returns a client, the mapped port
// and a termination function.
func Start(ctx context.Context) (valkey.Client, nat.Port, func(ctx context.Context), error) {
	valkeyContainer, err := valkeycontainer.Run(ctx, "valkey/valkey:8-alpine")
	if err != nil {
		return nil, "", nil, err
	}

	terminate := func(ctx context.Context) {
		if err := testcontainers.TerminateContainer(valkeyContainer, testcontainers.StopContext(ctx)); err != nil {
			slogctx.Error(ctx, "Failed to terminate ValKey container", "error", err)
		}
	}

	port, err := valkeyContainer.MappedPort(ctx, nat.Port("6379"))
	if err != nil {
		terminate(ctx)
		return nil, "", nil, err
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{net.JoinHostPort("localhost", port.Port())},
	})
	if err != nil {
		terminate(ctx)
		return nil, "", nil, err
	}

	return client, port, func(ctx context.Context) {
		client.Close()
		terminate(ctx)
	}, nil
}

// StartOrSkip is Start for tests; it skips t when no container runtime is
// available and registers the cleanup.
func StartOrSkip(t *testing.T) valkey.Client {
	t.Helper()

	client, _, terminate, err := Start(t.Context())
	if err != nil {
		t.Skipf("ValKey container unavailable: %v", err)
	}
	t.Cleanup(func() { terminate(context.WithoutCancel(t.Context())) })

	return client
}
