package cmd

import (
	"context"
	"fmt"

	"github.com/cameronsjo/keel/internal/docker"
)

// withDockerClientContext executes a function with a Docker client and custom context.
// The daemon is pinged first so a missing daemon fails before any work starts.
func withDockerClientContext(ctx context.Context, fn func(*docker.Client) error) error {
	client, err := docker.NewClient()
	if err != nil {
		return fmt.Errorf("connect to docker: %w", err)
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("connect to docker: %w", err)
	}

	return fn(client)
}

// commandContext returns the command's context, or Background outside Execute.
func commandContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
