package docker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

// Client wraps the Docker SDK client.
type Client struct {
	api ImageAPI
}

// NewClient creates a Docker client from the environment (DOCKER_HOST etc.).
func NewClient() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	return &Client{api: cli}, nil
}

// NewClientWithAPI creates a client over a custom API implementation.
// This is primarily used for testing with mock implementations.
func NewClientWithAPI(api ImageAPI) *Client {
	return &Client{api: api}
}

// Ping tests the connection to the Docker daemon.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := c.api.Ping(ctx); err != nil {
		return fmt.Errorf("ping docker: %w", err)
	}

	return nil
}

// Close closes the Docker client connection.
func (c *Client) Close() error {
	if c.api != nil {
		return c.api.Close()
	}
	return nil
}

// Port is an exposed image port.
type Port struct {
	Number   int
	Protocol string
}

// String formats the port as "8080/tcp".
func (p Port) String() string {
	return fmt.Sprintf("%d/%s", p.Number, p.Protocol)
}

// ExposedPorts returns the ports declared with EXPOSE in a local image,
// sorted by protocol then number. Port ranges are expanded.
func (c *Client) ExposedPorts(ctx context.Context, ref string) ([]Port, error) {
	resp, err := c.api.ImageInspect(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("inspect image %s: %w", ref, err)
	}

	if resp.Config == nil {
		return nil, nil
	}

	var ports []Port
	for exposed := range resp.Config.ExposedPorts {
		proto, portRange := nat.SplitProtoPort(string(exposed))
		start, end, err := nat.ParsePortRangeToInt(portRange)
		if err != nil {
			return nil, fmt.Errorf("image %s exposes invalid port %q: %w", ref, exposed, err)
		}
		for n := start; n <= end; n++ {
			ports = append(ports, Port{Number: n, Protocol: strings.ToLower(proto)})
		}
	}

	sort.Slice(ports, func(i, j int) bool {
		if ports[i].Protocol != ports[j].Protocol {
			return ports[i].Protocol < ports[j].Protocol
		}
		return ports[i].Number < ports[j].Number
	})

	return ports, nil
}

// TCPPorts filters ports to TCP port numbers.
func TCPPorts(ports []Port) []int {
	var out []int
	for _, p := range ports {
		if p.Protocol == "tcp" {
			out = append(out, p.Number)
		}
	}
	return out
}
