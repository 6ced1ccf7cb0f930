// Package docker discovers the ports a locally built image exposes.
//
// keel build --image-ports uses it to declare container ports from the
// image's EXPOSE instructions instead of the descriptor's httpPort.
//
// # Interface Abstraction
//
// The ImageAPI interface abstracts the Docker SDK, enabling mock injection
// for testing. Use NewClientWithAPI for test scenarios.
//
// # Example
//
//	client, err := docker.NewClient()
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	ports, err := client.ExposedPorts(ctx, "acme/health:0.1-SNAPSHOT")
//	for _, p := range ports {
//	    fmt.Println(p)
//	}
package docker
