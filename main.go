// Command keel generates Kubernetes manifests with health probes wired in.
package main

import "github.com/cameronsjo/keel/internal/cmd"

func main() {
	cmd.Execute()
}
