// Package manifest generates Kubernetes manifests for a keel application.
//
// The pipeline has four steps:
//
//   - Load: keel.yml is read, ${VAR} references are expanded and a values
//     overlay is deep-merged on top (capabilities are unioned).
//   - Generate: the descriptor, a container seed and the probes contributed by
//     capabilities become a Bundle holding a Deployment and a Service.
//   - Encode: the bundle is rendered as a JSON List and as a multi-document
//     YAML stream from the same unstructured form.
//   - Write: every format is staged and then committed together, so readers
//     never see a partial set.
//
// # Descriptor
//
//	apiVersion: keel.io/v1
//	kind: Application
//	name: health
//	version: 0.1-SNAPSHOT
//	httpPort: 8080
//	capabilities: [health]
//
// # Errors
//
// Failures are typed by stage: *ConfigurationError for generation,
// *SerializationError for encoding and *IOError for writing.
package manifest
