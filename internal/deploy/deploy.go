// Package deploy creates or updates generated manifests on a cluster.
package deploy

import (
	"context"
	"fmt"
	"maps"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/cameronsjo/keel/internal/manifest"
)

// DefaultNamespace is used when neither the flag nor the kubeconfig names one.
const DefaultNamespace = "default"

// Action is what Apply did to a resource.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// Applied reports one applied resource.
type Applied struct {
	Kind   string
	Name   string
	Action Action
}

// NewClientset builds a clientset from kubeconfigPath. With an empty path it
// tries the in-cluster config, then the default kubeconfig loading rules.
// The returned namespace is the kubeconfig context's, or DefaultNamespace.
func NewClientset(kubeconfigPath string) (kubernetes.Interface, string, error) {
	var cfg *rest.Config
	namespace := DefaultNamespace

	if kubeconfigPath == "" {
		if inCluster, err := rest.InClusterConfig(); err == nil {
			cfg = inCluster
		}
	}

	if cfg == nil {
		rules := clientcmd.NewDefaultClientConfigLoadingRules()
		if kubeconfigPath != "" {
			rules.ExplicitPath = kubeconfigPath
		}
		loader := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{})

		restCfg, err := loader.ClientConfig()
		if err != nil {
			return nil, "", fmt.Errorf("load kubeconfig: %w", err)
		}
		cfg = restCfg

		if ns, _, err := loader.Namespace(); err == nil && ns != "" {
			namespace = ns
		}
	}

	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, "", fmt.Errorf("create clientset: %w", err)
	}
	return cs, namespace, nil
}

// Applier creates or updates Deployments and Services in one namespace.
type Applier struct {
	client    kubernetes.Interface
	namespace string
}

// NewApplier returns an Applier for namespace.
func NewApplier(client kubernetes.Interface, namespace string) *Applier {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Applier{client: client, namespace: namespace}
}

// ApplyFile decodes a manifest file and applies its resources in order.
func (a *Applier) ApplyFile(ctx context.Context, path string) ([]Applied, error) {
	items, err := manifest.DecodeFile(path)
	if err != nil {
		return nil, err
	}

	objs, err := manifest.ToTyped(items)
	if err != nil {
		return nil, err
	}

	return a.Apply(ctx, objs)
}

// Apply creates or updates each resource in order and stops at the first error.
func (a *Applier) Apply(ctx context.Context, objs []runtime.Object) ([]Applied, error) {
	applied := make([]Applied, 0, len(objs))
	for _, obj := range objs {
		var (
			result Applied
			err    error
		)

		switch o := obj.(type) {
		case *appsv1.Deployment:
			result, err = a.applyDeployment(ctx, o)
		case *corev1.Service:
			result, err = a.applyService(ctx, o)
		default:
			err = fmt.Errorf("unsupported resource %T", obj)
		}
		if err != nil {
			return applied, err
		}

		applied = append(applied, result)
	}

	return applied, nil
}

func (a *Applier) applyDeployment(ctx context.Context, desired *appsv1.Deployment) (Applied, error) {
	deployments := a.client.AppsV1().Deployments(a.namespace)
	result := Applied{Kind: "Deployment", Name: desired.Name}

	desired = desired.DeepCopy()
	desired.Namespace = a.namespace

	existing, err := deployments.Get(ctx, desired.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		if _, err := deployments.Create(ctx, desired, metav1.CreateOptions{}); err != nil {
			return result, fmt.Errorf("create deployment %s: %w", desired.Name, err)
		}
		result.Action = ActionCreated
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("get deployment %s: %w", desired.Name, err)
	}

	existing.Labels = maps.Clone(desired.Labels)
	existing.Annotations = mergeAnnotations(existing.Annotations, desired.Annotations)
	existing.Spec = desired.Spec
	if _, err := deployments.Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
		return result, fmt.Errorf("update deployment %s: %w", desired.Name, err)
	}

	result.Action = ActionUpdated
	return result, nil
}

func (a *Applier) applyService(ctx context.Context, desired *corev1.Service) (Applied, error) {
	services := a.client.CoreV1().Services(a.namespace)
	result := Applied{Kind: "Service", Name: desired.Name}

	desired = desired.DeepCopy()
	desired.Namespace = a.namespace

	existing, err := services.Get(ctx, desired.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		if _, err := services.Create(ctx, desired, metav1.CreateOptions{}); err != nil {
			return result, fmt.Errorf("create service %s: %w", desired.Name, err)
		}
		result.Action = ActionCreated
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("get service %s: %w", desired.Name, err)
	}

	// ClusterIP is immutable once assigned.
	existing.Labels = maps.Clone(desired.Labels)
	existing.Annotations = mergeAnnotations(existing.Annotations, desired.Annotations)
	existing.Spec.Type = desired.Spec.Type
	existing.Spec.Selector = desired.Spec.Selector
	existing.Spec.Ports = desired.Spec.Ports
	if _, err := services.Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
		return result, fmt.Errorf("update service %s: %w", desired.Name, err)
	}

	result.Action = ActionUpdated
	return result, nil
}

// mergeAnnotations keeps annotations set by other controllers.
func mergeAnnotations(existing, desired map[string]string) map[string]string {
	if len(existing) == 0 && len(desired) == 0 {
		return nil
	}
	out := maps.Clone(existing)
	if out == nil {
		out = make(map[string]string, len(desired))
	}
	maps.Copy(out, desired)
	return out
}
