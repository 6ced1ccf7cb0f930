package manifest

import (
	"fmt"
	"maps"
	"slices"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// ServicePort is the Service port that fronts the primary container port.
const ServicePort = 80

// NewContainerSeed returns the default container for a descriptor: named after
// the application, image rendered from imageTemplate, one http port.
func NewContainerSeed(d *Descriptor, imageTemplate string) (ContainerSpec, error) {
	image, err := RenderImage(d, imageTemplate)
	if err != nil {
		return ContainerSpec{}, err
	}

	return ContainerSpec{
		Name:  d.Name,
		Image: image,
		Ports: []ContainerPort{{Name: PortNameHTTP, Port: d.Port()}},
		Env:   maps.Clone(d.Env),
	}, nil
}

// Generate builds the manifest bundle for d. The seed supplies the container;
// empty seed fields fall back to descriptor defaults. Each probe is attached by
// its kind. Any error is a *ConfigurationError and no bundle is returned.
func Generate(d *Descriptor, seed ContainerSpec, probes []ProbeSpec) (*Bundle, error) {
	if err := ValidateDescriptor(d); err != nil {
		return nil, err
	}

	container, err := resolveContainer(d, seed)
	if err != nil {
		return nil, err
	}

	if err := attachProbes(&container, probes, d.Port()); err != nil {
		return nil, err
	}

	labels := resourceLabels(d)
	selector := map[string]string{
		LabelName:    d.Name,
		LabelVersion: d.Version,
	}

	deployment := newDeployment(d, container, labels, selector)

	b := &Bundle{resources: []runtime.Object{deployment}}
	if len(container.Ports) > 0 {
		b.resources = append(b.resources, newService(d, container, labels, selector))
	}

	return b, nil
}

func resolveContainer(d *Descriptor, seed ContainerSpec) (ContainerSpec, error) {
	c := seed
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.Image == "" {
		image, err := RenderImage(d, "")
		if err != nil {
			return ContainerSpec{}, err
		}
		c.Image = image
	}
	if len(c.Ports) == 0 {
		c.Ports = []ContainerPort{{Name: PortNameHTTP, Port: d.Port()}}
	} else {
		c.Ports = slices.Clone(c.Ports)
	}
	if c.Env == nil && len(d.Env) > 0 {
		c.Env = maps.Clone(d.Env)
	}

	seen := make(map[int]bool, len(c.Ports))
	for i, p := range c.Ports {
		if p.Name == "" {
			c.Ports[i].Name = PortNameHTTP
			if i > 0 {
				c.Ports[i].Name = fmt.Sprintf("port-%d", p.Port)
			}
		}
		if p.Port <= 0 || p.Port > 65535 {
			return ContainerSpec{}, &ConfigurationError{Field: "container.ports", Reason: fmt.Sprintf("%d is out of range", p.Port)}
		}
		if seen[p.Port] {
			return ContainerSpec{}, &ConfigurationError{Field: "container.ports", Reason: fmt.Sprintf("port %d declared twice", p.Port)}
		}
		seen[p.Port] = true
	}

	// Probes on the seed are replaced by the ones passed to Generate.
	c.Liveness = nil
	c.Readiness = nil

	return c, nil
}

// attachProbes assigns each probe to the container slot for its kind.
func attachProbes(c *ContainerSpec, probes []ProbeSpec, defaultPort int) error {
	for _, p := range probes {
		if err := validateProbe(p); err != nil {
			return err
		}

		p = withProbeDefaults(p, defaultPort)

		var slot **ProbeSpec
		switch p.Kind {
		case ProbeLiveness:
			slot = &c.Liveness
		case ProbeReadiness:
			slot = &c.Readiness
		}

		if *slot != nil {
			return &ConfigurationError{Field: "probes", Reason: fmt.Sprintf("duplicate %s probe", p.Kind)}
		}
		*slot = &p
	}

	return nil
}

func withProbeDefaults(p ProbeSpec, defaultPort int) ProbeSpec {
	if p.Port == 0 {
		p.Port = defaultPort
	}
	if p.PeriodSeconds == 0 {
		p.PeriodSeconds = DefaultPeriodSeconds
	}
	if p.TimeoutSeconds == 0 {
		p.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if p.SuccessThreshold == 0 {
		p.SuccessThreshold = DefaultSuccessThreshold
	}
	if p.FailureThreshold == 0 {
		p.FailureThreshold = DefaultFailureThreshold
	}
	return p
}

// resourceLabels merges user labels with the standard ones. Standard keys win.
func resourceLabels(d *Descriptor) map[string]string {
	labels := maps.Clone(d.Labels)
	if labels == nil {
		labels = make(map[string]string, 3)
	}
	labels[LabelName] = d.Name
	labels[LabelVersion] = d.Version
	labels[LabelManagedBy] = ManagedBy
	return labels
}

func newDeployment(d *Descriptor, c ContainerSpec, labels, selector map[string]string) *appsv1.Deployment {
	replicas := d.Replicas
	if replicas == 0 {
		replicas = DefaultReplicas
	}

	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{
			APIVersion: appsv1.SchemeGroupVersion.String(),
			Kind:       "Deployment",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:        d.Name,
			Labels:      labels,
			Annotations: maps.Clone(d.Annotations),
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: selector},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels:      maps.Clone(labels),
					Annotations: maps.Clone(d.Annotations),
				},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{toContainer(c)},
				},
			},
		},
	}
}

func toContainer(c ContainerSpec) corev1.Container {
	out := corev1.Container{
		Name:            c.Name,
		Image:           c.Image,
		ImagePullPolicy: corev1.PullIfNotPresent,
	}

	for _, p := range c.Ports {
		out.Ports = append(out.Ports, corev1.ContainerPort{
			Name:          p.Name,
			ContainerPort: int32(p.Port),
			Protocol:      corev1.ProtocolTCP,
		})
	}

	for _, k := range slices.Sorted(maps.Keys(c.Env)) {
		out.Env = append(out.Env, corev1.EnvVar{Name: k, Value: c.Env[k]})
	}

	if c.Liveness != nil {
		out.LivenessProbe = toProbe(*c.Liveness)
	}
	if c.Readiness != nil {
		out.ReadinessProbe = toProbe(*c.Readiness)
	}

	return out
}

func toProbe(p ProbeSpec) *corev1.Probe {
	return &corev1.Probe{
		ProbeHandler: corev1.ProbeHandler{
			HTTPGet: &corev1.HTTPGetAction{
				Path:   p.Path,
				Port:   intstr.FromInt32(int32(p.Port)),
				Scheme: corev1.URISchemeHTTP,
			},
		},
		InitialDelaySeconds: p.InitialDelaySeconds,
		PeriodSeconds:       p.PeriodSeconds,
		TimeoutSeconds:      p.TimeoutSeconds,
		SuccessThreshold:    p.SuccessThreshold,
		FailureThreshold:    p.FailureThreshold,
	}
}

func newService(d *Descriptor, c ContainerSpec, labels, selector map[string]string) *corev1.Service {
	svc := &corev1.Service{
		TypeMeta: metav1.TypeMeta{
			APIVersion: corev1.SchemeGroupVersion.String(),
			Kind:       "Service",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:        d.Name,
			Labels:      maps.Clone(labels),
			Annotations: maps.Clone(d.Annotations),
		},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: maps.Clone(selector),
		},
	}

	for i, p := range c.Ports {
		port := int32(p.Port)
		if i == 0 {
			port = ServicePort
		}
		svc.Spec.Ports = append(svc.Spec.Ports, corev1.ServicePort{
			Name:       p.Name,
			Port:       port,
			TargetPort: intstr.FromInt32(int32(p.Port)),
			Protocol:   corev1.ProtocolTCP,
		})
	}

	return svc
}
