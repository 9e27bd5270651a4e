// Package deploy pushes trained models to a KServe cluster as
// InferenceService resources. It is optional tooling for the `deploy` CLI
// command; the HTTP service itself never touches Kubernetes.
package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"sentiment-analysis-service/internal/config"
)

var inferenceServiceGVR = schema.GroupVersionResource{
	Group:    "serving.kserve.io",
	Version:  "v1beta1",
	Resource: "inferenceservices",
}

// Status summarizes an InferenceService's readiness.
type Status struct {
	URL    string
	Ready  bool
	Reason string
}

// Client manages sentiment InferenceServices in one namespace.
type Client interface {
	Apply(ctx context.Context, name, modelURI string, labels map[string]string) (string, error)
	Status(ctx context.Context, name string) (Status, error)
	Remove(ctx context.Context, name string) error
}

type kserveClient struct {
	dyn       dynamic.Interface
	namespace string
	logger    *logrus.Logger
}

// New builds a client from in-cluster config, an explicit kubeconfig path, or
// the default kubeconfig location, in that order.
func New(cfg config.DeployConfig, logger *logrus.Logger) (Client, error) {
	var restCfg *rest.Config
	var err error
	switch {
	case cfg.InCluster:
		restCfg, err = rest.InClusterConfig()
	case cfg.KubeConfigPath != "":
		restCfg, err = clientcmd.BuildConfigFromFlags("", cfg.KubeConfigPath)
	default:
		home, _ := os.UserHomeDir()
		restCfg, err = clientcmd.BuildConfigFromFlags("", filepath.Join(home, ".kube", "config"))
	}
	if err != nil {
		return nil, fmt.Errorf("build k8s config: %w", err)
	}

	dyn, err := dynamic.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("create dynamic client: %w", err)
	}
	return &kserveClient{dyn: dyn, namespace: cfg.Namespace, logger: logger}, nil
}

// Apply creates the InferenceService, or points the existing one at the new
// model URI. Returns the resource UID.
func (c *kserveClient) Apply(ctx context.Context, name, modelURI string, labels map[string]string) (string, error) {
	obj := buildInferenceService(name, modelURI, labels)

	created, err := c.dyn.Resource(inferenceServiceGVR).Namespace(c.namespace).
		Create(ctx, obj, metav1.CreateOptions{})
	if err == nil {
		c.logger.WithFields(logrus.Fields{"name": name, "namespace": c.namespace}).Info("inference service created")
		return string(created.GetUID()), nil
	}
	if !apierrors.IsAlreadyExists(err) {
		return "", fmt.Errorf("create inference service: %w", err)
	}

	existing, err := c.dyn.Resource(inferenceServiceGVR).Namespace(c.namespace).
		Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("get inference service: %w", err)
	}
	if err := unstructured.SetNestedField(existing.Object, modelURI, "spec", "predictor", "model", "storageUri"); err != nil {
		return "", fmt.Errorf("set storage uri: %w", err)
	}
	updated, err := c.dyn.Resource(inferenceServiceGVR).Namespace(c.namespace).
		Update(ctx, existing, metav1.UpdateOptions{})
	if err != nil {
		return "", fmt.Errorf("update inference service: %w", err)
	}
	c.logger.WithFields(logrus.Fields{"name": name, "namespace": c.namespace}).Info("inference service updated")
	return string(updated.GetUID()), nil
}

func (c *kserveClient) Status(ctx context.Context, name string) (Status, error) {
	obj, err := c.dyn.Resource(inferenceServiceGVR).Namespace(c.namespace).
		Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return Status{}, fmt.Errorf("get inference service: %w", err)
	}
	return parseStatus(obj), nil
}

func (c *kserveClient) Remove(ctx context.Context, name string) error {
	err := c.dyn.Resource(inferenceServiceGVR).Namespace(c.namespace).
		Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		return fmt.Errorf("delete inference service: %w", err)
	}
	return nil
}

func buildInferenceService(name, modelURI string, labels map[string]string) *unstructured.Unstructured {
	allLabels := map[string]interface{}{
		"app.kubernetes.io/managed-by": "sentiment-analysis-service",
	}
	for k, v := range labels {
		allLabels[k] = v
	}
	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "serving.kserve.io/v1beta1",
			"kind":       "InferenceService",
			"metadata": map[string]interface{}{
				"name":   name,
				"labels": allLabels,
			},
			"spec": map[string]interface{}{
				"predictor": map[string]interface{}{
					"model": map[string]interface{}{
						"modelFormat": map[string]interface{}{
							"name": "lightgbm",
						},
						"storageUri": modelURI,
					},
				},
			},
		},
	}
}

func parseStatus(obj *unstructured.Unstructured) Status {
	var status Status
	statusMap, found, _ := unstructured.NestedMap(obj.Object, "status")
	if !found {
		return status
	}
	status.URL, _, _ = unstructured.NestedString(statusMap, "url")

	conditions, found, _ := unstructured.NestedSlice(statusMap, "conditions")
	if !found {
		return status
	}
	for _, cond := range conditions {
		condMap, ok := cond.(map[string]interface{})
		if !ok {
			continue
		}
		condType, _ := condMap["type"].(string)
		condStatus, _ := condMap["status"].(string)
		if condType != "Ready" {
			continue
		}
		status.Ready = condStatus == "True"
		if !status.Ready {
			status.Reason, _ = condMap["message"].(string)
		}
		break
	}
	return status
}
