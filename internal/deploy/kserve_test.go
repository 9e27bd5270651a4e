package deploy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func TestBuildInferenceService(t *testing.T) {
	obj := buildInferenceService("tweet-sentiment", "s3://models/bundle", map[string]string{"team": "nlp"})

	assert.Equal(t, "serving.kserve.io/v1beta1", obj.GetAPIVersion())
	assert.Equal(t, "InferenceService", obj.GetKind())
	assert.Equal(t, "tweet-sentiment", obj.GetName())
	assert.Equal(t, "nlp", obj.GetLabels()["team"])
	assert.Equal(t, "sentiment-analysis-service", obj.GetLabels()["app.kubernetes.io/managed-by"])

	uri, found, err := unstructured.NestedString(obj.Object, "spec", "predictor", "model", "storageUri")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "s3://models/bundle", uri)

	format, found, err := unstructured.NestedString(obj.Object, "spec", "predictor", "model", "modelFormat", "name")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "lightgbm", format)
}

func TestParseStatus(t *testing.T) {
	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"status": map[string]interface{}{
			"url": "http://tweet-sentiment.model-serving.example.com",
			"conditions": []interface{}{
				map[string]interface{}{"type": "PredictorReady", "status": "True"},
				map[string]interface{}{"type": "Ready", "status": "True"},
			},
		},
	}}

	status := parseStatus(obj)
	assert.True(t, status.Ready)
	assert.Equal(t, "http://tweet-sentiment.model-serving.example.com", status.URL)
	assert.Empty(t, status.Reason)
}

func TestParseStatusNotReady(t *testing.T) {
	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"status": map[string]interface{}{
			"conditions": []interface{}{
				map[string]interface{}{"type": "Ready", "status": "False", "message": "revision failed"},
			},
		},
	}}

	status := parseStatus(obj)
	assert.False(t, status.Ready)
	assert.Equal(t, "revision failed", status.Reason)

	empty := parseStatus(&unstructured.Unstructured{Object: map[string]interface{}{}})
	assert.False(t, empty.Ready)
}
