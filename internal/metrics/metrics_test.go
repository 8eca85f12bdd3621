package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue reads a counter from the default registry, matching one
// label value when label is not empty.
func counterValue(t *testing.T, name, label string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if label == "" {
				return m.GetCounter().GetValue()
			}
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCounters(t *testing.T) {
	before := counterValue(t, "gyrosphere_sensor_samples_total", "gravity")
	IncSensorSample("gravity")
	IncSensorSample("gravity")
	if got := counterValue(t, "gyrosphere_sensor_samples_total", "gravity"); got != before+2 {
		t.Errorf("expected %v gravity samples, got %v", before+2, got)
	}

	before = counterValue(t, "gyrosphere_texture_uploads_total", UploadSkipped)
	IncTextureUpload(UploadSkipped)
	if got := counterValue(t, "gyrosphere_texture_uploads_total", UploadSkipped); got != before+1 {
		t.Errorf("expected %v skipped uploads, got %v", before+1, got)
	}

	before = counterValue(t, "gyrosphere_frames_total", "")
	RecordFrame(3 * time.Millisecond)
	if got := counterValue(t, "gyrosphere_frames_total", ""); got != before+1 {
		t.Errorf("expected %v frames, got %v", before+1, got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	IncEstimate()
	IncGPUError("draw")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"gyrosphere_attitude_estimates_total", `gyrosphere_gpu_errors_total{site="draw"}`} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in metrics output", name)
		}
	}
}
