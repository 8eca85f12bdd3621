// Package metrics exposes Prometheus counters for the sensor, attitude and
// render pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Texture upload results.
const (
	UploadOK      = "ok"
	UploadSkipped = "skipped"
	UploadFailed  = "failed"
)

var (
	sensorSamplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gyrosphere_sensor_samples_total",
			Help: "Total number of sensor samples received.",
		},
		[]string{"kind"},
	)

	estimatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gyrosphere_attitude_estimates_total",
			Help: "Total number of rotation matrices estimated from sensor samples.",
		},
	)

	framesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gyrosphere_frames_total",
			Help: "Total number of frames drawn.",
		},
	)

	frameDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gyrosphere_frame_duration_seconds",
			Help:    "Time spent drawing a frame.",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033, 0.066},
		},
	)

	textureUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gyrosphere_texture_uploads_total",
			Help: "Total number of texture uploads by result.",
		},
		[]string{"result"},
	)

	gpuErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gyrosphere_gpu_errors_total",
			Help: "Total number of GPU error codes observed, by call site.",
		},
		[]string{"site"},
	)

	assetCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gyrosphere_asset_cache_hits_total",
			Help: "Total number of asset cache hits.",
		},
	)

	assetCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gyrosphere_asset_cache_misses_total",
			Help: "Total number of asset cache misses.",
		},
	)
)

func init() {
	prometheus.MustRegister(sensorSamplesTotal)
	prometheus.MustRegister(estimatesTotal)
	prometheus.MustRegister(framesTotal)
	prometheus.MustRegister(frameDurationSeconds)
	prometheus.MustRegister(textureUploadsTotal)
	prometheus.MustRegister(gpuErrorsTotal)
	prometheus.MustRegister(assetCacheHitsTotal)
	prometheus.MustRegister(assetCacheMissesTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncSensorSample counts one sample of the given kind.
func IncSensorSample(kind string) {
	sensorSamplesTotal.WithLabelValues(kind).Inc()
}

// IncEstimate counts one rotation estimate.
func IncEstimate() {
	estimatesTotal.Inc()
}

// RecordFrame counts a drawn frame and its duration.
func RecordFrame(d time.Duration) {
	framesTotal.Inc()
	frameDurationSeconds.Observe(d.Seconds())
}

// IncTextureUpload counts a texture upload with one of the Upload* results.
func IncTextureUpload(result string) {
	textureUploadsTotal.WithLabelValues(result).Inc()
}

// IncGPUError counts a GPU error code reported after the given call site.
func IncGPUError(site string) {
	gpuErrorsTotal.WithLabelValues(site).Inc()
}

// IncAssetCacheHits counts an asset served from memory.
func IncAssetCacheHits() {
	assetCacheHitsTotal.Inc()
}

// IncAssetCacheMisses counts an asset read from disk.
func IncAssetCacheMisses() {
	assetCacheMissesTotal.Inc()
}
