package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bnb-chain/blob-store/logging"
)

var (
	BlobStoreDataSizeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "blobstore_data_size_bytes",
		Help: "Data size of all sidecars logically present in the blob store.",
	})

	BlobStoreBlobsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "blobstore_blobs",
		Help: "Number of sidecars logically present in the blob store.",
	})

	CleanupSucceedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blobstore_cleanup_succeed_total",
		Help: "Sidecar files removed by cleanup passes.",
	})

	CleanupFailedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blobstore_cleanup_failed_total",
		Help: "Sidecar files cleanup passes failed to remove.",
	})

	TrackerHeadGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "canon_tracker_head",
		Help: "Canonical head block number followed by the canon tracker.",
	})

	TrackerBlocksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "canon_tracker_blocks",
		Help: "Number of not yet finalized blocks tracked by the canon tracker.",
	})

	TrackerFinalizedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "canon_tracker_finalized_total",
		Help: "Blob transactions whose sidecars were scheduled for deletion after finalization.",
	})

	TrackerReinsertCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "canon_tracker_reinsert_total",
		Help: "Blob transactions flagged for reinsertion after a reorg.",
	})

	MetricsItems = []prometheus.Collector{
		BlobStoreDataSizeGauge,
		BlobStoreBlobsGauge,
		CleanupSucceedCounter,
		CleanupFailedCounter,
		TrackerHeadGauge,
		TrackerBlocksGauge,
		TrackerFinalizedCounter,
		TrackerReinsertCounter,
	}
)

type Metrics struct {
	httpAddress string
	registry    *prometheus.Registry
	httpServer  *http.Server
}

func NewMetrics(address string) *Metrics {
	return &Metrics{
		httpAddress: address,
		registry:    prometheus.NewRegistry(),
	}
}

func (m *Metrics) Start() {
	m.registry.MustRegister(MetricsItems...)
	go m.serve()
}

// Handler returns the router serving the registered metrics.
func (m *Metrics) Handler() http.Handler {
	router := mux.NewRouter()
	router.Path("/metrics").Handler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return router
}

func (m *Metrics) serve() {
	m.httpServer = &http.Server{
		Addr:    m.httpAddress,
		Handler: m.Handler(),
	}
	if err := m.httpServer.ListenAndServe(); err != nil {
		logging.Logger.Errorf("failed to listen and serve, err=%s", err.Error())
		panic(err)
	}
}
