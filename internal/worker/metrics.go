package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/openfga/disksearcher/internal/build"
)

var (
	directoriesScoutedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "directories_scouted_total",
		Help:      "The total number of directories pushed onto the directory queue.",
	})

	directoriesSearchedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "directories_searched_total",
		Help:      "The total number of directories whose entries were listed by a searcher.",
	})

	matchesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "matches_total",
		Help:      "The total number of files pushed onto the results queue.",
	})

	filesCopiedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "files_copied_total",
		Help:      "The total number of files copied into the destination.",
	})

	bytesCopiedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "bytes_copied_total",
		Help:      "The total number of bytes copied into the destination.",
	})

	workerErrorsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "worker_errors_total",
		Help:      "The total number of items skipped because of an error, by stage.",
	}, []string{"stage"})

	copyDurationHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace:                       build.ProjectName,
		Name:                            "copy_duration_ms",
		Help:                            "The time it took to copy a single file.",
		Buckets:                         []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		NativeHistogramBucketFactor:     1.1,
		NativeHistogramMaxBucketNumber:  100,
		NativeHistogramMinResetDuration: time.Hour,
	})
)
