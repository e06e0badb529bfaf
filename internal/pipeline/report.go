package pipeline

import (
	"time"

	"github.com/openfga/disksearcher/pkg/storage"
)

// Report summarizes a finished run.
type Report struct {
	RunID       string `json:"run_id"`
	Pattern     string `json:"pattern"`
	Extension   string `json:"extension"`
	Root        string `json:"root"`
	Destination string `json:"destination"`
	Searchers   int    `json:"searchers"`
	Copiers     int    `json:"copiers"`

	DirectoriesScouted  int64 `json:"directories_scouted"`
	DirectoriesSearched int64 `json:"directories_searched"`
	Matches             int64 `json:"matches"`
	FilesCopied         int64 `json:"files_copied"`
	BytesCopied         int64 `json:"bytes_copied"`
	Errors              int64 `json:"errors"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunRecord converts the report into the summary kept by the manifest store.
func (r *Report) RunRecord() storage.RunRecord {
	return storage.RunRecord{
		RunID:               r.RunID,
		Pattern:             r.Pattern,
		Extension:           r.Extension,
		Root:                r.Root,
		Destination:         r.Destination,
		StartedAt:           r.StartedAt.Truncate(time.Microsecond),
		FinishedAt:          r.FinishedAt.Truncate(time.Microsecond),
		DirectoriesScouted:  r.DirectoriesScouted,
		DirectoriesSearched: r.DirectoriesSearched,
		Matches:             r.Matches,
		FilesCopied:         r.FilesCopied,
		BytesCopied:         r.BytesCopied,
		Errors:              r.Errors,
	}
}
