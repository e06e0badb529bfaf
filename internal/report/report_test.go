package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/openfga/disksearcher/internal/pipeline"
)

func sampleReport() *pipeline.Report {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &pipeline.Report{
		RunID:               "01HQZ6TKQ3X1M8W0Y5E4C2B7AD",
		Pattern:             "report",
		Extension:           ".txt",
		Root:                "/data",
		Destination:         "/backup",
		Searchers:           4,
		Copiers:             2,
		DirectoriesScouted:  1200,
		DirectoriesSearched: 1199,
		Matches:             42,
		FilesCopied:         41,
		BytesCopied:         3 * 1024 * 1024,
		Errors:              2,
		StartedAt:           started,
		FinishedAt:          started.Add(1500 * time.Millisecond),
	}
}

func TestWrite(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, FormatText, sampleReport()))

		out := buf.String()
		require.Contains(t, out, "01HQZ6TKQ3X1M8W0Y5E4C2B7AD")
		require.Contains(t, out, "4 searchers, 2 copiers")
		require.Contains(t, out, "1,200")
		require.Contains(t, out, "3.0 MiB (3,145,728 bytes)")
		require.Contains(t, out, "1.5s")
		require.Contains(t, out, "╭")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, FormatJSON, sampleReport()))

		var got pipeline.Report
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		if diff := cmp.Diff(*sampleReport(), got, cmpopts.EquateApproxTime(0)); diff != "" {
			t.Fatalf("mismatch (-want +got):\n%s", diff)
		}
		require.Contains(t, buf.String(), `"files_copied": 41`)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, FormatYAML, sampleReport()))
		require.Contains(t, buf.String(), "run_id: 01HQZ6TKQ3X1M8W0Y5E4C2B7AD")
		require.Contains(t, buf.String(), "bytes_copied: 3145728")

		var got pipeline.Report
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		require.Equal(t, int64(41), got.FilesCopied)
		require.True(t, sampleReport().StartedAt.Equal(got.StartedAt))
	})

	t.Run("none", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, FormatNone, sampleReport()))
		require.Zero(t, buf.Len())
	})

	t.Run("unknown", func(t *testing.T) {
		var buf bytes.Buffer
		err := Write(&buf, "xml", sampleReport())
		require.ErrorIs(t, err, ErrUnknownFormat)
		require.Zero(t, buf.Len())
	})
}

func TestFormatBytes(t *testing.T) {
	require.Equal(t, "0 B (0 bytes)", formatBytes(0))
	require.Equal(t, "1.0 KiB (1,024 bytes)", formatBytes(1024))
	require.Equal(t, "-1", formatBytes(-1))
}
