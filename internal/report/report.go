// Package report renders the summary printed after a run.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"sigs.k8s.io/yaml"

	"github.com/openfga/disksearcher/internal/pipeline"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatNone = "none"
)

var ErrUnknownFormat = errors.New("unknown report format")

// Write renders r to w in the given format. FormatNone writes nothing.
func Write(w io.Writer, format string, r *pipeline.Report) error {
	var (
		out []byte
		err error
	)

	switch format {
	case FormatNone:
		return nil
	case FormatText:
		out = []byte(Text(r) + "\n")
	case FormatJSON:
		out, err = json.MarshalIndent(r, "", "  ")
		out = append(out, '\n')
	case FormatYAML:
		out, err = yaml.Marshal(r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("render %s report: %w", format, err)
	}

	_, err = w.Write(out)
	return err
}

// Text renders r as a two column table.
func Text(r *pipeline.Report) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Run", r.RunID})

	tw.AppendRows([]table.Row{
		{"Pattern", r.Pattern},
		{"Extension", r.Extension},
		{"Root", r.Root},
		{"Destination", r.Destination},
		{"Workers", fmt.Sprintf("%d searchers, %d copiers", r.Searchers, r.Copiers)},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Directories scouted", humanize.Comma(r.DirectoriesScouted)},
		{"Directories searched", humanize.Comma(r.DirectoriesSearched)},
		{"Matches", humanize.Comma(r.Matches)},
		{"Files copied", humanize.Comma(r.FilesCopied)},
		{"Bytes copied", formatBytes(r.BytesCopied)},
		{"Errors", humanize.Comma(r.Errors)},
		{"Duration", r.Duration().String()},
	})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

func formatBytes(n int64) string {
	if n < 0 {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprintf("%s (%s bytes)", humanize.IBytes(uint64(n)), humanize.Comma(n))
}
