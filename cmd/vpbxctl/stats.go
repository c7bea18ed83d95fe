package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vpbx-platform/internal/reporting"
	"vpbx-platform/internal/vpbx"
)

var statsFlags struct {
	clientConfig
	from          string
	to            string
	fields        []string
	fromExtension string
	fromNumber    string
	toExtension   string
	toNumber      string
	summary       bool
	asJSON        bool
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Export call statistics for a time range",
	Long: `Request a stats export, fetch it and print one row per call.

--from and --to accept RFC3339, "2006-01-02 15:04:05", "2006-01-02" or unix seconds.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	addClientFlags(statsCmd, &statsFlags.clientConfig)
	f := statsCmd.Flags()
	f.StringVar(&statsFlags.from, "from", "", "range start (required)")
	f.StringVar(&statsFlags.to, "to", "", "range end (default now)")
	f.StringSliceVar(&statsFlags.fields, "fields", nil, "columns to export (default "+strings.Join(vpbx.DefaultStatsFields, ",")+")")
	f.StringVar(&statsFlags.fromExtension, "from-extension", "", "filter by calling extension")
	f.StringVar(&statsFlags.fromNumber, "from-number", "", "filter by calling number")
	f.StringVar(&statsFlags.toExtension, "to-extension", "", "filter by called extension")
	f.StringVar(&statsFlags.toNumber, "to-number", "", "filter by called number")
	f.BoolVar(&statsFlags.summary, "summary", false, "print an aggregate instead of rows")
	f.BoolVar(&statsFlags.asJSON, "json", false, "print JSON")
	_ = statsCmd.MarkFlagRequired("from")
}

func runStats(cmd *cobra.Command, args []string) error {
	from, err := reporting.ParseTime(statsFlags.from)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to := time.Now().UTC()
	if statsFlags.to != "" {
		if to, err = reporting.ParseTime(statsFlags.to); err != nil {
			return fmt.Errorf("--to: %w", err)
		}
	}

	p, err := statsFlags.newProvider()
	if err != nil {
		return err
	}
	rep, err := reporting.NewService(p).CallsSummary(cmd.Context(), reporting.CallsSummaryRequest{
		Range:         reporting.TimeRange{From: from, To: to},
		FromExtension: statsFlags.fromExtension,
		FromNumber:    statsFlags.fromNumber,
		ToExtension:   statsFlags.toExtension,
		ToNumber:      statsFlags.toNumber,
		Fields:        statsFlags.fields,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case statsFlags.summary && statsFlags.asJSON:
		return printJSON(out, rep.Summary)
	case statsFlags.summary:
		printSummary(out, rep.Summary)
		return nil
	case statsFlags.asJSON:
		return printJSON(out, rep.Records)
	}

	fields := statsFlags.fields
	if len(fields) == 0 {
		fields = vpbx.DefaultStatsFields
	}
	printRecords(out, fields, rep.Records)
	return nil
}

func printRecords(w io.Writer, fields []string, records []vpbx.StatsRecord) {
	fmt.Fprintln(w, strings.ToUpper(strings.Join(fields, "\t")))
	for _, r := range records {
		cells := make([]string, len(fields))
		for i, f := range fields {
			cells[i] = formatCell(r, f)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
}

func formatCell(r vpbx.StatsRecord, field string) string {
	v, err := r.Value(field)
	if err != nil {
		return "-"
	}
	switch x := v.(type) {
	case []string:
		if len(x) == 0 {
			return "-"
		}
		return strings.Join(x, ",")
	case time.Time:
		if x.IsZero() {
			return "-"
		}
		return x.Format("2006-01-02 15:04:05")
	case string:
		if x == "" {
			return "-"
		}
		return x
	default:
		return fmt.Sprint(x)
	}
}

func printSummary(w io.Writer, s reporting.CallsSummary) {
	fmt.Fprintf(w, "calls:          %d\n", s.TotalCalls)
	fmt.Fprintf(w, "recorded:       %d\n", s.RecordedCalls)
	fmt.Fprintf(w, "total duration: %s\n", time.Duration(s.TotalDurationSeconds)*time.Second)
	fmt.Fprintf(w, "avg duration:   %s\n", time.Duration(s.AverageDurationSeconds)*time.Second)
	fmt.Fprintf(w, "longest:        %s\n", time.Duration(s.LongestDurationSeconds)*time.Second)
	for _, reason := range slices.Sorted(maps.Keys(s.ByDisconnectReason)) {
		fmt.Fprintf(w, "disconnect %-5s %d\n", reason, s.ByDisconnectReason[reason])
	}
}
