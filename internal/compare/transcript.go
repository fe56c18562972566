package compare

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/predcompare/internal/prediction"
)

// TranscriptOptions controls the human readable rendering of a Report.
type TranscriptOptions struct {
	TestName string
	RefName  string
	// MaxReported bounds the missing and mismatched lists. Zero or less
	// uses DefaultMaxReportedErrors.
	MaxReported int
}

// WriteTranscript renders the report with sections in fixed order: header,
// first record of each side, instance count note, missing filepaths,
// mismatched filepaths and summary. Only the two lists are truncated; the
// summary always reflects the full collections.
func WriteTranscript(w io.Writer, r *Report, opts TranscriptOptions) error {
	limit := opts.MaxReported
	if limit <= 0 {
		limit = DefaultMaxReportedErrors
	}
	bw := bufio.NewWriter(w)

	section(bw, "Comparison:")
	fmt.Fprintf(bw, "Test file: %s\n", opts.TestName)
	fmt.Fprintf(bw, "Ref file: %s\n", opts.RefName)
	fmt.Fprintln(bw)

	section(bw, "Quick look at the first prediction:")
	fmt.Fprintln(bw, "Test data:")
	fmt.Fprintf(bw, "  %s\n", sampleLine(r.TestSample))
	fmt.Fprintln(bw, "Ref data:")
	fmt.Fprintf(bw, "  %s\n", sampleLine(r.RefSample))
	fmt.Fprintln(bw)

	if r.TestCount != r.RefCount {
		fmt.Fprintln(bw, "Different number of prediction instances")
		fmt.Fprintf(bw, "  test: %d\n", r.TestCount)
		fmt.Fprintf(bw, "  ref: %d\n", r.RefCount)
		fmt.Fprintln(bw)
	}

	if len(r.MissingIdentifiers) > 0 {
		section(bw, "Missing filepaths:")
		shown := r.MissingIdentifiers
		if len(shown) > limit {
			shown = shown[:limit]
		}
		for _, id := range shown {
			fmt.Fprintf(bw, "Missing filepath '%s' in test data\n", id)
		}
		if elided := len(r.MissingIdentifiers) - len(shown); elided > 0 {
			fmt.Fprintf(bw, "...%d more missing filepaths not shown, only the first %d are listed\n", elided, limit)
		}
		fmt.Fprintln(bw)
	}

	if len(r.Mismatches) > 0 {
		section(bw, "Mismatched filepaths:")
		shown := r.Mismatches
		if len(shown) > limit {
			shown = shown[:limit]
		}
		for _, fm := range shown {
			fmt.Fprintf(bw, "Mismatched filepath '%s'\n", fm.Identifier)
			for _, m := range fm.Entries {
				fmt.Fprintf(bw, "  %s\n", m)
			}
		}
		if elided := len(r.Mismatches) - len(shown); elided > 0 {
			fmt.Fprintf(bw, "...%d more mismatched filepaths not shown, only the first %d are listed\n", elided, limit)
		}
		fmt.Fprintln(bw)
	}

	section(bw, "Summary:")
	fmt.Fprintf(bw, "Number of predictions in test data: %d\n", r.TestCount)
	fmt.Fprintf(bw, "Number of predictions in ref data: %d\n", r.RefCount)
	fmt.Fprintf(bw, "Number of filepaths missing from test data: %d\n", len(r.MissingIdentifiers))
	fmt.Fprintf(bw, "Number of mismatched filepaths: %d out of %d\n", len(r.Mismatches), r.RefCount)
	for _, mc := range MetricClasses {
		if v, ok := r.RMSE[mc]; ok {
			fmt.Fprintf(bw, "Error (RMSE) %s: %.3f\n", mc.Title(), v)
		}
	}
	fmt.Fprintln(bw)

	return bw.Flush()
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

func sampleLine(rec *prediction.Record) string {
	if rec == nil {
		return "(no predictions)"
	}
	return rec.Summary()
}
