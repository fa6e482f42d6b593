package reconcile

import (
	"fmt"
	"io"
	"strings"
)

// Summary counts the outcomes of a run.
type Summary struct {
	Checked   int
	Updated   int
	Skipped   int
	NoAsset   int
	Untracked int
}

// Summarize counts results and untracked repositories.
func Summarize(results []Result, untracked map[string]struct{}) Summary {
	s := Summary{Untracked: len(untracked)}
	for _, r := range results {
		if r.Name == "" {
			continue
		}
		s.Checked++
		switch {
		case r.Skipped():
			s.Skipped++
		case r.VersionUpdated:
			s.Updated++
		}
		if r.NoQualifyingAsset {
			s.NoAsset++
		}
	}
	return s
}

// Report writes the console report: update decisions and skips in result
// order, then the sorted untracked repository names.
func Report(w io.Writer, results []Result, untracked map[string]struct{}) error {
	for _, r := range results {
		var line string
		switch {
		case r.Name == "":
			continue
		case r.Skipped():
			line = r.Skip.Error()
		case r.VersionUpdated:
			line = fmt.Sprintf("Update found for %s %s -> %s", r.Name, r.OldVersion, r.NewVersion)
		case r.NoQualifyingAsset:
			line = fmt.Sprintf("No qualifying asset for %s %s", r.Name, r.NewVersion)
		default:
			continue
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return ReportMissing(w, untracked)
}

// ReportMissing writes the untracked repository line, if there are any.
func ReportMissing(w io.Writer, untracked map[string]struct{}) error {
	if len(untracked) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "Missing Mods: %s\n", strings.Join(SortedNames(untracked), ", "))
	return err
}
