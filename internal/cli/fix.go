package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/nbfix/internal/ui"
	"github.com/aidanlsb/nbfix/internal/widgets"
)

var errNoNotebooks = errors.New("no notebooks given")

// Per-file statuses reported in JSON output, beyond the widgets outcomes.
const (
	statusNotFound    = "not_found"
	statusNotNotebook = "not_notebook"
	statusError       = "error"
)

type fileReport struct {
	Path    string     `json:"path"`
	Status  string     `json:"status"`
	Changed bool       `json:"changed"`
	Written bool       `json:"written"`
	Message string     `json:"message"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

type fixSummary struct {
	Policy string       `json:"policy"`
	DryRun bool         `json:"dry_run"`
	Fixed  int          `json:"fixed"`
	Files  []fileReport `json:"files"`
}

func (o *options) run(cmd *cobra.Command, paths []string) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	if len(paths) == 0 {
		cmd.SilenceErrors = true
		if o.jsonOutput {
			outputError(out, ErrMissingArgument, "no notebooks given", nil, "Usage: nbfix <notebook.ipynb> [notebook.ipynb ...]")
		} else {
			fmt.Fprint(out, cmd.UsageString())
		}
		return errNoNotebooks
	}

	fixer := &widgets.Fixer{
		Policy: o.policy,
		Indent: o.indent,
		DryRun: o.dryRun,
		Logger: o.logger,
	}
	summary := fixSummary{Policy: o.policy.String(), DryRun: o.dryRun, Files: []fileReport{}}

	for _, path := range paths {
		report, err := o.fixOne(fixer, path)
		summary.Files = append(summary.Files, report)
		if report.Changed {
			summary.Fixed++
		}

		if !o.jsonOutput {
			if report.Error != nil {
				fmt.Fprintln(errOut, report.Message)
			} else {
				fmt.Fprintln(out, report.Message)
			}
		}

		if err != nil && o.failFast {
			cmd.SilenceErrors = true
			if o.jsonOutput {
				outputJSON(out, Response{OK: false, Data: summary, Error: report.Error})
			}
			return err
		}
	}

	if o.jsonOutput {
		outputSuccess(out, summary, &Meta{Count: summary.Fixed})
		return nil
	}
	printSummary(out, summary)
	return nil
}

// fixOne validates path and runs the fixer on it. A non-nil error means the
// file could not be read, parsed or written.
func (o *options) fixOne(fixer *widgets.Fixer, path string) (fileReport, error) {
	report := fileReport{Path: path}
	shown := ui.FilePath(path)

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		report.Status = statusNotFound
		report.Message = ui.Errorf("File not found: %s", shown)
		return report, nil
	case err != nil:
		return errorReport(report, ErrFileReadError, err), err
	case info.IsDir() || !hasExtension(path, o.extension):
		report.Status = statusNotNotebook
		report.Message = ui.Errorf("Not a notebook file: %s", shown)
		return report, nil
	}

	result, err := fixer.Fix(path)
	if err != nil {
		return errorReport(report, errorCode(err), err), err
	}

	report.Status = result.Outcome.String()
	report.Changed = result.Changed()
	report.Written = result.Written
	report.Message = outcomeMessage(result.Outcome, shown, o.dryRun)
	return report, nil
}

// hasExtension reports whether path's base name ends in ext and has a stem,
// so a file named just ".ipynb" does not count.
func hasExtension(path, ext string) bool {
	base := filepath.Base(path)
	return len(base) > len(ext) && filepath.Ext(base) == ext
}

func errorReport(report fileReport, code string, err error) fileReport {
	report.Status = statusError
	report.Message = ui.Errorf("%v", err)
	report.Error = &ErrorInfo{Code: code, Message: err.Error()}
	return report
}

func errorCode(err error) string {
	var fe *widgets.FileError
	if errors.As(err, &fe) {
		switch fe.Op {
		case widgets.OpRead:
			return ErrFileReadError
		case widgets.OpDecode:
			return ErrNotebookInvalid
		case widgets.OpWrite:
			return ErrFileWriteError
		}
	}
	return ErrInternal
}

func outcomeMessage(outcome widgets.Outcome, path string, dryRun bool) string {
	switch outcome {
	case widgets.NoMetadata:
		return fmt.Sprintf("No metadata found in %s", path)
	case widgets.NoWidgets:
		return fmt.Sprintf("No widgets metadata found in %s", path)
	case widgets.AlreadyCorrect:
		return ui.Successf("%s already has correct structure", path)
	case widgets.Restructured:
		if dryRun {
			return ui.Successf("Would fix %s", path)
		}
		return ui.Successf("Fixed %s", path)
	case widgets.Removed:
		if dryRun {
			return ui.Successf("Would remove widgets metadata from %s", path)
		}
		return ui.Successf("Removed widgets metadata from %s", path)
	}
	return ui.Warningf("%s has unexpected widgets structure", path)
}

func printSummary(w io.Writer, summary fixSummary) {
	verb := "fixed"
	if summary.DryRun {
		verb = "would be fixed"
	}
	fmt.Fprintf(w, "\n%s\n", ui.Hint(fmt.Sprintf("%d notebook(s) %s", summary.Fixed, verb)))
}
