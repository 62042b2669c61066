package widgets

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/aidanlsb/nbfix/internal/notebook"
)

// Outcome describes what Apply found and did.
type Outcome int

const (
	NoMetadata Outcome = iota
	NoWidgets
	AlreadyCorrect
	Unexpected
	Restructured
	Removed
)

var outcomeNames = [...]string{
	NoMetadata:     "no_metadata",
	NoWidgets:      "no_widgets",
	AlreadyCorrect: "already_correct",
	Unexpected:     "unexpected_structure",
	Restructured:   "restructured",
	Removed:        "removed",
}

func (o Outcome) String() string {
	if int(o) >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Changed reports whether the outcome modified the document.
func (o Outcome) Changed() bool {
	return o == Restructured || o == Removed
}

// Apply repairs doc in memory according to policy.
func Apply(doc *notebook.Document, policy Policy) Outcome {
	if _, ok := doc.Root().Get("metadata"); !ok {
		return NoMetadata
	}
	meta, ok := doc.Metadata()
	if !ok {
		// A non-object metadata block cannot hold widgets.
		return NoWidgets
	}
	widgets, ok := meta.Get("widgets")
	if !ok {
		return NoWidgets
	}

	if policy == Delete {
		meta.Delete("widgets")
		return Removed
	}
	return restructure(meta, widgets)
}

// restructure wraps a legacy widget map, keyed by widget id, under "state".
func restructure(meta *notebook.Object, widgets any) Outcome {
	obj, ok := widgets.(*notebook.Object)
	if !ok {
		return Unexpected
	}
	if _, ok := obj.GetObject("state"); ok {
		return AlreadyCorrect
	}

	firstKey, firstValue, ok := obj.First()
	if !ok || firstKey == "state" {
		return Unexpected
	}
	if _, isObject := firstValue.(*notebook.Object); !isObject {
		return Unexpected
	}

	wrapped := notebook.NewObject()
	wrapped.Set("state", obj)
	meta.Set("widgets", wrapped)
	return Restructured
}

// Result is the outcome of fixing one file.
type Result struct {
	Path    string
	Outcome Outcome
	// Written is false for unchanged files and in dry-run mode.
	Written bool
}

// Changed reports whether the file needed a fix.
func (r Result) Changed() bool {
	return r.Outcome.Changed()
}

// Fixer applies a policy to notebook files on disk.
type Fixer struct {
	Policy Policy
	Indent int
	DryRun bool
	Logger *slog.Logger
}

// NewFixer returns a Fixer using nbformat's indentation.
func NewFixer(policy Policy) *Fixer {
	return &Fixer{Policy: policy, Indent: notebook.DefaultIndent}
}

// Fix loads path, repairs its widget metadata and writes it back when it
// changed. Unchanged files are never rewritten.
func (f *Fixer) Fix(path string) (Result, error) {
	log := f.logger().With("path", path, "policy", f.Policy.String())
	result := Result{Path: path}

	doc, err := notebook.Load(path)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return result, &FileError{Path: path, Op: OpRead, Err: err}
		}
		return result, &FileError{Path: path, Op: OpDecode, Err: err}
	}
	log.Debug("loaded notebook", "keys", doc.Root().Len())

	result.Outcome = Apply(doc, f.Policy)
	log.Debug("inspected widgets metadata", "outcome", result.Outcome.String())
	if !result.Outcome.Changed() || f.DryRun {
		return result, nil
	}

	if err := doc.Save(path, f.Indent); err != nil {
		return result, &FileError{Path: path, Op: OpWrite, Err: err}
	}
	result.Written = true
	log.Debug("wrote notebook", "indent", f.Indent)
	return result, nil
}

func (f *Fixer) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}
