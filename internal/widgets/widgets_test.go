package widgets

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/aidanlsb/nbfix/internal/notebook"
)

const legacyNotebook = `{"cells": [], "metadata": {"kernelspec": {"name": "python3"}, "widgets": {"id1": {"model_name": "IntSlider"}, "id2": {"model_name": "Output"}}, "language_info": {"name": "python"}}, "nbformat": 4}`

func decode(t *testing.T, src string) *notebook.Document {
	t.Helper()
	doc, err := notebook.Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode %s: %v", src, err)
	}
	return doc
}

func writeNotebook(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "restructure", want: Restructure},
		{in: "delete", want: Delete},
		{in: "  DELETE ", want: Delete},
		{in: "wrap", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParsePolicy(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParsePolicy(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePolicy(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParsePolicy(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPolicyFlagValue(t *testing.T) {
	var p Policy
	if p.String() != "restructure" {
		t.Fatalf("zero policy = %q, want restructure", p.String())
	}
	if err := p.Set("delete"); err != nil {
		t.Fatal(err)
	}
	if p != Delete {
		t.Fatalf("after Set(delete) policy = %v", p)
	}
	if err := p.Set("bogus"); err == nil {
		t.Fatal("expected error for bogus policy")
	}
	if p != Delete {
		t.Fatal("failed Set must not change the policy")
	}
}

func TestApplyRestructure(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Outcome
	}{
		{name: "no metadata", src: `{"cells": []}`, want: NoMetadata},
		{name: "no widgets", src: `{"metadata": {"kernelspec": {}}}`, want: NoWidgets},
		{name: "metadata not an object", src: `{"metadata": []}`, want: NoWidgets},
		{name: "already correct", src: `{"metadata": {"widgets": {"state": {"id1": {}}}}}`, want: AlreadyCorrect},
		{name: "legacy", src: legacyNotebook, want: Restructured},
		{name: "empty widgets", src: `{"metadata": {"widgets": {}}}`, want: Unexpected},
		{name: "widgets list", src: `{"metadata": {"widgets": [1]}}`, want: Unexpected},
		{name: "first value scalar", src: `{"metadata": {"widgets": {"id1": 3}}}`, want: Unexpected},
		{name: "state not an object", src: `{"metadata": {"widgets": {"state": 3, "id1": {}}}}`, want: Unexpected},
		{name: "state later with legacy first", src: `{"metadata": {"widgets": {"id1": {}, "state": 3}}}`, want: Restructured},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := decode(t, tt.src)
			if got := Apply(doc, Restructure); got != tt.want {
				t.Fatalf("Apply = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyRestructureWrapsExistingState(t *testing.T) {
	doc := decode(t, legacyNotebook)
	if got := Apply(doc, Restructure); got != Restructured {
		t.Fatalf("Apply = %v", got)
	}

	meta, _ := doc.Metadata()
	if got, want := meta.Keys(), []string{"kernelspec", "widgets", "language_info"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("metadata keys = %v, want %v", got, want)
	}
	w, ok := meta.GetObject("widgets")
	if !ok {
		t.Fatal("widgets is not an object")
	}
	if got := w.Keys(); !reflect.DeepEqual(got, []string{"state"}) {
		t.Fatalf("widgets keys = %v, want [state]", got)
	}
	state, _ := w.GetObject("state")
	if got, want := state.Keys(), []string{"id1", "id2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("state keys = %v, want %v", got, want)
	}
}

func TestApplyDelete(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Outcome
	}{
		{name: "no metadata", src: `{"cells": []}`, want: NoMetadata},
		{name: "no widgets", src: `{"metadata": {}}`, want: NoWidgets},
		{name: "legacy", src: legacyNotebook, want: Removed},
		{name: "target form", src: `{"metadata": {"widgets": {"state": {}}}}`, want: Removed},
		{name: "odd shape", src: `{"metadata": {"widgets": "x"}}`, want: Removed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := decode(t, tt.src)
			if got := Apply(doc, Delete); got != tt.want {
				t.Fatalf("Apply = %v, want %v", got, tt.want)
			}
			if meta, ok := doc.Metadata(); ok {
				if _, present := meta.Get("widgets"); present {
					t.Fatal("widgets still present")
				}
			}
		})
	}
}

func TestFixRestructureIsIdempotent(t *testing.T) {
	path := writeNotebook(t, t.TempDir(), "demo.ipynb", legacyNotebook)
	f := NewFixer(Restructure)

	first, err := f.Fix(path)
	if err != nil {
		t.Fatalf("first Fix: %v", err)
	}
	if !first.Changed() || !first.Written {
		t.Fatalf("first Fix = %+v, want changed and written", first)
	}
	afterFirst := readFile(t, path)
	if !strings.Contains(afterFirst, "\"widgets\": {\n   \"state\": {\n    \"id1\"") {
		t.Fatalf("unexpected output:\n%s", afterFirst)
	}
	if !strings.HasSuffix(afterFirst, "}\n") || strings.HasSuffix(afterFirst, "\n\n") {
		t.Fatal("file must end with exactly one newline")
	}

	second, err := f.Fix(path)
	if err != nil {
		t.Fatalf("second Fix: %v", err)
	}
	if second.Changed() || second.Outcome != AlreadyCorrect {
		t.Fatalf("second Fix = %+v, want already correct", second)
	}
	if readFile(t, path) != afterFirst {
		t.Fatal("second Fix modified the file")
	}
}

func TestFixDeleteIsIdempotent(t *testing.T) {
	path := writeNotebook(t, t.TempDir(), "demo.ipynb", legacyNotebook)
	f := NewFixer(Delete)

	first, err := f.Fix(path)
	if err != nil {
		t.Fatal(err)
	}
	if first.Outcome != Removed {
		t.Fatalf("first outcome = %v, want removed", first.Outcome)
	}
	if strings.Contains(readFile(t, path), "widgets") {
		t.Fatal("widgets still in file")
	}

	second, err := f.Fix(path)
	if err != nil {
		t.Fatal(err)
	}
	if second.Outcome != NoWidgets || second.Changed() {
		t.Fatalf("second outcome = %v, want no_widgets", second.Outcome)
	}
}

func TestFixLeavesUnchangedFilesUntouched(t *testing.T) {
	dir := t.TempDir()
	inputs := map[string]string{
		"nometa.ipynb":  `{"cells":[],"nbformat":4}`,
		"correct.ipynb": `{"metadata":{"widgets":{"state":{}}},"nbformat":4}`,
		"odd.ipynb":     `{"metadata":{"widgets":{"id":1}}}`,
	}
	for name, content := range inputs {
		path := writeNotebook(t, dir, name, content)
		res, err := NewFixer(Restructure).Fix(path)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if res.Changed() || res.Written {
			t.Fatalf("%s: result %+v, want unchanged", name, res)
		}
		if got := readFile(t, path); got != content {
			t.Fatalf("%s rewritten: %q", name, got)
		}
	}
}

func TestFixDryRunDoesNotWrite(t *testing.T) {
	path := writeNotebook(t, t.TempDir(), "demo.ipynb", legacyNotebook)
	f := NewFixer(Restructure)
	f.DryRun = true

	res, err := f.Fix(path)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Changed() || res.Written {
		t.Fatalf("dry run result = %+v, want changed but not written", res)
	}
	if readFile(t, path) != legacyNotebook {
		t.Fatal("dry run modified the file")
	}
}

func TestFixErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewFixer(Restructure).Fix(filepath.Join(dir, "missing.ipynb"))
	var fe *FileError
	if !errors.As(err, &fe) || fe.Op != OpRead {
		t.Fatalf("missing file error = %v, want read FileError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file error should wrap ErrNotExist: %v", err)
	}

	bad := writeNotebook(t, dir, "bad.ipynb", `{"metadata": `)
	_, err = NewFixer(Restructure).Fix(bad)
	if !errors.As(err, &fe) || fe.Op != OpDecode {
		t.Fatalf("malformed file error = %v, want decode FileError", err)
	}

	invalid := "{\"metadata\": {\"title\": \"a\xffb\", \"widgets\": {\"w\": {}}}}"
	binary := writeNotebook(t, dir, "binary.ipynb", invalid)
	_, err = NewFixer(Restructure).Fix(binary)
	if !errors.As(err, &fe) || fe.Op != OpDecode || !errors.Is(err, notebook.ErrInvalidUTF8) {
		t.Fatalf("invalid UTF-8 error = %v, want decode FileError", err)
	}
	if readFile(t, binary) != invalid {
		t.Fatal("invalid UTF-8 notebook was rewritten")
	}

	list := writeNotebook(t, dir, "list.ipynb", `[]`)
	_, err = NewFixer(Restructure).Fix(list)
	if !errors.Is(err, notebook.ErrNotObject) {
		t.Fatalf("array notebook error = %v, want ErrNotObject", err)
	}
}

func TestFixPreservesNonASCII(t *testing.T) {
	src := `{"metadata": {"title": "Données — 日本", "widgets": {"w": {"label": "ü"}}}}`
	path := writeNotebook(t, t.TempDir(), "intl.ipynb", src)

	if _, err := NewFixer(Restructure).Fix(path); err != nil {
		t.Fatal(err)
	}
	got := readFile(t, path)
	for _, want := range []string{`"Données — 日本"`, `"ü"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("output lost %s:\n%s", want, got)
		}
	}
}

func TestFixWritesThroughSymlink(t *testing.T) {
	dir := t.TempDir()
	target := writeNotebook(t, dir, "real.ipynb", legacyNotebook)
	link := filepath.Join(dir, "link.ipynb")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	res, err := NewFixer(Restructure).Fix(link)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Written {
		t.Fatalf("result = %+v, want written", res)
	}
	if st, err := os.Lstat(link); err != nil || st.Mode()&os.ModeSymlink == 0 {
		t.Fatalf("link no longer a symlink (err %v)", err)
	}
	if !strings.Contains(readFile(t, target), `"state"`) {
		t.Fatal("symlink target was not fixed")
	}
}
