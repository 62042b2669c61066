package notebook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/aidanlsb/nbfix/internal/atomicfile"
)

// DefaultIndent is the indentation nbformat uses when it writes notebooks.
const DefaultIndent = 1

// ErrNotObject is returned when a file decodes to something other than a JSON object.
var ErrNotObject = errors.New("top-level value is not a JSON object")

// Document is a decoded notebook file.
type Document struct {
	root *Object
}

// Root returns the top-level object.
func (d *Document) Root() *Object {
	return d.root
}

// Metadata returns the notebook's metadata block when it is an object.
func (d *Document) Metadata() (*Object, bool) {
	return d.root.GetObject("metadata")
}

// Load reads and decodes the notebook at path.
//
// Read failures are returned as *fs.PathError; decode failures wrap the
// underlying *json.SyntaxError or ErrNotObject.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

// ErrInvalidUTF8 is returned for input that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("invalid UTF-8 in notebook")

// Decode parses data into a Document.
func Decode(data []byte) (*Document, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("unexpected %v after top-level value", tok)
	}

	root, ok := v.(*Object)
	if !ok {
		return nil, ErrNotObject
	}
	return &Document{root: root}, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		return decodeObject(dec)
	case '[':
		return decodeArray(dec)
	default:
		return nil, fmt.Errorf("unexpected %q", rune(delim))
	}
}

func decodeObject(dec *json.Decoder) (*Object, error) {
	obj := NewObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key %v is not a string", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		obj.Set(key, value)
	}
	if err := closeDelim(dec); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	items := []any{}
	for dec.More() {
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		items = append(items, value)
	}
	if err := closeDelim(dec); err != nil {
		return nil, err
	}
	return items, nil
}

func closeDelim(dec *json.Decoder) error {
	_, err := dec.Token()
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Save encodes the document and atomically replaces path with it.
func (d *Document) Save(path string, indent int) error {
	data, err := d.Marshal(indent)
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(path, data, 0)
}
