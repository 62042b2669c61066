package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Marshal encodes the document the way nbformat writes notebooks: indent
// spaces per level, ": " between key and value, non-ASCII text left as is,
// and a single trailing newline.
func (d *Document) Marshal(indent int) ([]byte, error) {
	if indent < 0 {
		return nil, fmt.Errorf("indent must not be negative, got %d", indent)
	}
	e := &encoder{indent: strings.Repeat(" ", indent)}
	if err := e.value(d.root, 0); err != nil {
		return nil, err
	}
	e.buf.WriteByte('\n')
	return e.buf.Bytes(), nil
}

type encoder struct {
	buf    bytes.Buffer
	indent string
}

func (e *encoder) newline(depth int) {
	e.buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		e.buf.WriteString(e.indent)
	}
}

func (e *encoder) value(v any, depth int) error {
	switch v := v.(type) {
	case nil:
		e.buf.WriteString("null")
	case bool:
		if v {
			e.buf.WriteString("true")
		} else {
			e.buf.WriteString("false")
		}
	case string:
		writeString(&e.buf, v)
	case json.Number:
		e.buf.WriteString(v.String())
	case *Object:
		return e.object(v, depth)
	case []any:
		return e.array(v, depth)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %T: %w", v, err)
		}
		e.buf.Write(data)
	}
	return nil
}

func (e *encoder) object(o *Object, depth int) error {
	if o.Len() == 0 {
		e.buf.WriteString("{}")
		return nil
	}
	e.buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		writeString(&e.buf, key)
		e.buf.WriteString(": ")
		if err := e.value(o.values[key], depth+1); err != nil {
			return err
		}
	}
	e.newline(depth)
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) array(items []any, depth int) error {
	if len(items) == 0 {
		e.buf.WriteString("[]")
		return nil
	}
	e.buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		if err := e.value(item, depth+1); err != nil {
			return err
		}
	}
	e.newline(depth)
	e.buf.WriteByte(']')
	return nil
}

const hexDigits = "0123456789abcdef"

// writeString quotes s escaping only what JSON requires. encoding/json would
// also escape <, >, & and U+2028/U+2029, which notebook writers leave alone.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			buf.WriteRune(r)
			i += size
			continue
		}
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if c < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[c>>4])
				buf.WriteByte(hexDigits[c&0xf])
			} else {
				buf.WriteByte(c)
			}
		}
		i++
	}
	buf.WriteByte('"')
}
