package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// FileMap is a path to content mapping that keeps the order in which the
// paths appeared on the wire.
type FileMap []File

func (m FileMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalString(f.Path)
		if err != nil {
			return nil, err
		}
		v, err := marshalString(f.Content)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object in document order. A repeated path keeps
// its first position and its last content.
func (m *FileMap) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("files_to_create must be an object, got %s", describeToken(tok))
	}

	out := FileMap{}
	seen := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		content, err := decodeContent(raw)
		if err != nil {
			return fmt.Errorf("content of %s: %w", key, err)
		}
		if i, ok := seen[key]; ok {
			out[i].Content = content
			continue
		}
		seen[key] = len(out)
		out = append(out, File{Path: key, Content: content})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

func (f *File) UnmarshalJSON(b []byte) error {
	var aux struct {
		Path    *string         `json:"path"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.Path == nil {
		return errors.New("file entry without path")
	}
	content, err := decodeContent(aux.Content)
	if err != nil {
		return fmt.Errorf("content of %s: %w", *aux.Path, err)
	}
	f.Path = *aux.Path
	f.Content = content
	return nil
}

// decodeContent accepts a JSON string as file content. Structured values
// (a package.json emitted as an object, say) are kept as indented JSON text
// and scalars as their literal text; null is empty.
func decodeContent(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return string(raw), nil
	}
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func describeToken(tok json.Token) string {
	switch t := tok.(type) {
	case json.Delim:
		return string(t)
	case string:
		return "string"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", t)
	}
}
