package template

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santiagomed/devspark/internal/fs"
	"github.com/santiagomed/devspark/internal/plan"
	"github.com/tidwall/gjson"
)

// Substitute renders every path and content of def with ctx. Manifest files
// holding JSON are substituted value by value on the parsed document, so the
// result stays valid JSON whatever the values contain.
func Substitute(def *Definition, ctx Context) (plan.Document, error) {
	doc := plan.Document{Source: plan.SchemaLegacy}
	if len(def.Files) > 0 || len(def.Directories) > 0 {
		doc.Source = plan.SchemaCurrent
	}

	for _, dir := range def.DirectoryStructure {
		doc.Directories = append(doc.Directories, ctx.Render(dir))
	}
	add := func(p string, raw json.RawMessage) error {
		p = ctx.Render(p)
		content, err := renderContent(p, raw, ctx)
		if err != nil {
			return fmt.Errorf("template %s, file %s: %w", def.Name, p, err)
		}
		doc.Files = append(doc.Files, plan.File{Path: p, Content: content})
		return nil
	}
	for _, e := range def.FilesToCreate {
		if err := add(e.Path, e.Content); err != nil {
			return plan.Document{}, err
		}
	}
	for _, e := range def.Files {
		if err := add(e.Path, e.Content); err != nil {
			return plan.Document{}, err
		}
	}
	for _, d := range def.Directories {
		dir := ctx.Render(d.Path)
		doc.Directories = append(doc.Directories, dir)
		for _, e := range d.Files {
			if err := add(dir+"/"+e.Path, e.Content); err != nil {
				return plan.Document{}, err
			}
		}
	}
	return doc, nil
}

func renderContent(p string, raw json.RawMessage, ctx Context) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", nil
	}
	v := gjson.ParseBytes(raw)
	switch {
	case v.Type == gjson.Null:
		return "", nil
	case v.IsObject() || v.IsArray():
		return SubstituteJSON(v.Raw, ctx)
	case v.Type == gjson.String:
		s := v.String()
		if fs.IsManifest(p) && gjson.Valid(s) && gjson.Parse(s).IsObject() {
			return SubstituteJSON(s, ctx)
		}
		return ctx.Render(s), nil
	default:
		return v.Raw, nil
	}
}

// SubstituteJSON renders every key and string value of a JSON document and
// returns it indented with two spaces, keys in their original order.
func SubstituteJSON(doc string, ctx Context) (string, error) {
	if !gjson.Valid(doc) {
		return "", fmt.Errorf("invalid JSON document")
	}
	var compact bytes.Buffer
	if err := writeValue(&compact, gjson.Parse(doc), ctx); err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return "", err
	}
	out.WriteByte('\n')
	return out.String(), nil
}

func writeValue(buf *bytes.Buffer, v gjson.Result, ctx Context) error {
	switch {
	case v.IsObject():
		buf.WriteByte('{')
		first := true
		var err error
		v.ForEach(func(key, value gjson.Result) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err = writeString(buf, ctx.Render(key.String())); err != nil {
				return false
			}
			buf.WriteByte(':')
			err = writeValue(buf, value, ctx)
			return err == nil
		})
		buf.WriteByte('}')
		return err
	case v.IsArray():
		buf.WriteByte('[')
		var err error
		for i, item := range v.Array() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err = writeValue(buf, item, ctx); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case v.Type == gjson.String:
		return writeString(buf, ctx.Render(v.String()))
	default:
		buf.WriteString(v.Raw)
		return nil
	}
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode appends a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}
