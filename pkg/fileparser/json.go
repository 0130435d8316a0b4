// Package fileparser turns uploaded plan and dataset files into a
// format-agnostic intermediate form.
package fileparser

import (
	"bytes"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

var (
	ErrNoJSONValue = errors.New("file does not contain a JSON object or array")
	ErrNotAnObject = errors.New("expected a JSON object")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Member is one key/value pair of a JSON object, in document order.
type Member struct {
	Key   string
	Value json.RawMessage
}

// Document is the outermost JSON value of a buffer, rebuilt token by token.
// Members (or Items, for arrays) that were fully read before a syntax error
// are kept; the error itself is reported in Tail.
type Document struct {
	Kind    jx.Type
	Members []Member
	Items   []json.RawMessage
	Tail    error
}

// Complete reports whether the whole outermost value was read without error.
func (d *Document) Complete() bool {
	return d.Tail == nil
}

// Bytes re-encodes what was read as a well-formed JSON value.
func (d *Document) Bytes() []byte {
	var b bytes.Buffer
	switch d.Kind {
	case jx.Object:
		b.WriteByte('{')
		for i, m := range d.Members {
			if i > 0 {
				b.WriteByte(',')
			}
			key, _ := json.Marshal(m.Key)
			b.Write(key)
			b.WriteByte(':')
			b.Write(m.Value)
		}
		b.WriteByte('}')
	case jx.Array:
		b.WriteByte('[')
		for i, item := range d.Items {
			if i > 0 {
				b.WriteByte(',')
			}
			b.Write(item)
		}
		b.WriteByte(']')
	}
	return b.Bytes()
}

// ReadDocument tokenizes buf and collects the children of its outermost
// object or array.
func ReadDocument(buf []byte) (*Document, error) {
	buf = bytes.TrimPrefix(buf, utf8BOM)
	dec := jx.DecodeBytes(buf)
	doc := &Document{Kind: dec.Next()}

	switch doc.Kind {
	case jx.Object:
		doc.Tail = dec.Obj(func(d *jx.Decoder, key string) error {
			raw, err := d.Raw()
			if err != nil {
				return errors.Wrapf(err, "member %q", key)
			}
			doc.Members = append(doc.Members, Member{Key: key, Value: clone(raw)})
			return nil
		})
	case jx.Array:
		doc.Tail = dec.Arr(func(d *jx.Decoder) error {
			raw, err := d.Raw()
			if err != nil {
				return errors.Wrapf(err, "item %d", len(doc.Items))
			}
			doc.Items = append(doc.Items, clone(raw))
			return nil
		})
	default:
		return nil, ErrNoJSONValue
	}
	return doc, nil
}

// DecodeJSON reads buf incrementally and unmarshals whatever outermost value
// could be recovered into v. The boolean result is false when malformed
// trailing content was dropped.
func DecodeJSON(buf []byte, v any) (bool, error) {
	doc, err := ReadDocument(buf)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(doc.Bytes(), v); err != nil {
		return false, errors.Wrap(err, "decode document")
	}
	return doc.Complete(), nil
}

// ObjectMembers returns the members of a JSON object in document order,
// which encoding/json maps do not preserve.
func ObjectMembers(raw json.RawMessage) ([]Member, error) {
	dec := jx.DecodeBytes(raw)
	if dec.Next() != jx.Object {
		return nil, ErrNotAnObject
	}
	var members []Member
	err := dec.Obj(func(d *jx.Decoder, key string) error {
		v, err := d.Raw()
		if err != nil {
			return err
		}
		members = append(members, Member{Key: key, Value: clone(v)})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "read object")
	}
	return members, nil
}

func clone(raw jx.Raw) json.RawMessage {
	return append(json.RawMessage(nil), raw...)
}
