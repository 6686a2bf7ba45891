// Package gffjson converts between the gff Value Model and the reference
// community JSON shape (__data_type, __struct_id, and type/value/value64
// field objects).
package gffjson

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nwneedata/ndugff/gff"
)

// Options configures the JSON codec. The zero value is a sane default.
type Options struct {
	// Indent, when non-empty, is passed to json.Indent for pretty output.
	Indent string
}

// Encode converts a Document to its JSON byte representation.
func Encode(doc *gff.Document, opts *Options) ([]byte, error) {
	if opts == nil {
		opts = &Options{}
	}

	root := encodeFieldMap(doc.Root)
	root["__data_type"] = doc.MagicTag

	// encoding/json emits map keys sorted lexically; the spec explicitly
	// allows this since JSON objects are unordered.
	data, err := json.Marshal(root)
	if err != nil {
		return nil, &gff.CodecError{Kind: gff.IoFailure, Msg: "marshal json", Err: err}
	}
	if opts.Indent != "" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", opts.Indent); err != nil {
			return nil, &gff.CodecError{Kind: gff.IoFailure, Msg: "indent json", Err: err}
		}
		return buf.Bytes(), nil
	}
	return data, nil
}

// encodeFieldMap returns the flattened label->fieldObject map for a struct,
// used both for the root object (merged with __data_type) and for nameless
// list-element structs (merged with __struct_id).
func encodeFieldMap(s *gff.StructValue) map[string]interface{} {
	out := make(map[string]interface{}, len(s.Fields))
	for _, f := range s.Fields {
		out[f.Label] = encodeField(f.Value)
	}
	return out
}

func encodeField(v gff.Value) interface{} {
	switch v.Type {
	case gff.Struct:
		// __struct_id is duplicated as a sibling of type/value and again
		// inside value, matching the reference community JSON shape.
		inner := encodeFieldMap(v.Struct)
		inner["__struct_id"] = v.Struct.ID
		return map[string]interface{}{
			"type":        gff.JSONName(v.Type),
			"value":       inner,
			"__struct_id": v.Struct.ID,
		}
	case gff.List:
		items := make([]interface{}, len(v.List))
		for i, item := range v.List {
			m := encodeFieldMap(item)
			m["__struct_id"] = item.ID
			items[i] = m
		}
		return map[string]interface{}{
			"type":  gff.JSONName(v.Type),
			"value": items,
		}
	case gff.Void:
		return map[string]interface{}{
			"type":    gff.JSONName(v.Type),
			"value64": base64.StdEncoding.EncodeToString(v.Bin),
		}
	case gff.CExoLocString:
		loc := make(map[string]interface{}, len(v.Loc.Entries)+1)
		if v.Loc.StrRef != gff.SentinelStrRef {
			loc["id"] = v.Loc.StrRef
		}
		for id, text := range v.Loc.Entries {
			loc[strconv.FormatUint(uint64(id), 10)] = text
		}
		return map[string]interface{}{
			"type":  gff.JSONName(v.Type),
			"value": loc,
		}
	default:
		return map[string]interface{}{
			"type":  gff.JSONName(v.Type),
			"value": scalarValue(v),
		}
	}
}

func scalarValue(v gff.Value) interface{} {
	switch v.Type {
	case gff.Byte:
		return v.U8
	case gff.Char:
		return v.I8
	case gff.Word:
		return v.U16
	case gff.Short:
		return v.I16
	case gff.Dword:
		return v.U32
	case gff.Int:
		return v.I32
	case gff.Dword64:
		return v.U64
	case gff.Int64:
		return v.I64
	case gff.Float:
		return v.F32
	case gff.Double:
		return v.F64
	case gff.ResRef, gff.CExoString, gff.MagicTag:
		return v.Str
	default:
		return nil
	}
}

// Decode parses a JSON byte slice back into a Document.
func Decode(data []byte, opts *Options) (*gff.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	obj, err := decodeOrderedObject(dec)
	if err != nil {
		return nil, err
	}

	magic, ok := obj.get("__data_type")
	if !ok {
		return nil, &gff.CodecError{Kind: gff.MalformedText, Path: "$", Msg: "missing __data_type"}
	}
	magicStr, ok := magic.(string)
	if !ok {
		return nil, &gff.CodecError{Kind: gff.TypeMismatch, Path: "$.__data_type", Msg: "expected string"}
	}

	root := gff.NewStruct(gff.SentinelU32)
	for _, k := range obj.keys {
		if k == "__data_type" {
			continue
		}
		v, err := decodeField(obj.vals[k], "$."+k)
		if err != nil {
			return nil, err
		}
		root.Set(k, v)
	}
	return &gff.Document{MagicTag: magicStr, Root: root}, nil
}

// orderedObject preserves JSON object key order, something encoding/json's
// map decoding does not do, so decoded struct fields follow the key order
// of the input document. Encode writes keys in sorted order, so a struct's
// original field order is not kept across an Encode/Decode round trip.
type orderedObject struct {
	keys []string
	vals map[string]interface{}
}

func (o *orderedObject) get(k string) (interface{}, bool) {
	v, ok := o.vals[k]
	return v, ok
}

func decodeOrderedObject(dec *json.Decoder) (*orderedObject, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, &gff.CodecError{Kind: gff.MalformedText, Msg: "read token", Err: err}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, &gff.CodecError{Kind: gff.MalformedText, Msg: "expected object"}
	}
	obj := &orderedObject{vals: make(map[string]interface{})}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &gff.CodecError{Kind: gff.MalformedText, Msg: "read key", Err: err}
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, &gff.CodecError{Kind: gff.MalformedText, Msg: "expected string key"}
		}
		val, err := decodeAny(dec)
		if err != nil {
			return nil, err
		}
		obj.keys = append(obj.keys, key)
		obj.vals[key] = val
	}
	if _, err := dec.Token(); err != nil { // consume closing '}'
		return nil, &gff.CodecError{Kind: gff.MalformedText, Msg: "read closing brace", Err: err}
	}
	return obj, nil
}

func decodeAny(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, &gff.CodecError{Kind: gff.MalformedText, Msg: "read token", Err: err}
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &orderedObject{vals: make(map[string]interface{})}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key := keyTok.(string)
				val, err := decodeAny(dec)
				if err != nil {
					return nil, err
				}
				obj.keys = append(obj.keys, key)
				obj.vals[key] = val
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			var items []interface{}
			for dec.More() {
				v, err := decodeAny(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return items, nil
		}
	}
	return tok, nil
}

func decodeField(raw interface{}, path string) (gff.Value, error) {
	obj, ok := raw.(*orderedObject)
	if !ok {
		return gff.Value{}, &gff.CodecError{Kind: gff.TypeMismatch, Path: path, Msg: "expected field object"}
	}
	typeRaw, ok := obj.get("type")
	if !ok {
		return gff.Value{}, &gff.CodecError{Kind: gff.MalformedText, Path: path, Msg: "missing type"}
	}
	typeName, ok := typeRaw.(string)
	if !ok {
		return gff.Value{}, &gff.CodecError{Kind: gff.TypeMismatch, Path: path, Msg: "type is not a string"}
	}
	typ, ok := gff.TypeByJSONName(typeName)
	if !ok {
		return gff.Value{}, &gff.CodecError{Kind: gff.UnknownType, Path: path, Msg: fmt.Sprintf("unknown JSON type %q", typeName)}
	}

	switch typ {
	case gff.Struct:
		inner, ok := obj.get("value")
		if !ok {
			return gff.Value{}, &gff.CodecError{Kind: gff.MalformedText, Path: path, Msg: "struct missing value"}
		}
		s, err := decodeStructFields(inner, obj, path)
		if err != nil {
			return gff.Value{}, err
		}
		return gff.NewStructValue(s), nil
	case gff.List:
		inner, ok := obj.get("value")
		if !ok {
			return gff.Value{}, &gff.CodecError{Kind: gff.MalformedText, Path: path, Msg: "list missing value"}
		}
		items, ok := inner.([]interface{})
		if !ok {
			return gff.Value{}, &gff.CodecError{Kind: gff.TypeMismatch, Path: path, Msg: "list value is not an array"}
		}
		out := make([]*gff.StructValue, len(items))
		for i, raw := range items {
			s, err := decodeStructFields(raw, nil, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return gff.Value{}, err
			}
			out[i] = s
		}
		return gff.NewList(out), nil
	case gff.Void:
		b64, ok := obj.get("value64")
		if !ok {
			return gff.Value{}, &gff.CodecError{Kind: gff.MalformedText, Path: path, Msg: "void missing value64"}
		}
		s, ok := b64.(string)
		if !ok {
			return gff.Value{}, &gff.CodecError{Kind: gff.TypeMismatch, Path: path, Msg: "value64 is not a string"}
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return gff.Value{}, &gff.CodecError{Kind: gff.MalformedText, Path: path, Msg: "invalid base64", Err: err}
		}
		return gff.NewVoid(decoded), nil
	case gff.CExoLocString:
		inner, ok := obj.get("value")
		if !ok {
			return gff.Value{}, &gff.CodecError{Kind: gff.MalformedText, Path: path, Msg: "cexolocstring missing value"}
		}
		locObj, ok := inner.(*orderedObject)
		if !ok {
			return gff.Value{}, &gff.CodecError{Kind: gff.TypeMismatch, Path: path, Msg: "cexolocstring value is not an object"}
		}
		strref := gff.SentinelStrRef
		entries := make(map[uint32]string)
		for _, k := range locObj.keys {
			v := locObj.vals[k]
			if k == "id" {
				n, err := toUint32(v)
				if err != nil {
					return gff.Value{}, &gff.CodecError{Kind: gff.TypeMismatch, Path: path + ".id", Msg: "id is not a number"}
				}
				strref = n
				continue
			}
			langID, err := strconv.ParseUint(k, 10, 32)
			if err != nil {
				return gff.Value{}, &gff.CodecError{Kind: gff.MalformedText, Path: path, Msg: "invalid language id " + k}
			}
			text, ok := v.(string)
			if !ok {
				return gff.Value{}, &gff.CodecError{Kind: gff.TypeMismatch, Path: path, Msg: "language text is not a string"}
			}
			entries[uint32(langID)] = gff.NormalizeText(text)
		}
		return gff.NewCExoLocString(strref, entries), nil
	default:
		value, ok := obj.get("value")
		if !ok {
			return gff.Value{}, &gff.CodecError{Kind: gff.MalformedText, Path: path, Msg: "missing value"}
		}
		return decodeScalar(typ, value, path)
	}
}

// decodeStructFields builds a StructValue from either a flattened struct
// object (when wrapper carries __struct_id alongside "value") or a nameless
// list-element object (where __struct_id is inline with the fields).
func decodeStructFields(raw interface{}, wrapper *orderedObject, path string) (*gff.StructValue, error) {
	obj, ok := raw.(*orderedObject)
	if !ok {
		return nil, &gff.CodecError{Kind: gff.TypeMismatch, Path: path, Msg: "expected struct object"}
	}
	id := gff.SentinelU32
	if wrapper != nil {
		if raw, ok := wrapper.get("__struct_id"); ok {
			n, err := toUint32(raw)
			if err != nil {
				return nil, &gff.CodecError{Kind: gff.TypeMismatch, Path: path, Msg: "__struct_id is not a number"}
			}
			id = n
		}
	}
	s := gff.NewStruct(id)
	for _, k := range obj.keys {
		if k == "__struct_id" {
			n, err := toUint32(obj.vals[k])
			if err != nil {
				return nil, &gff.CodecError{Kind: gff.TypeMismatch, Path: path, Msg: "__struct_id is not a number"}
			}
			s.ID = n
			continue
		}
		v, err := decodeField(obj.vals[k], path+"."+k)
		if err != nil {
			return nil, err
		}
		s.Set(k, v)
	}
	return s, nil
}

func decodeScalar(typ gff.Type, raw interface{}, path string) (gff.Value, error) {
	switch typ {
	case gff.ResRef, gff.CExoString, gff.MagicTag:
		s, ok := raw.(string)
		if !ok {
			return gff.Value{}, &gff.CodecError{Kind: gff.TypeMismatch, Path: path, Msg: "expected string"}
		}
		if typ == gff.CExoString {
			return gff.NewCExoString(s), nil
		}
		return gff.Value{Type: typ, Str: s}, nil
	}
	num, ok := raw.(json.Number)
	if !ok {
		return gff.Value{}, &gff.CodecError{Kind: gff.TypeMismatch, Path: path, Msg: "expected number"}
	}
	switch typ {
	case gff.Float, gff.Double:
		f, err := num.Float64()
		if err != nil {
			return gff.Value{}, &gff.CodecError{Kind: gff.TypeMismatch, Path: path, Msg: "invalid float", Err: err}
		}
		if typ == gff.Float {
			return gff.Value{Type: typ, F32: float32(f)}, nil
		}
		return gff.Value{Type: typ, F64: f}, nil
	default:
		i, err := strconv.ParseInt(num.String(), 10, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(num.String(), 10, 64)
			if uerr != nil {
				return gff.Value{}, &gff.CodecError{Kind: gff.TypeMismatch, Path: path, Msg: "invalid integer", Err: err}
			}
			i = int64(u)
		}
		switch typ {
		case gff.Byte:
			return gff.Value{Type: typ, U8: uint8(i)}, nil
		case gff.Char:
			return gff.Value{Type: typ, I8: int8(i)}, nil
		case gff.Word:
			return gff.Value{Type: typ, U16: uint16(i)}, nil
		case gff.Short:
			return gff.Value{Type: typ, I16: int16(i)}, nil
		case gff.Dword:
			return gff.Value{Type: typ, U32: uint32(i)}, nil
		case gff.Int:
			return gff.Value{Type: typ, I32: int32(i)}, nil
		case gff.Dword64:
			return gff.Value{Type: typ, U64: uint64(i)}, nil
		case gff.Int64:
			return gff.Value{Type: typ, I64: i}, nil
		}
	}
	return gff.Value{}, &gff.CodecError{Kind: gff.UnknownType, Path: path, Msg: "unhandled scalar type"}
}

func toUint32(raw interface{}) (uint32, error) {
	num, ok := raw.(json.Number)
	if !ok {
		return 0, fmt.Errorf("not a number")
	}
	i, err := strconv.ParseInt(num.String(), 10, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(num.String(), 10, 64)
		if uerr != nil {
			return 0, err
		}
		return uint32(u), nil
	}
	return uint32(i), nil
}
