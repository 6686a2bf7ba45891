// Package dsl tokenizes, parses and emits the line-oriented NDUGFF text
// form of a gff Document.
package dsl

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nwneedata/ndugff/gff"
)

func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

const indentUnit = "    "

var lineRe = regexp.MustCompile(
	`^(?P<type>` + strings.Join(dslAlternation(), "|") + `)` +
		`\((?P<name>[A-Za-z0-9_ ]*)\)` +
		`(?:\.id\((?P<id>-?\d+)\))?` +
		`(?:: (?P<value>.+))?$`,
)

func dslAlternation() []string {
	names := gff.DSLTypeNames()
	// Longest names first so the regex alternation can't short-match a
	// prefix (e.g. "gff.Int" swallowing "gff.Int64").
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	escaped := make([]string, len(names))
	for i, n := range names {
		escaped[i] = regexp.QuoteMeta(n)
	}
	return escaped
}

const languageDSLName = "gff.Language"
const sentinelStr = "-1"

// Decode parses a complete NDUGFF text document.
func Decode(data []byte) (*gff.Document, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	root := gff.NewStruct(gff.SentinelU32)
	stack := []*frame{{kind: gff.Struct, s: root}}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "end()" {
			if len(stack) <= 1 {
				return nil, &gff.CodecError{Kind: gff.UnbalancedScope, Line: lineNo, Msg: "unmatched end()"}
			}
			popped := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if err := attach(stack[len(stack)-1], popped); err != nil {
				err.(*gff.CodecError).Line = lineNo
				return nil, err
			}
			continue
		}

		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			return nil, &gff.CodecError{Kind: gff.MalformedText, Line: lineNo, Msg: "unrecognized line: " + line}
		}
		groups := namedGroups(lineRe, m)
		typeName := groups["type"]
		name := groups["name"]

		if typeName == languageDSLName {
			top := stack[len(stack)-1]
			if top.kind != gff.CExoLocString {
				return nil, &gff.CodecError{Kind: gff.MalformedText, Line: lineNo, Msg: "gff.Language outside gff.CExoLocString scope"}
			}
			text, err := readQuotedEscaped(groups["value"], lineNo)
			if err != nil {
				return nil, err
			}
			langID, ok := gff.LanguageByName(name)
			if !ok {
				return nil, &gff.CodecError{Kind: gff.UnknownType, Line: lineNo, Msg: "unknown language " + name}
			}
			top.loc.Entries[langID] = gff.NormalizeText(text)
			continue
		}

		typ, ok := gff.TypeByDSLName(typeName)
		if !ok {
			return nil, &gff.CodecError{Kind: gff.UnknownType, Line: lineNo, Msg: "unknown DSL type " + typeName}
		}

		if gff.IsNode(typ) {
			f := &frame{kind: typ, name: name}
			switch typ {
			case gff.Struct:
				idStr := groups["id"]
				if idStr == "" {
					return nil, &gff.CodecError{Kind: gff.MalformedText, Line: lineNo, Msg: "gff.Struct requires .id(...)"}
				}
				id, err := parseStructID(idStr)
				if err != nil {
					return nil, &gff.CodecError{Kind: gff.MalformedText, Line: lineNo, Msg: "invalid struct id: " + idStr}
				}
				f.s = gff.NewStruct(id)
			case gff.List:
				// no extra state
			case gff.CExoLocString:
				f.loc = &gff.LocString{StrRef: gff.SentinelStrRef, Entries: map[uint32]string{}}
			}
			stack = append(stack, f)
			continue
		}

		// Leaf field.
		top := stack[len(stack)-1]
		if typ == gff.Dword && top.kind == gff.CExoLocString && name == "strref" {
			v, err := parseLeafValue(gff.Dword, groups["value"], lineNo)
			if err != nil {
				return nil, err
			}
			top.loc.StrRef = v.U32
			continue
		}
		if top.kind != gff.Struct {
			return nil, &gff.CodecError{Kind: gff.MalformedText, Line: lineNo, Msg: "leaf field outside a struct scope"}
		}
		v, err := parseLeafValue(typ, groups["value"], lineNo)
		if err != nil {
			return nil, err
		}
		top.s.Set(name, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, &gff.CodecError{Kind: gff.IoFailure, Msg: "scan", Err: err}
	}
	if len(stack) != 1 {
		return nil, &gff.CodecError{Kind: gff.UnbalancedScope, Line: lineNo, Msg: "missing terminal end()"}
	}

	magicVal, ok := root.Get("__type__")
	if !ok || magicVal.Type != gff.MagicTag {
		return nil, &gff.CodecError{Kind: gff.MalformedText, Msg: "missing gff.MagicTag(__type__)"}
	}
	rootVal, ok := root.Get("__root__")
	if !ok || rootVal.Type != gff.Struct {
		return nil, &gff.CodecError{Kind: gff.MalformedText, Msg: "missing gff.Struct(__root__)"}
	}
	return &gff.Document{MagicTag: magicVal.Str, Root: rootVal.Struct}, nil
}

// frame is one open scope on the parser's stack.
type frame struct {
	kind gff.Type
	name string
	s    *gff.StructValue   // kind == Struct
	list []*gff.StructValue // kind == List
	loc  *gff.LocString     // kind == CExoLocString
}

func attach(parent *frame, popped *frame) error {
	var v gff.Value
	switch popped.kind {
	case gff.Struct:
		v = gff.NewStructValue(popped.s)
	case gff.List:
		v = gff.NewList(popped.list)
	case gff.CExoLocString:
		v = gff.NewCExoLocString(popped.loc.StrRef, popped.loc.Entries)
	default:
		return &gff.CodecError{Kind: gff.MalformedText, Msg: "unexpected node kind on pop"}
	}
	switch parent.kind {
	case gff.List:
		if popped.kind != gff.Struct {
			return &gff.CodecError{Kind: gff.TypeMismatch, Msg: "list may only contain gff.Struct entries"}
		}
		parent.list = append(parent.list, popped.s)
	case gff.Struct:
		parent.s.Set(popped.name, v)
	default:
		return &gff.CodecError{Kind: gff.MalformedText, Msg: "cannot attach node to this scope"}
	}
	return nil
}

func parseStructID(s string) (uint32, error) {
	if s == sentinelStr {
		return gff.SentinelU32, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

func parseLeafValue(typ gff.Type, raw string, line int) (gff.Value, error) {
	switch typ {
	case gff.Byte, gff.Char, gff.Word, gff.Short, gff.Dword, gff.Int, gff.Dword64, gff.Int64:
		return parseIntValue(typ, raw, line)
	case gff.Float, gff.Double:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return gff.Value{}, &gff.CodecError{Kind: gff.MalformedText, Line: line, Msg: "invalid float: " + raw}
		}
		if typ == gff.Float {
			return gff.Value{Type: typ, F32: float32(f)}, nil
		}
		return gff.Value{Type: typ, F64: f}, nil
	case gff.ResRef, gff.MagicTag:
		text, err := readLiteralQuoted(typ, raw, line)
		if err != nil {
			return gff.Value{}, err
		}
		if typ == gff.MagicTag {
			text = gff.PadMagicTag(text)
		}
		return gff.Value{Type: typ, Str: text}, nil
	case gff.CExoString:
		text, err := readQuotedEscaped(raw, line)
		if err != nil {
			return gff.Value{}, err
		}
		return gff.NewCExoString(text), nil
	case gff.Void:
		b64, err := readLiteralQuoted(typ, raw, line)
		if err != nil {
			return gff.Value{}, err
		}
		decoded, derr := decodeBase64(b64)
		if derr != nil {
			return gff.Value{}, &gff.CodecError{Kind: gff.MalformedText, Line: line, Msg: "invalid base64: " + derr.Error()}
		}
		return gff.Value{Type: typ, Bin: decoded}, nil
	}
	return gff.Value{}, &gff.CodecError{Kind: gff.UnknownType, Line: line, Msg: fmt.Sprintf("type %v has no DSL leaf decoding", typ)}
}

func parseIntValue(typ gff.Type, raw string, line int) (gff.Value, error) {
	if typ == gff.Dword && raw == sentinelStr {
		return gff.Value{Type: gff.Dword, U32: gff.SentinelU32}, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return gff.Value{}, &gff.CodecError{Kind: gff.MalformedText, Line: line, Msg: "invalid integer: " + raw}
	}
	switch typ {
	case gff.Byte:
		return gff.Value{Type: typ, U8: uint8(n)}, nil
	case gff.Char:
		return gff.Value{Type: typ, I8: int8(n)}, nil
	case gff.Word:
		return gff.Value{Type: typ, U16: uint16(n)}, nil
	case gff.Short:
		return gff.Value{Type: typ, I16: int16(n)}, nil
	case gff.Dword:
		return gff.Value{Type: typ, U32: uint32(n)}, nil
	case gff.Int:
		return gff.Value{Type: typ, I32: int32(n)}, nil
	case gff.Dword64:
		return gff.Value{Type: typ, U64: uint64(n)}, nil
	case gff.Int64:
		return gff.Value{Type: typ, I64: n}, nil
	}
	return gff.Value{}, fmt.Errorf("unreachable")
}

func unquote(raw string, line int) (string, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return "", &gff.CodecError{Kind: gff.MalformedText, Line: line, Msg: "expected quoted string: " + raw}
	}
	return raw[1 : len(raw)-1], nil
}

func readLiteralQuoted(typ gff.Type, raw string, line int) (string, error) {
	s, err := unquote(raw, line)
	if err != nil {
		return "", err
	}
	if strings.Contains(s, `\`) {
		return "", &gff.CodecError{Kind: gff.InvalidCharacter, Line: line, Msg: fmt.Sprintf("backslash not allowed in literal-string type %v", typ)}
	}
	return s, nil
}

func readQuotedEscaped(raw string, line int) (string, error) {
	s, err := unquote(raw, line)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				out.WriteByte('\n')
				i++
				continue
			case 't':
				out.WriteByte('\t')
				i++
				continue
			case '"':
				out.WriteByte('"')
				i++
				continue
			case '\\':
				out.WriteByte('\\')
				i++
				continue
			}
		}
		out.WriteByte(s[i])
	}
	return out.String(), nil
}

func namedGroups(re *regexp.Regexp, m []string) map[string]string {
	out := make(map[string]string, len(m))
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		out[name] = m[i]
	}
	return out
}
