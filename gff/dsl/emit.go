package dsl

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nwneedata/ndugff/gff"
)

// Encode renders doc as NDUGFF text. Field order within every struct is the
// canonical order (registry order, then lowercased label); this is the only
// normalization that reorders — readers accept any order.
func Encode(doc *gff.Document) ([]byte, error) {
	var buf bytes.Buffer
	writeLine(&buf, 0, fmt.Sprintf(`gff.MagicTag(__type__): "%s"`, gff.PadMagicTag(doc.MagicTag)))
	writeLine(&buf, 0, fmt.Sprintf("gff.Struct(__root__).id(%s)", idStr(doc.Root.ID)))
	if err := emitStructBody(&buf, 1, doc.Root); err != nil {
		return nil, err
	}
	writeLine(&buf, 1, "end()")
	return buf.Bytes(), nil
}

func writeLine(buf *bytes.Buffer, indent int, s string) {
	buf.WriteString(strings.Repeat(indentUnit, indent))
	buf.WriteString(s)
	buf.WriteByte('\n')
}

func emitStructBody(buf *bytes.Buffer, indent int, s *gff.StructValue) error {
	for _, f := range canonicalOrder(s.Fields) {
		if err := emitField(buf, indent, f); err != nil {
			return err
		}
	}
	return nil
}

func canonicalOrder(fields []gff.Field) []gff.Field {
	out := make([]gff.Field, len(fields))
	copy(out, fields)
	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := fieldOrderIndex(out[i].Value.Type), fieldOrderIndex(out[j].Value.Type)
		if oi != oj {
			return oi < oj
		}
		return strings.ToLower(out[i].Label) < strings.ToLower(out[j].Label)
	})
	return out
}

// fieldOrderIndex mirrors the Field Type Registry's declaration order,
// matching gff.DSLTypeNames()'s ordering without exposing internals.
func fieldOrderIndex(t gff.Type) int {
	for i, name := range gff.DSLTypeNames() {
		if name == gff.DSLName(t) {
			return i
		}
	}
	return len(gff.DSLTypeNames())
}

func emitField(buf *bytes.Buffer, indent int, f gff.Field) error {
	typ := f.Value.Type
	switch typ {
	case gff.Struct:
		writeLine(buf, indent, fmt.Sprintf("gff.Struct(%s).id(%s)", f.Label, idStr(f.Value.Struct.ID)))
		if err := emitStructBody(buf, indent+1, f.Value.Struct); err != nil {
			return err
		}
		writeLine(buf, indent+1, "end()")
		return nil
	case gff.List:
		writeLine(buf, indent, fmt.Sprintf("gff.List(%s)", f.Label))
		for _, item := range f.Value.List {
			writeLine(buf, indent+1, fmt.Sprintf("gff.Struct().id(%s)", idStr(item.ID)))
			if err := emitStructBody(buf, indent+2, item); err != nil {
				return err
			}
			writeLine(buf, indent+2, "end()")
		}
		writeLine(buf, indent+1, "end()")
		return nil
	case gff.CExoLocString:
		writeLine(buf, indent, fmt.Sprintf("gff.CExoLocString(%s)", f.Label))
		writeLine(buf, indent+1, fmt.Sprintf("gff.Dword(strref): %s", dwordStr(f.Value.Loc.StrRef)))
		for _, langID := range sortedLangIDs(f.Value.Loc.Entries) {
			name := gff.LanguageName(langID)
			if name == "" {
				return &gff.CodecError{Kind: gff.UnknownType, Msg: fmt.Sprintf("language id %d not in registry", langID)}
			}
			escaped, err := quoteEscaped(f.Value.Loc.Entries[langID])
			if err != nil {
				return err
			}
			writeLine(buf, indent+1, fmt.Sprintf("gff.Language(%s): %s", name, escaped))
		}
		writeLine(buf, indent+1, "end()")
		return nil
	default:
		val, err := formatScalar(f.Value)
		if err != nil {
			return err
		}
		writeLine(buf, indent, fmt.Sprintf("%s(%s): %s", gff.DSLName(typ), f.Label, val))
		return nil
	}
}

func sortedLangIDs(entries map[uint32]string) []uint32 {
	ids := make([]uint32, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func idStr(id uint32) string {
	if id == gff.SentinelU32 {
		return sentinelStr
	}
	return strconv.FormatUint(uint64(id), 10)
}

func dwordStr(v uint32) string {
	if v == gff.SentinelU32 {
		return sentinelStr
	}
	return strconv.FormatUint(uint64(v), 10)
}

func formatScalar(v gff.Value) (string, error) {
	switch v.Type {
	case gff.Byte:
		return strconv.Itoa(int(v.U8)), nil
	case gff.Char:
		return strconv.Itoa(int(v.I8)), nil
	case gff.Word:
		return strconv.Itoa(int(v.U16)), nil
	case gff.Short:
		return strconv.Itoa(int(v.I16)), nil
	case gff.Dword:
		return dwordStr(v.U32), nil
	case gff.Int:
		return strconv.Itoa(int(v.I32)), nil
	case gff.Dword64:
		return strconv.FormatUint(v.U64, 10), nil
	case gff.Int64:
		return strconv.FormatInt(v.I64, 10), nil
	case gff.Float:
		return strconv.FormatFloat(float64(v.F32), 'g', -1, 32), nil
	case gff.Double:
		return strconv.FormatFloat(v.F64, 'g', -1, 64), nil
	case gff.ResRef:
		return quoteLiteral(v.Str)
	case gff.CExoString:
		return quoteEscaped(v.Str)
	case gff.Void:
		return quoteLiteral(base64.StdEncoding.EncodeToString(v.Bin))
	default:
		return "", &gff.CodecError{Kind: gff.UnknownType, Msg: fmt.Sprintf("type %v has no DSL scalar encoding", v.Type)}
	}
}

func quoteLiteral(s string) (string, error) {
	if strings.Contains(s, `\`) {
		return "", &gff.CodecError{Kind: gff.InvalidCharacter, Msg: "backslash not allowed in literal-string value: " + s}
	}
	return `"` + s + `"`, nil
}

func quoteEscaped(s string) (string, error) {
	var out strings.Builder
	out.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			out.WriteString(`\\`)
		case '"':
			out.WriteString(`\"`)
		case '\n':
			out.WriteString(`\n`)
		case '\t':
			out.WriteString(`\t`)
		default:
			out.WriteByte(s[i])
		}
	}
	out.WriteByte('"')
	return out.String(), nil
}
