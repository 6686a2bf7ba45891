package gff

// Type is the tag of the Value Model's 17-case tagged variant.
type Type uint8

const (
	Byte Type = iota
	Char
	Word
	Short
	Dword
	Int
	Dword64
	Int64
	Float
	Double
	ResRef
	CExoString
	CExoLocString
	Void
	Struct
	List
	MagicTag
)

// typeInfo is one row of the static field type registry: the bijection
// among the internal tag, the binary type code, the JSON type name and the
// DSL type name, plus the three categorical flags the codecs consult.
type typeInfo struct {
	typ        Type
	name       string
	binaryCode uint32
	hasCode    bool // MagicTag has no binary field-entry code; it is the header tag
	jsonName   string
	dslName    string
	isNode     bool
	isEscaped  bool
	isLiteral  bool
}

// registry is built once and never mutated, matching the "Static registries"
// design note: a compile-time table, not a runtime-populated map.
var registry = []typeInfo{
	{Byte, "Byte", 0, true, "byte", "gff.Byte", false, false, false},
	{Char, "Char", 1, true, "char", "gff.Char", false, false, false},
	{Word, "Word", 2, true, "word", "gff.Word", false, false, false},
	{Short, "Short", 3, true, "short", "gff.Short", false, false, false},
	{Dword, "Dword", 4, true, "dword", "gff.Dword", false, false, false},
	{Int, "Int", 5, true, "int", "gff.Int", false, false, false},
	{Dword64, "Dword64", 6, true, "dword64", "gff.Dword64", false, false, false},
	{Int64, "Int64", 7, true, "int64", "gff.Int64", false, false, false},
	{Float, "Float", 8, true, "float", "gff.Float", false, false, false},
	{Double, "Double", 9, true, "double", "gff.Double", false, false, false},
	{CExoString, "CExoString", 10, true, "cexostring", "gff.CExoString", false, true, false},
	{ResRef, "ResRef", 11, true, "resref", "gff.ResRef", false, false, true},
	{CExoLocString, "CExoLocString", 12, true, "cexolocstring", "gff.CExoLocString", true, false, false},
	{Void, "Void", 13, true, "void", "gff.Base64String", false, false, true},
	{Struct, "Struct", 14, true, "struct", "gff.Struct", true, false, false},
	{List, "List", 15, true, "list", "gff.List", true, false, false},
	{MagicTag, "MagicTag", 0, false, "__data_type", "gff.MagicTag", false, false, true},
}

// languageDSLName is the DSL pseudo-type used for per-language text lines
// nested inside a CExoLocString scope. It is not a Value Model case; it
// exists only as a DSL-grammar convenience.
const languageDSLName = "gff.Language"

var byType = func() map[Type]typeInfo {
	m := make(map[Type]typeInfo, len(registry))
	for _, r := range registry {
		m[r.typ] = r
	}
	return m
}()

var byBinaryCode = func() map[uint32]typeInfo {
	m := make(map[uint32]typeInfo, len(registry))
	for _, r := range registry {
		if r.hasCode {
			m[r.binaryCode] = r
		}
	}
	return m
}()

var byJSONName = func() map[string]typeInfo {
	m := make(map[string]typeInfo, len(registry))
	for _, r := range registry {
		m[r.jsonName] = r
	}
	return m
}()

var byDSLName = func() map[string]typeInfo {
	m := make(map[string]typeInfo, len(registry))
	for _, r := range registry {
		m[r.dslName] = r
	}
	return m
}()

// TypeByBinaryCode looks up a field type by its binary type code (0-17 per
// the documented GFF spec). Codes with no registry entry are unknown.
func TypeByBinaryCode(code uint32) (Type, bool) {
	t, ok := byBinaryCode[code]
	return t.typ, ok
}

// BinaryCode returns the binary type code for t. MagicTag has none.
func BinaryCode(t Type) (uint32, bool) {
	info, ok := byType[t]
	if !ok || !info.hasCode {
		return 0, false
	}
	return info.binaryCode, true
}

// TypeByJSONName looks up a field type by its JSON "type" tag.
func TypeByJSONName(name string) (Type, bool) {
	t, ok := byJSONName[name]
	return t.typ, ok
}

// JSONName returns the JSON type tag for t.
func JSONName(t Type) string {
	return byType[t].jsonName
}

// TypeByDSLName looks up a field type by its DSL type tag (e.g. "gff.Int").
func TypeByDSLName(name string) (Type, bool) {
	t, ok := byDSLName[name]
	return t.typ, ok
}

// DSLName returns the DSL type tag for t.
func DSLName(t Type) string {
	return byType[t].dslName
}

// Name returns the internal variant name, e.g. "CExoLocString".
func Name(t Type) string {
	return byType[t].name
}

// IsNode reports whether t contains children (Struct, List, CExoLocString).
func IsNode(t Type) bool {
	return byType[t].isNode
}

// IsEscapedString reports whether t is an escaped-string type (CExoString,
// and the DSL-only Language pseudo-type, handled separately by the dsl
// package since it is not itself a Value case).
func IsEscapedString(t Type) bool {
	return byType[t].isEscaped
}

// IsLiteralString reports whether t is a literal-string type (ResRef,
// MagicTag, Void/Base64String) whose text must never contain a backslash.
func IsLiteralString(t Type) bool {
	return byType[t].isLiteral
}

// DSLTypeNames returns every DSL type tag, in registry order, plus the
// Language pseudo-type appended last. Used to build the tokenizer's type
// alternation.
func DSLTypeNames() []string {
	names := make([]string, 0, len(registry)+1)
	for _, r := range registry {
		names = append(names, r.dslName)
	}
	names = append(names, languageDSLName)
	return names
}

// Language is one of the 12 localized-string language IDs (6 languages x 2
// genders): id = language*2 + gender.
type Language uint32

const (
	English Language = iota
	EnglishF
	French
	FrenchF
	German
	GermanF
	Italian
	ItalianF
	Spanish
	SpanishF
	Polish
	PolishF
)

var languageNames = []string{
	"ENGLISH", "ENGLISH_F", "FRENCH", "FRENCH_F",
	"GERMAN", "GERMAN_F", "ITALIAN", "ITALIAN_F",
	"SPANISH", "SPANISH_F", "POLISH", "POLISH_F",
}

// LanguageName returns the registry name for a language ID, or "" if out of range.
func LanguageName(id uint32) string {
	if int(id) >= len(languageNames) {
		return ""
	}
	return languageNames[id]
}

// LanguageByName is the reverse lookup of LanguageName.
func LanguageByName(name string) (uint32, bool) {
	for i, n := range languageNames {
		if n == name {
			return uint32(i), true
		}
	}
	return 0, false
}
