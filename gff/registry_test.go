package gff

import "testing"

func TestRegistryRoundTripsBinaryCodes(t *testing.T) {
	tests := []struct {
		typ  Type
		code uint32
	}{
		{Byte, 0}, {Char, 1}, {Word, 2}, {Short, 3}, {Dword, 4},
		{Int, 5}, {Dword64, 6}, {Int64, 7}, {Float, 8}, {Double, 9},
		{CExoString, 10}, {ResRef, 11}, {CExoLocString, 12},
		{Void, 13}, {Struct, 14}, {List, 15},
	}
	for _, tt := range tests {
		code, ok := BinaryCode(tt.typ)
		if !ok || code != tt.code {
			t.Errorf("BinaryCode(%v) = (%d, %v), want (%d, true)", tt.typ, code, ok, tt.code)
		}
		got, ok := TypeByBinaryCode(tt.code)
		if !ok || got != tt.typ {
			t.Errorf("TypeByBinaryCode(%d) = (%v, %v), want (%v, true)", tt.code, got, ok, tt.typ)
		}
	}
}

func TestMagicTagHasNoBinaryCode(t *testing.T) {
	if _, ok := BinaryCode(MagicTag); ok {
		t.Error("MagicTag should have no binary field code")
	}
}

func TestUnassignedBinaryCodesAreUnknown(t *testing.T) {
	for _, code := range []uint32{16, 17, 200} {
		if _, ok := TypeByBinaryCode(code); ok {
			t.Errorf("code %d should be unknown", code)
		}
	}
}

func TestJSONNameRoundTrip(t *testing.T) {
	tests := []struct {
		typ  Type
		name string
	}{
		{Byte, "byte"}, {CExoLocString, "cexolocstring"}, {Void, "void"}, {List, "list"},
	}
	for _, tt := range tests {
		if got := JSONName(tt.typ); got != tt.name {
			t.Errorf("JSONName(%v) = %q, want %q", tt.typ, got, tt.name)
		}
		got, ok := TypeByJSONName(tt.name)
		if !ok || got != tt.typ {
			t.Errorf("TypeByJSONName(%q) = (%v, %v), want (%v, true)", tt.name, got, ok, tt.typ)
		}
	}
}

func TestDSLNameRoundTrip(t *testing.T) {
	tests := []struct {
		typ  Type
		name string
	}{
		{Byte, "gff.Byte"}, {Void, "gff.Base64String"}, {CExoLocString, "gff.CExoLocString"},
	}
	for _, tt := range tests {
		if got := DSLName(tt.typ); got != tt.name {
			t.Errorf("DSLName(%v) = %q, want %q", tt.typ, got, tt.name)
		}
		got, ok := TypeByDSLName(tt.name)
		if !ok || got != tt.typ {
			t.Errorf("TypeByDSLName(%q) = (%v, %v), want (%v, true)", tt.name, got, ok, tt.typ)
		}
	}
}

func TestNodeTypes(t *testing.T) {
	for _, typ := range []Type{Struct, List, CExoLocString} {
		if !IsNode(typ) {
			t.Errorf("%v should be a node type", typ)
		}
	}
	if IsNode(Byte) {
		t.Error("Byte should not be a node type")
	}
}

func TestLiteralStringTypes(t *testing.T) {
	for _, typ := range []Type{ResRef, MagicTag, Void} {
		if !IsLiteralString(typ) {
			t.Errorf("%v should be a literal-string type", typ)
		}
	}
	if IsLiteralString(CExoString) {
		t.Error("CExoString should not be a literal-string type")
	}
}

func TestLanguageRegistry(t *testing.T) {
	if got := LanguageName(0); got != "ENGLISH" {
		t.Errorf("LanguageName(0) = %q, want ENGLISH", got)
	}
	if got := LanguageName(11); got != "POLISH_F" {
		t.Errorf("LanguageName(11) = %q, want POLISH_F", got)
	}
	if got := LanguageName(12); got != "" {
		t.Errorf("LanguageName(12) = %q, want empty", got)
	}
	id, ok := LanguageByName("GERMAN_F")
	if !ok || id != 5 {
		t.Errorf("LanguageByName(GERMAN_F) = (%d, %v), want (5, true)", id, ok)
	}
}
