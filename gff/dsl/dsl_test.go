package dsl

import (
	"strings"
	"testing"

	"github.com/nwneedata/ndugff/gff"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	item1 := gff.NewStruct(0)
	item1.Set("tag", gff.NewResRef("sword01"))
	item2 := gff.NewStruct(0)
	item2.Set("tag", gff.NewResRef("shield01"))

	root := gff.NewStruct(gff.SentinelU32)
	root.Set("MaxHP", gff.NewInt(120))
	root.Set("FirstName", gff.NewCExoString("Aria"))
	root.Set("Lawful", gff.NewByte(50))
	root.Set("Equipped", gff.NewList([]*gff.StructValue{item1, item2}))
	root.Set("Blob", gff.NewVoid([]byte{0x00, 0x01, 0xFE, 0xFF}))
	root.Set("Name", gff.NewCExoLocString(gff.SentinelStrRef, map[uint32]string{0: "hello", 2: "bonjour"}))
	doc := &gff.Document{MagicTag: "UTC ", Root: root}

	data, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v\n---\n%s", err, data)
	}
	if got.MagicTag != doc.MagicTag {
		t.Errorf("MagicTag = %q, want %q", got.MagicTag, doc.MagicTag)
	}
	eq, ok := got.Root.Get("Equipped")
	if !ok || len(eq.List) != 2 {
		t.Fatalf("Equipped missing or wrong length: %+v", eq)
	}
	if tag, _ := eq.List[0].Get("tag"); tag.Str != "sword01" {
		t.Errorf("Equipped[0].tag = %q, want sword01", tag.Str)
	}
	blob, ok := got.Root.Get("Blob")
	if !ok || string(blob.Bin) != "\x00\x01\xfe\xff" {
		t.Errorf("Blob = %v", blob.Bin)
	}
	name, ok := got.Root.Get("Name")
	if !ok || name.Loc.StrRef != gff.SentinelStrRef || name.Loc.Entries[0] != "hello" {
		t.Errorf("Name = %+v", name.Loc)
	}
}

func TestSentinelPrettyPrinting(t *testing.T) {
	root := gff.NewStruct(gff.SentinelU32)
	root.Set("Ref", gff.NewDword(gff.SentinelU32))
	doc := &gff.Document{MagicTag: "GFF ", Root: root}

	data, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), "gff.Dword(Ref): -1") {
		t.Errorf("expected pretty -1 sentinel, got:\n%s", data)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	v, _ := got.Root.Get("Ref")
	if v.U32 != gff.SentinelU32 {
		t.Errorf("Ref = %#x, want sentinel", v.U32)
	}
}

func TestMagicTagTruncationAndPadding(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"UTCX", "UTCX"},
		{"UTC", "UTC "},
	}
	for _, tt := range tests {
		data := []byte("gff.MagicTag(__type__): \"" + tt.in + "\"\ngff.Struct(__root__).id(-1)\nend()\n")
		doc, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode(%q): %v", tt.in, err)
		}
		if doc.MagicTag != tt.want {
			t.Errorf("MagicTag for %q = %q, want %q", tt.in, doc.MagicTag, tt.want)
		}
	}
}

func TestLiteralStringRejectsBackslash(t *testing.T) {
	data := []byte(`gff.MagicTag(__type__): "UTC "
gff.Struct(__root__).id(-1)
    gff.ResRef(tag): "sw\ord01"
end()
`)
	_, err := Decode(data)
	if err == nil {
		t.Fatal("expected InvalidCharacter error")
	}
	ce, ok := err.(*gff.CodecError)
	if !ok || ce.Kind != gff.InvalidCharacter {
		t.Fatalf("expected InvalidCharacter CodecError, got %v", err)
	}
}

func TestUnbalancedScopeDetected(t *testing.T) {
	data := []byte(`gff.MagicTag(__type__): "UTC "
gff.Struct(__root__).id(-1)
    gff.List(Items)
end()
`)
	_, err := Decode(data)
	if err == nil {
		t.Fatal("expected UnbalancedScope error")
	}
	ce, ok := err.(*gff.CodecError)
	if !ok || ce.Kind != gff.UnbalancedScope {
		t.Fatalf("expected UnbalancedScope CodecError, got %v", err)
	}
}

func TestCommentsAndBlankLinesIgnored(t *testing.T) {
	data := []byte(`# a comment
gff.MagicTag(__type__): "UTC "

gff.Struct(__root__).id(-1)
    # another comment
    gff.Byte(X): 1
end()
`)
	doc, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	v, ok := doc.Root.Get("X")
	if !ok || v.U8 != 1 {
		t.Errorf("X = %+v", v)
	}
}
