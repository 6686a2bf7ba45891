package gffjson

import (
	"encoding/json"
	"testing"

	"github.com/nwneedata/ndugff/gff"
)

func TestEncodeTinyDocument(t *testing.T) {
	root := gff.NewStruct(gff.SentinelU32)
	root.Set("A", gff.NewByte(1))
	root.Set("B", gff.NewCExoString("hi"))
	doc := &gff.Document{MagicTag: "GFF ", Root: root}

	data, err := Encode(doc, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["__data_type"] != "GFF " {
		t.Errorf("__data_type = %v, want %q", m["__data_type"], "GFF ")
	}
	a, ok := m["A"].(map[string]interface{})
	if !ok {
		t.Fatalf("A is not an object: %v", m["A"])
	}
	if a["type"] != "byte" {
		t.Errorf("A.type = %v, want byte", a["type"])
	}
}

func TestCExoLocStringSentinelOmitsID(t *testing.T) {
	root := gff.NewStruct(gff.SentinelU32)
	root.Set("Name", gff.NewCExoLocString(gff.SentinelStrRef, map[uint32]string{0: "hello", 2: "bonjour"}))
	doc := &gff.Document{MagicTag: "GFF ", Root: root}

	data, err := Encode(doc, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var m map[string]interface{}
	json.Unmarshal(data, &m)
	name := m["Name"].(map[string]interface{})
	value := name["value"].(map[string]interface{})
	if _, hasID := value["id"]; hasID {
		t.Error("id key should be omitted when strref is sentinel")
	}
	if value["0"] != "hello" || value["2"] != "bonjour" {
		t.Errorf("unexpected locstring entries: %v", value)
	}
}

func TestVoidUsesValue64(t *testing.T) {
	root := gff.NewStruct(gff.SentinelU32)
	root.Set("Blob", gff.NewVoid([]byte{0x00, 0x01, 0xFE, 0xFF}))
	doc := &gff.Document{MagicTag: "GFF ", Root: root}

	data, err := Encode(doc, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var m map[string]interface{}
	json.Unmarshal(data, &m)
	blob := m["Blob"].(map[string]interface{})
	if blob["value64"] != "AAH+/w==" {
		t.Errorf("value64 = %v, want AAH+/w==", blob["value64"])
	}
}

func TestStructFieldDuplicatesStructID(t *testing.T) {
	inner := gff.NewStruct(7)
	inner.Set("X", gff.NewByte(1))
	root := gff.NewStruct(gff.SentinelU32)
	root.Set("Gear", gff.NewStructValue(inner))
	doc := &gff.Document{MagicTag: "GFF ", Root: root}

	data, err := Encode(doc, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var m map[string]interface{}
	json.Unmarshal(data, &m)
	gear := m["Gear"].(map[string]interface{})
	if gear["__struct_id"] != float64(7) {
		t.Errorf("sibling __struct_id = %v, want 7", gear["__struct_id"])
	}
	value := gear["value"].(map[string]interface{})
	if value["__struct_id"] != float64(7) {
		t.Errorf("value.__struct_id = %v, want 7 (duplicated)", value["__struct_id"])
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	item1 := gff.NewStruct(0)
	item1.Set("tag", gff.NewResRef("sword01"))
	item2 := gff.NewStruct(0)
	item2.Set("tag", gff.NewResRef("shield01"))

	inner := gff.NewStruct(3)
	inner.Set("Lawful", gff.NewByte(50))
	inner.Set("Items", gff.NewList([]*gff.StructValue{item1, item2}))

	root := gff.NewStruct(gff.SentinelU32)
	root.Set("MaxHP", gff.NewInt(120))
	root.Set("Gear", gff.NewStructValue(inner))
	root.Set("Name", gff.NewCExoLocString(17, map[uint32]string{0: "hi"}))
	doc := &gff.Document{MagicTag: "UTC ", Root: root}

	data, err := Encode(doc, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.MagicTag != doc.MagicTag {
		t.Errorf("MagicTag = %q, want %q", got.MagicTag, doc.MagicTag)
	}
	gearVal, ok := got.Root.Get("Gear")
	if !ok || gearVal.Type != gff.Struct {
		t.Fatalf("Gear field missing or wrong type: %+v", gearVal)
	}
	itemsVal, ok := gearVal.Struct.Get("Items")
	if !ok || len(itemsVal.List) != 2 {
		t.Fatalf("Items field missing or wrong length: %+v", itemsVal)
	}
	nameVal, ok := got.Root.Get("Name")
	if !ok || nameVal.Loc.StrRef != 17 {
		t.Errorf("Name.strref = %+v, want 17", nameVal.Loc)
	}
}
