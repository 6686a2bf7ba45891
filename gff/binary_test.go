package gff

import (
	"reflect"
	"testing"
)

func tinyDoc() *Document {
	root := NewStruct(SentinelU32)
	root.Set("A", NewByte(1))
	root.Set("B", NewCExoString("hi"))
	return &Document{MagicTag: "GFF ", Root: root}
}

func TestWriteBinaryThenReadBinaryRoundTrips(t *testing.T) {
	tests := []struct {
		name string
		doc  *Document
	}{
		{"tiny", tinyDoc()},
		{"nested struct and list", func() *Document {
			child1 := NewStruct(0)
			child1.Set("tag", NewResRef("sword01"))
			child2 := NewStruct(0)
			child2.Set("tag", NewResRef("shield01"))

			inner := NewStruct(3)
			inner.Set("Lawful", NewByte(50))
			inner.Set("Items", NewList([]*StructValue{child1, child2}))

			root := NewStruct(SentinelU32)
			root.Set("MaxHP", NewInt(120))
			root.Set("Gear", NewStructValue(inner))
			return &Document{MagicTag: "UTC ", Root: root}
		}()},
		{"locstring and void", func() *Document {
			root := NewStruct(SentinelU32)
			root.Set("Name", NewCExoLocString(SentinelStrRef, map[uint32]string{
				0: "hello",
				2: "bonjour",
			}))
			root.Set("Blob", NewVoid([]byte{0x00, 0x01, 0xFE, 0xFF}))
			root.Set("Big", NewDword64(1 << 40))
			root.Set("Neg", NewInt64(-1))
			root.Set("Pi", NewDouble(3.5))
			return &Document{MagicTag: "GFF ", Root: root}
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := WriteBinary(tt.doc, nil)
			if err != nil {
				t.Fatalf("WriteBinary: %v", err)
			}
			got, err := ReadBinary(data, nil)
			if err != nil {
				t.Fatalf("ReadBinary: %v", err)
			}
			if got.MagicTag != tt.doc.MagicTag {
				t.Errorf("MagicTag = %q, want %q", got.MagicTag, tt.doc.MagicTag)
			}
			assertStructEqual(t, got.Root, tt.doc.Root)

			data2, err := WriteBinary(got, nil)
			if err != nil {
				t.Fatalf("re-WriteBinary: %v", err)
			}
			if !reflect.DeepEqual(data, data2) {
				t.Errorf("binary round trip is not stable: got different bytes on second write")
			}
		})
	}
}

func assertStructEqual(t *testing.T, got, want *StructValue) {
	t.Helper()
	if got.ID != want.ID {
		t.Errorf("struct_id = %d, want %d", got.ID, want.ID)
	}
	if len(got.Fields) != len(want.Fields) {
		t.Fatalf("field count = %d, want %d", len(got.Fields), len(want.Fields))
	}
	for i, wf := range want.Fields {
		gf := got.Fields[i]
		if gf.Label != wf.Label {
			t.Errorf("field %d label = %q, want %q", i, gf.Label, wf.Label)
		}
		assertValueEqual(t, gf.Value, wf.Value)
	}
}

func assertValueEqual(t *testing.T, got, want Value) {
	t.Helper()
	if got.Type != want.Type {
		t.Fatalf("value type = %v, want %v", got.Type, want.Type)
	}
	switch want.Type {
	case Struct:
		assertStructEqual(t, got.Struct, want.Struct)
	case List:
		if len(got.List) != len(want.List) {
			t.Fatalf("list length = %d, want %d", len(got.List), len(want.List))
		}
		for i := range want.List {
			assertStructEqual(t, got.List[i], want.List[i])
		}
	case CExoLocString:
		if got.Loc.StrRef != want.Loc.StrRef {
			t.Errorf("strref = %d, want %d", got.Loc.StrRef, want.Loc.StrRef)
		}
		if !reflect.DeepEqual(got.Loc.Entries, want.Loc.Entries) {
			t.Errorf("locstring entries = %v, want %v", got.Loc.Entries, want.Loc.Entries)
		}
	default:
		if !reflect.DeepEqual(got, want) {
			t.Errorf("value = %+v, want %+v", got, want)
		}
	}
}

func TestWriteBinaryFieldArrayIsPreOrder(t *testing.T) {
	child := NewStruct(1)
	child.Set("Inner", NewByte(9))

	root := NewStruct(SentinelU32)
	root.Set("Before", NewByte(1))
	root.Set("Nested", NewStructValue(child))

	w := &writeState{labelIndex: make(map[string]int)}
	if _, err := w.processStruct(root); err != nil {
		t.Fatalf("processStruct: %v", err)
	}

	// Pre-order: root's two field entries (Before, then Nested, whose
	// value points at the child struct) must both precede the child
	// struct's own field entry (Inner).
	if len(w.fields) != 3 {
		t.Fatalf("field count = %d, want 3", len(w.fields))
	}
	beforeCode, _ := BinaryCode(Byte)
	structCode, _ := BinaryCode(Struct)
	if w.fields[0].typeID != beforeCode {
		t.Errorf("fields[0].typeID = %d, want Byte code %d (Before)", w.fields[0].typeID, beforeCode)
	}
	if w.fields[1].typeID != structCode {
		t.Errorf("fields[1].typeID = %d, want Struct code %d (Nested)", w.fields[1].typeID, structCode)
	}
	if w.fields[2].typeID != beforeCode {
		t.Errorf("fields[2].typeID = %d, want Byte code %d (Inner, nested child's own field)", w.fields[2].typeID, beforeCode)
	}
}

func TestReadBinaryRejectsTruncatedHeader(t *testing.T) {
	_, err := ReadBinary([]byte("short"), nil)
	if err == nil {
		t.Fatal("expected error for truncated header")
	}
	ce, ok := err.(*CodecError)
	if !ok {
		t.Fatalf("expected *CodecError, got %T", err)
	}
	if ce.Kind != MalformedBinary {
		t.Errorf("Kind = %v, want MalformedBinary", ce.Kind)
	}
}

func TestReadBinaryRejectsBadVersion(t *testing.T) {
	data, err := WriteBinary(tinyDoc(), nil)
	if err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}
	copy(data[4:8], []byte("V9.9"))
	_, err = ReadBinary(data, nil)
	if err == nil {
		t.Fatal("expected error for mismatched version")
	}
}

func TestReadBinaryRejectsUnknownFieldType(t *testing.T) {
	data, err := WriteBinary(tinyDoc(), nil)
	if err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}
	h, err := (&reader{data: data}).parseHeader()
	if err != nil {
		t.Fatalf("parseHeader: %v", err)
	}
	// Corrupt the first field entry's type code to an unassigned value
	// inside the 0-17 range (codes above 17 are MalformedBinary instead).
	data[h.fieldOffset] = 16
	_, err = ReadBinary(data, nil)
	if err == nil {
		t.Fatal("expected UnknownType error")
	}
	ce, ok := err.(*CodecError)
	if !ok || ce.Kind != UnknownType {
		t.Fatalf("expected UnknownType CodecError, got %v", err)
	}
}
