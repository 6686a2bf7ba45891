package gff

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/nwneedata/ndugff/internal/diag"
)

const (
	headerSize  = 56
	structSize  = 12
	fieldSize   = 12
	labelSize   = 16
	gffVersion  = "V3.2"
)

// ReadOptions configures a binary read. The zero value is a sane default.
type ReadOptions struct {
	Logger diag.Logger
}

// WriteOptions configures a binary write.
type WriteOptions struct {
	Logger diag.Logger
}

type header struct {
	fileType string
	version  string

	structOffset, structCount uint32
	fieldOffset, fieldCount   uint32
	labelOffset, labelCount   uint32

	fieldDataOffset, fieldDataSize       uint32
	fieldIndicesOffset, fieldIndicesSize uint32
	listIndicesOffset, listIndicesSize   uint32
}

// reader parses a binary GFF buffer, bounds-checking every access against
// the buffer length before it is used, the way the teacher's ReadUint32
// family checks offsets against the mapped file size.
type reader struct {
	data []byte
	log  diag.Logger
}

func (r *reader) bounds(offset, size uint32) error {
	if uint64(offset)+uint64(size) > uint64(len(r.data)) {
		return newBinaryErr(offset, "read of %d bytes extends outside buffer of %d bytes", size, len(r.data))
	}
	return nil
}

func (r *reader) u32(offset uint32) (uint32, error) {
	if err := r.bounds(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.data[offset : offset+4]), nil
}

func (r *reader) u64(offset uint32) (uint64, error) {
	if err := r.bounds(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(r.data[offset : offset+8]), nil
}

func (r *reader) bytesAt(offset, size uint32) ([]byte, error) {
	if err := r.bounds(offset, size); err != nil {
		return nil, err
	}
	return r.data[offset : offset+size], nil
}

func (r *reader) str(offset, size uint32) (string, error) {
	b, err := r.bytesAt(offset, size)
	if err != nil {
		return "", err
	}
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end]), nil
}

// ReadBinary parses a complete GFF document out of an in-memory buffer.
func ReadBinary(data []byte, opts *ReadOptions) (*Document, error) {
	if opts == nil {
		opts = &ReadOptions{}
	}
	r := &reader{data: data, log: diag.Default(opts.Logger)}

	if len(data) < headerSize {
		return nil, newBinaryErr(0, "buffer of %d bytes is shorter than the %d-byte header", len(data), headerSize)
	}

	h, err := r.parseHeader()
	if err != nil {
		return nil, err
	}

	structEntries, err := r.parseStructEntries(h)
	if err != nil {
		return nil, err
	}
	fieldEntries, err := r.parseFieldEntries(h)
	if err != nil {
		return nil, err
	}
	labels, err := r.parseLabels(h)
	if err != nil {
		return nil, err
	}

	fieldData, err := r.bytesAt(h.fieldDataOffset, h.fieldDataSize)
	if err != nil {
		return nil, err
	}
	fieldIndices, err := r.bytesAt(h.fieldIndicesOffset, h.fieldIndicesSize)
	if err != nil {
		return nil, err
	}
	listIndices, err := r.bytesAt(h.listIndicesOffset, h.listIndicesSize)
	if err != nil {
		return nil, err
	}

	b := &binaryBuilder{
		r:             r,
		structEntries: structEntries,
		fieldEntries:  fieldEntries,
		labels:        labels,
		fieldData:     fieldData,
		fieldIndices:  fieldIndices,
		listIndices:   listIndices,
	}

	if h.structCount == 0 {
		return nil, newBinaryErr(h.structOffset, "document has no root struct")
	}
	root, err := b.buildStruct(0)
	if err != nil {
		return nil, err
	}
	return &Document{MagicTag: h.fileType, Root: root}, nil
}

// ReadBinaryFile mmaps path read-only and parses it as a binary GFF document.
func ReadBinaryFile(path string, opts *ReadOptions) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &CodecError{Kind: IoFailure, Path: path, Msg: "open", Err: err}
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, &CodecError{Kind: IoFailure, Path: path, Msg: "mmap", Err: err}
	}
	defer m.Unmap()

	doc, err := ReadBinary([]byte(m), opts)
	if err != nil {
		if ce, ok := err.(*CodecError); ok {
			ce.Path = path
		}
		return nil, err
	}
	return doc, nil
}

func (r *reader) parseHeader() (*header, error) {
	fileType, err := r.str(0, 4)
	if err != nil {
		return nil, err
	}
	version, err := r.str(4, 4)
	if err != nil {
		return nil, err
	}
	if version != gffVersion {
		return nil, newBinaryErr(4, "unexpected version %q, want %q", version, gffVersion)
	}

	vals := make([]uint32, 14)
	for i := range vals {
		v, err := r.u32(uint32(8 + i*4))
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}

	return &header{
		fileType:            fileType,
		version:              version,
		structOffset:         vals[0],
		structCount:          vals[1],
		fieldOffset:          vals[2],
		fieldCount:           vals[3],
		labelOffset:          vals[4],
		labelCount:           vals[5],
		fieldDataOffset:      vals[6],
		fieldDataSize:        vals[7],
		fieldIndicesOffset:   vals[8],
		fieldIndicesSize:     vals[9],
		listIndicesOffset:    vals[10],
		listIndicesSize:      vals[11],
	}, nil
}

type structEntry struct {
	typeID       uint32
	dataOrOffset uint32
	fieldCount   uint32
}

type fieldEntry struct {
	typeID        uint32
	labelIdx      uint32
	valueOrOffset uint32
}

func (r *reader) parseStructEntries(h *header) ([]structEntry, error) {
	out := make([]structEntry, h.structCount)
	for i := uint32(0); i < h.structCount; i++ {
		base := h.structOffset + i*structSize
		typeID, err := r.u32(base)
		if err != nil {
			return nil, err
		}
		dataOrOffset, err := r.u32(base + 4)
		if err != nil {
			return nil, err
		}
		fieldCount, err := r.u32(base + 8)
		if err != nil {
			return nil, err
		}
		out[i] = structEntry{typeID, dataOrOffset, fieldCount}
	}
	return out, nil
}

func (r *reader) parseFieldEntries(h *header) ([]fieldEntry, error) {
	out := make([]fieldEntry, h.fieldCount)
	for i := uint32(0); i < h.fieldCount; i++ {
		base := h.fieldOffset + i*fieldSize
		typeID, err := r.u32(base)
		if err != nil {
			return nil, err
		}
		labelIdx, err := r.u32(base + 4)
		if err != nil {
			return nil, err
		}
		valueOrOffset, err := r.u32(base + 8)
		if err != nil {
			return nil, err
		}
		out[i] = fieldEntry{typeID, labelIdx, valueOrOffset}
	}
	return out, nil
}

func (r *reader) parseLabels(h *header) ([]string, error) {
	out := make([]string, h.labelCount)
	for i := uint32(0); i < h.labelCount; i++ {
		s, err := r.str(h.labelOffset+i*labelSize, labelSize)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// binaryBuilder turns the parsed tables into the Value Model tree.
type binaryBuilder struct {
	r             *reader
	structEntries []structEntry
	fieldEntries  []fieldEntry
	labels        []string
	fieldData     []byte
	fieldIndices  []byte
	listIndices   []byte
}

func (b *binaryBuilder) buildStruct(idx uint32) (*StructValue, error) {
	if int(idx) >= len(b.structEntries) {
		return nil, newBinaryErr(idx, "struct index %d out of range (%d structs)", idx, len(b.structEntries))
	}
	se := b.structEntries[idx]
	s := NewStruct(se.typeID)

	var fieldIdxs []uint32
	switch se.fieldCount {
	case 0:
		// no fields
	case 1:
		fieldIdxs = []uint32{se.dataOrOffset}
	default:
		off := se.dataOrOffset
		if uint64(off)+uint64(se.fieldCount)*4 > uint64(len(b.fieldIndices)) {
			return nil, newBinaryErr(off, "field-indices read of %d entries overflows blob of %d bytes", se.fieldCount, len(b.fieldIndices))
		}
		fieldIdxs = make([]uint32, se.fieldCount)
		for i := uint32(0); i < se.fieldCount; i++ {
			fieldIdxs[i] = binary.LittleEndian.Uint32(b.fieldIndices[off+i*4 : off+i*4+4])
		}
	}

	for _, fi := range fieldIdxs {
		if int(fi) >= len(b.fieldEntries) {
			return nil, newBinaryErr(fi, "field index %d out of range (%d fields)", fi, len(b.fieldEntries))
		}
		fe := b.fieldEntries[fi]
		if int(fe.labelIdx) >= len(b.labels) {
			return nil, newBinaryErr(fe.labelIdx, "label index %d out of range (%d labels)", fe.labelIdx, len(b.labels))
		}
		label := b.labels[fe.labelIdx]
		v, err := b.buildValue(fe.typeID, fe.valueOrOffset)
		if err != nil {
			return nil, err
		}
		s.Set(label, v)
	}
	return s, nil
}

func (b *binaryBuilder) buildValue(typeID, voo uint32) (Value, error) {
	if typeID > 17 {
		return Value{}, newBinaryErr(voo, "field type code %d outside 0-17", typeID)
	}
	t, ok := TypeByBinaryCode(typeID)
	if !ok {
		return Value{}, newUnknownTypeErr(voo, "field type code %d not in registry", typeID)
	}
	switch t {
	case Byte:
		return Value{Type: Byte, U8: uint8(voo)}, nil
	case Char:
		return Value{Type: Char, I8: int8(voo)}, nil
	case Word:
		return Value{Type: Word, U16: uint16(voo)}, nil
	case Short:
		return Value{Type: Short, I16: int16(voo)}, nil
	case Dword:
		return Value{Type: Dword, U32: voo}, nil
	case Int:
		return Value{Type: Int, I32: int32(voo)}, nil
	case Float:
		return Value{Type: Float, F32: math.Float32frombits(voo)}, nil
	case Dword64:
		u, err := b.readU64FieldData(voo)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: Dword64, U64: u}, nil
	case Int64:
		u, err := b.readU64FieldData(voo)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: Int64, I64: int64(u)}, nil
	case Double:
		u, err := b.readU64FieldData(voo)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: Double, F64: math.Float64frombits(u)}, nil
	case ResRef:
		if int(voo) >= len(b.fieldData) {
			return Value{}, newBinaryErr(voo, "resref length byte outside field-data blob")
		}
		n := int(b.fieldData[voo])
		s, err := b.readFieldDataBytes(voo+1, uint32(n))
		if err != nil {
			return Value{}, err
		}
		return Value{Type: ResRef, Str: string(s)}, nil
	case CExoString:
		n, err := b.readU32FieldData(voo)
		if err != nil {
			return Value{}, err
		}
		s, err := b.readFieldDataBytes(voo+4, n)
		if err != nil {
			return Value{}, err
		}
		return cExoStrVal(string(s)), nil
	case Void:
		n, err := b.readU32FieldData(voo)
		if err != nil {
			return Value{}, err
		}
		bs, err := b.readFieldDataBytes(voo+4, n)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: Void, Bin: append([]byte(nil), bs...)}, nil
	case CExoLocString:
		return b.buildLocString(voo)
	case Struct:
		s, err := b.buildStruct(voo)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: Struct, Struct: s}, nil
	case List:
		return b.buildList(voo)
	default:
		return Value{}, newUnknownTypeErr(voo, "field type %v has no binary decoding", t)
	}
}

func (b *binaryBuilder) readU32FieldData(offset uint32) (uint32, error) {
	if uint64(offset)+4 > uint64(len(b.fieldData)) {
		return 0, newBinaryErr(offset, "u32 read overflows field-data blob")
	}
	return binary.LittleEndian.Uint32(b.fieldData[offset : offset+4]), nil
}

func (b *binaryBuilder) readU64FieldData(offset uint32) (uint64, error) {
	if uint64(offset)+8 > uint64(len(b.fieldData)) {
		return 0, newBinaryErr(offset, "u64 read overflows field-data blob")
	}
	return binary.LittleEndian.Uint64(b.fieldData[offset : offset+8]), nil
}

func (b *binaryBuilder) readFieldDataBytes(offset, size uint32) ([]byte, error) {
	if uint64(offset)+uint64(size) > uint64(len(b.fieldData)) {
		return nil, newBinaryErr(offset, "read of %d bytes overflows field-data blob", size)
	}
	return b.fieldData[offset : offset+size], nil
}

func (b *binaryBuilder) buildLocString(offset uint32) (Value, error) {
	// total_size is the byte count of everything after this field, unused
	// beyond validating the blob is present.
	if _, err := b.readU32FieldData(offset); err != nil {
		return Value{}, err
	}
	strref, err := b.readU32FieldData(offset + 4)
	if err != nil {
		return Value{}, err
	}
	count, err := b.readU32FieldData(offset + 8)
	if err != nil {
		return Value{}, err
	}
	entries := make(map[uint32]string, count)
	cursor := offset + 12
	for i := uint32(0); i < count; i++ {
		langID, err := b.readU32FieldData(cursor)
		if err != nil {
			return Value{}, err
		}
		size, err := b.readU32FieldData(cursor + 4)
		if err != nil {
			return Value{}, err
		}
		text, err := b.readFieldDataBytes(cursor+8, size)
		if err != nil {
			return Value{}, err
		}
		entries[langID] = NormalizeText(string(text))
		cursor += 8 + size
	}
	return Value{Type: CExoLocString, Loc: &LocString{StrRef: strref, Entries: entries}}, nil
}

func (b *binaryBuilder) buildList(offset uint32) (Value, error) {
	if uint64(offset)+4 > uint64(len(b.listIndices)) {
		return Value{}, newBinaryErr(offset, "list count read overflows list-indices blob")
	}
	count := binary.LittleEndian.Uint32(b.listIndices[offset : offset+4])
	if uint64(offset)+4+uint64(count)*4 > uint64(len(b.listIndices)) {
		return Value{}, newBinaryErr(offset, "list of %d entries overflows list-indices blob", count)
	}
	items := make([]*StructValue, count)
	for i := uint32(0); i < count; i++ {
		structIdx := binary.LittleEndian.Uint32(b.listIndices[offset+4+i*4 : offset+8+i*4])
		s, err := b.buildStruct(structIdx)
		if err != nil {
			return Value{}, err
		}
		items[i] = s
	}
	return Value{Type: List, List: items}, nil
}

// --- writer ---

type writeState struct {
	structs      []structEntry
	fields       []fieldEntry
	labels       []string
	labelIndex   map[string]int
	fieldData    bytes.Buffer
	fieldIndices bytes.Buffer
	listIndices  bytes.Buffer
}

func (w *writeState) labelFor(label string) uint32 {
	if i, ok := w.labelIndex[label]; ok {
		return uint32(i)
	}
	i := len(w.labels)
	w.labels = append(w.labels, label)
	w.labelIndex[label] = i
	return uint32(i)
}

// WriteBinary serializes doc into the binary GFF wire format.
func WriteBinary(doc *Document, opts *WriteOptions) ([]byte, error) {
	if opts == nil {
		opts = &WriteOptions{}
	}
	w := &writeState{labelIndex: make(map[string]int)}

	rootIdx, err := w.processStruct(doc.Root)
	if err != nil {
		return nil, err
	}
	if rootIdx != 0 {
		return nil, newBinaryErr(0, "root struct did not receive index 0")
	}

	var buf bytes.Buffer
	buf.Grow(headerSize + len(w.structs)*structSize + len(w.fields)*fieldSize + len(w.labels)*labelSize +
		w.fieldData.Len() + w.fieldIndices.Len() + w.listIndices.Len())

	structOffset := uint32(headerSize)
	fieldOffset := structOffset + uint32(len(w.structs))*structSize
	labelOffset := fieldOffset + uint32(len(w.fields))*fieldSize
	fieldDataOffset := labelOffset + uint32(len(w.labels))*labelSize
	fieldIndicesOffset := fieldDataOffset + uint32(w.fieldData.Len())
	listIndicesOffset := fieldIndicesOffset + uint32(w.fieldIndices.Len())

	fileType := PadMagicTag(doc.MagicTag)
	buf.WriteString(fileType)
	buf.WriteString(gffVersion)

	writeU32Pairs(&buf,
		structOffset, uint32(len(w.structs)),
		fieldOffset, uint32(len(w.fields)),
		labelOffset, uint32(len(w.labels)),
		fieldDataOffset, uint32(w.fieldData.Len()),
		fieldIndicesOffset, uint32(w.fieldIndices.Len()),
		listIndicesOffset, uint32(w.listIndices.Len()),
	)

	for _, se := range w.structs {
		writeU32Pairs(&buf, se.typeID, se.dataOrOffset, se.fieldCount)
	}
	for _, fe := range w.fields {
		writeU32Pairs(&buf, fe.typeID, fe.labelIdx, fe.valueOrOffset)
	}
	for _, l := range w.labels {
		b := make([]byte, labelSize)
		copy(b, l)
		buf.Write(b)
	}
	buf.Write(w.fieldData.Bytes())
	buf.Write(w.fieldIndices.Bytes())
	buf.Write(w.listIndices.Bytes())

	return buf.Bytes(), nil
}

func writeU32Pairs(buf *bytes.Buffer, vals ...uint32) {
	b := make([]byte, 4)
	for _, v := range vals {
		binary.LittleEndian.PutUint32(b, v)
		buf.Write(b)
	}
}

// WriteBinaryFile writes doc to path via a temp-file-then-rename, so a
// failure mid-write never leaves a partial file at the destination.
func WriteBinaryFile(path string, doc *Document, opts *WriteOptions) error {
	data, err := WriteBinary(doc, opts)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return &CodecError{Kind: IoFailure, Path: path, Msg: "create temp file", Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return &CodecError{Kind: IoFailure, Path: path, Msg: "write temp file", Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &CodecError{Kind: IoFailure, Path: path, Msg: "close temp file", Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &CodecError{Kind: IoFailure, Path: path, Msg: "rename temp file", Err: err}
	}
	return nil
}

func (w *writeState) processStruct(s *StructValue) (uint32, error) {
	idx := uint32(len(w.structs))
	w.structs = append(w.structs, structEntry{typeID: s.ID})

	fieldIdxs := make([]uint32, 0, len(s.Fields))
	for _, f := range s.Fields {
		fi, err := w.processField(f)
		if err != nil {
			return 0, err
		}
		fieldIdxs = append(fieldIdxs, fi)
	}

	var dataOrOffset uint32
	switch len(fieldIdxs) {
	case 0:
		dataOrOffset = 0
	case 1:
		dataOrOffset = fieldIdxs[0]
	default:
		dataOrOffset = uint32(w.fieldIndices.Len())
		for _, fi := range fieldIdxs {
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, fi)
			w.fieldIndices.Write(b)
		}
	}
	w.structs[idx].dataOrOffset = dataOrOffset
	w.structs[idx].fieldCount = uint32(len(fieldIdxs))
	return idx, nil
}

func (w *writeState) processField(f Field) (uint32, error) {
	code, ok := BinaryCode(f.Value.Type)
	if !ok {
		return 0, newUnknownTypeErr(0, "type %v has no binary field code", f.Value.Type)
	}
	labelIdx := w.labelFor(f.Label)

	// Reserve this field's own table slot before recursing into a nested
	// struct/list, so the field array stays in pre-order: a struct's field
	// entry precedes the field entries of whatever it contains.
	idx := uint32(len(w.fields))
	w.fields = append(w.fields, fieldEntry{typeID: code, labelIdx: labelIdx})

	var voo uint32
	var err error
	switch f.Value.Type {
	case Byte:
		voo = uint32(f.Value.U8)
	case Char:
		voo = uint32(uint8(f.Value.I8))
	case Word:
		voo = uint32(f.Value.U16)
	case Short:
		voo = uint32(uint16(f.Value.I16))
	case Dword:
		voo = f.Value.U32
	case Int:
		voo = uint32(f.Value.I32)
	case Float:
		voo = math.Float32bits(f.Value.F32)
	case Dword64:
		voo = w.appendU64(f.Value.U64)
	case Int64:
		voo = w.appendU64(uint64(f.Value.I64))
	case Double:
		voo = w.appendU64(math.Float64bits(f.Value.F64))
	case ResRef:
		voo, err = w.appendResRef(f.Value.Str)
	case CExoString:
		voo = w.appendLenPrefixed([]byte(f.Value.Str))
	case Void:
		voo = w.appendLenPrefixed(f.Value.Bin)
	case CExoLocString:
		voo = w.appendLocString(f.Value.Loc)
	case Struct:
		voo, err = w.processStruct(f.Value.Struct)
	case List:
		voo, err = w.appendList(f.Value.List)
	default:
		return 0, newUnknownTypeErr(0, "type %v has no binary encoding", f.Value.Type)
	}
	if err != nil {
		return 0, err
	}

	w.fields[idx].valueOrOffset = voo
	return idx, nil
}

func (w *writeState) appendU64(v uint64) uint32 {
	off := uint32(w.fieldData.Len())
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	w.fieldData.Write(b)
	return off
}

func (w *writeState) appendResRef(s string) (uint32, error) {
	if len(s) > 16 {
		return 0, &CodecError{Kind: MalformedBinary, Msg: "resref longer than 16 bytes: " + s}
	}
	off := uint32(w.fieldData.Len())
	w.fieldData.WriteByte(byte(len(s)))
	w.fieldData.WriteString(s)
	return off, nil
}

func (w *writeState) appendLenPrefixed(b []byte) uint32 {
	off := uint32(w.fieldData.Len())
	lb := make([]byte, 4)
	binary.LittleEndian.PutUint32(lb, uint32(len(b)))
	w.fieldData.Write(lb)
	w.fieldData.Write(b)
	return off
}

func (w *writeState) appendLocString(loc *LocString) uint32 {
	if loc == nil {
		loc = &LocString{StrRef: SentinelStrRef}
	}
	off := uint32(w.fieldData.Len())

	// Placeholder total_size, patched below once the entries are written.
	sizeOff := w.fieldData.Len()
	w.fieldData.Write(make([]byte, 4))

	strrefB := make([]byte, 4)
	binary.LittleEndian.PutUint32(strrefB, loc.StrRef)
	w.fieldData.Write(strrefB)

	countB := make([]byte, 4)
	binary.LittleEndian.PutUint32(countB, uint32(len(loc.Entries)))
	w.fieldData.Write(countB)

	for _, langID := range sortedLangIDs(loc.Entries) {
		text := loc.Entries[langID]
		idB := make([]byte, 4)
		binary.LittleEndian.PutUint32(idB, langID)
		w.fieldData.Write(idB)
		lb := make([]byte, 4)
		binary.LittleEndian.PutUint32(lb, uint32(len(text)))
		w.fieldData.Write(lb)
		w.fieldData.WriteString(text)
	}

	total := uint32(w.fieldData.Len() - sizeOff - 4)
	patch := w.fieldData.Bytes()[sizeOff : sizeOff+4]
	binary.LittleEndian.PutUint32(patch, total)

	return off
}

func sortedLangIDs(entries map[uint32]string) []uint32 {
	ids := make([]uint32, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

func (w *writeState) appendList(items []*StructValue) (uint32, error) {
	off := uint32(w.listIndices.Len())
	countB := make([]byte, 4)
	binary.LittleEndian.PutUint32(countB, uint32(len(items)))
	w.listIndices.Write(countB)
	// Reserve index slots, then backfill after recursing so sibling list
	// entries stay contiguous even though child structs append elsewhere.
	idxSlot := w.listIndices.Len()
	w.listIndices.Write(make([]byte, 4*len(items)))
	for i, item := range items {
		structIdx, err := w.processStruct(item)
		if err != nil {
			return 0, err
		}
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, structIdx)
		copy(w.listIndices.Bytes()[idxSlot+i*4:idxSlot+i*4+4], b)
	}
	return off, nil
}
