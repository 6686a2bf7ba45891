// Package erf reads and writes Encapsulated Resource File archives: the
// flat, named-blob container format used for module, hak, and nvm packages
// alongside the GFF codec.
package erf

import (
	"bytes"
	"encoding/binary"
	"os"
	"sort"
	"strings"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/nwneedata/ndugff/gff"
	"github.com/nwneedata/ndugff/internal/diag"
)

const (
	headerSize      = 160
	keyEntrySize    = 24
	resourceEntrySize = 8
	resrefSize      = 16
	erfVersion      = "V1.0"
)

// ReaderAcceptedExtensions maps a file extension to the archive magic the
// reader will accept. ".nvm" is included symmetrically with the writer's
// table, resolving the documented extension/reader asymmetry.
var ReaderAcceptedExtensions = map[string]string{
	".erf": "ERF ",
	".mod": "MOD ",
	".hak": "HAK ",
	".nwm": "NWM ",
	".nvm": "NVM ",
}

// WriterExtensions is the extension a Writer uses to pick the archive
// magic, keyed the same way as ReaderAcceptedExtensions.
var WriterExtensions = ReaderAcceptedExtensions

// legacyFallbackMagic is the documented legacy behavior: an unrecognized
// file-type magic on read falls back to a plain ERF archive.
const legacyFallbackMagic = "ERF "

// resTypeByExt and extByResType cover the GFF family plus a handful of other
// common NWN resource kinds. A resource with an unknown code is read under
// the name "<resref>.???"; its numeric code is not kept, and a Writer
// rejects the "???" extension.
var resTypeByExt = map[string]uint16{
	".res": 0, ".bmp": 1, ".mve": 2, ".tga": 3, ".wav": 4,
	".plt": 6, ".ini": 7, ".mp3": 8, ".mpg": 9, ".txt": 10,
	".plh": 2000, ".tex": 2001, ".mdl": 2002, ".thg": 2003,
	".fnt": 2005, ".lua": 2007, ".slt": 2008, ".nss": 2009,
	".ncs": 2010, ".mod": 2011, ".are": 2012, ".set": 2013,
	".ifo": 2014, ".bic": 2015, ".wok": 2016, ".2da": 2017,
	".tlk": 2018, ".txi": 2022, ".git": 2023, ".uti": 2025,
	".utc": 2027, ".dlg": 2029, ".itp": 2030, ".utt": 2032,
	".dds": 2033, ".uts": 2035, ".ltr": 2036, ".gff": 2037,
	".fac": 2038, ".ute": 2040, ".utd": 2042, ".utp": 2044,
	".dft": 2045, ".gic": 2046, ".gui": 2047, ".utm": 2051,
	".dwk": 2052, ".pwk": 2053, ".jrl": 2056, ".utw": 2058,
	".ssf": 2060,
}

var extByResType = func() map[uint16]string {
	m := make(map[uint16]string, len(resTypeByExt))
	for ext, code := range resTypeByExt {
		m[code] = ext
	}
	return m
}()

// ExtensionForResType returns the file extension for a resource type code,
// or the "???" placeholder the spec documents for unknown codes.
func ExtensionForResType(code uint16) string {
	if ext, ok := extByResType[code]; ok {
		return ext
	}
	return "???"
}

// ResTypeForExtension returns the resource type code for an extension.
func ResTypeForExtension(ext string) (uint16, bool) {
	code, ok := resTypeByExt[strings.ToLower(ext)]
	return code, ok
}

// Resource is one named blob inside an archive.
type Resource struct {
	Name string // resref + extension, e.g. "mymodule.are"
	Data []byte
}

// Reader parses an already-loaded ERF archive buffer.
type Reader struct {
	FileType string
	entries  []Resource
	index    map[string]int
}

// ReadOptions configures archive reads.
type ReadOptions struct {
	Logger diag.Logger
}

type keyRecord struct {
	resref     string
	resourceID uint32
	resType    uint16
}

// Read parses a complete archive out of an in-memory buffer.
func Read(data []byte, opts *ReadOptions) (*Reader, error) {
	if opts == nil {
		opts = &ReadOptions{}
	}
	log := diag.Default(opts.Logger)

	if len(data) < headerSize {
		return nil, &gff.CodecError{Kind: gff.MalformedBinary, Msg: "buffer shorter than 160-byte header"}
	}

	fileType := string(bytes.TrimRight(data[0:4], "\x00"))
	version := string(bytes.TrimRight(data[4:8], "\x00"))
	if version != erfVersion {
		return nil, &gff.CodecError{Kind: gff.MalformedBinary, Msg: "unexpected ERF version " + version}
	}

	if !isKnownMagic(fileType) {
		log.Warnf("unknown ERF magic %q, falling back to %q", fileType, legacyFallbackMagic)
		fileType = legacyFallbackMagic
	}

	entryCount := binary.LittleEndian.Uint32(data[16:20])
	offsetKeys := binary.LittleEndian.Uint32(data[24:28])
	offsetResources := binary.LittleEndian.Uint32(data[28:32])

	keys := make([]keyRecord, entryCount)
	for i := uint32(0); i < entryCount; i++ {
		base := offsetKeys + i*keyEntrySize
		if uint64(base)+keyEntrySize > uint64(len(data)) {
			return nil, &gff.CodecError{Kind: gff.MalformedBinary, Msg: "key entry table overflows buffer"}
		}
		resref := string(bytes.TrimRight(data[base:base+resrefSize], "\x00"))
		resourceID := binary.LittleEndian.Uint32(data[base+16 : base+20])
		resType := binary.LittleEndian.Uint16(data[base+20 : base+22])
		keys[i] = keyRecord{resref, resourceID, resType}
	}

	entries := make([]Resource, entryCount)
	for i := uint32(0); i < entryCount; i++ {
		base := offsetResources + i*resourceEntrySize
		if uint64(base)+resourceEntrySize > uint64(len(data)) {
			return nil, &gff.CodecError{Kind: gff.MalformedBinary, Msg: "resource entry table overflows buffer"}
		}
		off := binary.LittleEndian.Uint32(data[base : base+4])
		size := binary.LittleEndian.Uint32(data[base+4 : base+8])
		if uint64(off)+uint64(size) > uint64(len(data)) {
			return nil, &gff.CodecError{Kind: gff.MalformedBinary, Msg: "resource data overflows buffer"}
		}
		name := keys[i].resref + "." + strings.TrimPrefix(ExtensionForResType(keys[i].resType), ".")
		entries[i] = Resource{Name: name, Data: append([]byte(nil), data[off:off+size]...)}
	}

	r := &Reader{FileType: fileType, entries: entries, index: make(map[string]int, len(entries))}
	for i, e := range entries {
		r.index[strings.ToLower(e.Name)] = i
	}
	return r, nil
}

func isKnownMagic(magic string) bool {
	for _, m := range ReaderAcceptedExtensions {
		if m == magic {
			return true
		}
	}
	return false
}

// OpenFile mmaps path read-only and parses it as an ERF archive.
func OpenFile(path string, opts *ReadOptions) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &gff.CodecError{Kind: gff.IoFailure, Path: path, Msg: "open", Err: err}
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, &gff.CodecError{Kind: gff.IoFailure, Path: path, Msg: "mmap", Err: err}
	}
	defer m.Unmap()

	return Read([]byte(m), opts)
}

// Filenames returns every resource name in the archive, in on-disk order.
func (r *Reader) Filenames() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// ReadFile returns the bytes of a named resource.
func (r *Reader) ReadFile(name string) ([]byte, error) {
	i, ok := r.index[strings.ToLower(name)]
	if !ok {
		return nil, &gff.CodecError{Kind: gff.IoFailure, Path: name, Msg: "resource not found in archive"}
	}
	return r.entries[i].Data, nil
}

// Writer accumulates resources for a new archive.
type Writer struct {
	fileType  string
	resources []Resource
}

// WriteOptions configures archive writes.
type WriteOptions struct {
	Logger diag.Logger
}

// NewWriter starts a new archive of the given file-type magic (e.g. "HAK ").
func NewWriter(fileType string) *Writer {
	return &Writer{fileType: gff.PadMagicTag(fileType)}
}

// NewWriterForExtension starts a new archive using the magic that
// corresponds to ext (".hak", ".mod", ...).
func NewWriterForExtension(ext string) (*Writer, error) {
	magic, ok := WriterExtensions[strings.ToLower(ext)]
	if !ok {
		return nil, &gff.CodecError{Kind: gff.UnknownType, Msg: "no archive magic for extension " + ext}
	}
	return NewWriter(magic), nil
}

// AddFile stages a resource to be written; name must be "<resref>.<ext>".
func (w *Writer) AddFile(name string, data []byte) error {
	resref := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		resref = name[:i]
	}
	if len(resref) > 16 {
		return &gff.CodecError{Kind: gff.MalformedBinary, Msg: "resref longer than 16 bytes: " + resref}
	}
	w.resources = append(w.resources, Resource{Name: name, Data: data})
	return nil
}

// Bytes serializes the staged resources into the archive wire format.
func (w *Writer) Bytes() ([]byte, error) {
	sorted := make([]Resource, len(w.resources))
	copy(sorted, w.resources)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	type laidOut struct {
		resref  string
		resType uint16
		offset  uint32
		size    uint32
	}
	entries := make([]laidOut, len(sorted))

	keyTableOffset := uint32(headerSize)
	resourceTableOffset := keyTableOffset + uint32(len(sorted))*keyEntrySize
	dataOffset := resourceTableOffset + uint32(len(sorted))*resourceEntrySize

	var dataBuf bytes.Buffer
	cursor := dataOffset
	for i, res := range sorted {
		resref := res.Name
		ext := ""
		if idx := strings.LastIndexByte(res.Name, '.'); idx >= 0 {
			resref = res.Name[:idx]
			ext = res.Name[idx:]
		}
		resType, ok := ResTypeForExtension(ext)
		if !ok {
			return nil, &gff.CodecError{Kind: gff.UnknownType, Msg: "no resource type for extension " + ext}
		}
		entries[i] = laidOut{resref: resref, resType: resType, offset: cursor, size: uint32(len(res.Data))}
		dataBuf.Write(res.Data)
		cursor += uint32(len(res.Data))
	}

	var buf bytes.Buffer
	buf.WriteString(w.fileType)
	buf.WriteString(erfVersion)

	u32 := func(v uint32) {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		buf.Write(b)
	}
	u32(0) // localized_string_count
	u32(0) // localized_string_size
	u32(uint32(len(sorted)))
	u32(headerSize) // offset_to_localized_strings (none, points past header)
	u32(keyTableOffset)
	u32(resourceTableOffset)
	u32(0) // build_year
	u32(0) // build_day
	u32(gff.SentinelStrRef)
	buf.Write(make([]byte, 116))

	for i, e := range entries {
		resrefBytes := make([]byte, resrefSize)
		copy(resrefBytes, e.resref)
		buf.Write(resrefBytes)
		u32(uint32(i))
		rt := make([]byte, 2)
		binary.LittleEndian.PutUint16(rt, e.resType)
		buf.Write(rt)
		buf.Write([]byte{0, 0})
	}
	for _, e := range entries {
		u32(e.offset)
		u32(e.size)
	}
	buf.Write(dataBuf.Bytes())

	return buf.Bytes(), nil
}

// WriteFile serializes and writes the archive to path via a temp file and
// rename, so a failed write never leaves a partial archive at path.
func (w *Writer) WriteFile(path string, opts *WriteOptions) error {
	data, err := w.Bytes()
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return &gff.CodecError{Kind: gff.IoFailure, Path: path, Msg: "create temp file", Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return &gff.CodecError{Kind: gff.IoFailure, Path: path, Msg: "write temp file", Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &gff.CodecError{Kind: gff.IoFailure, Path: path, Msg: "close temp file", Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &gff.CodecError{Kind: gff.IoFailure, Path: path, Msg: "rename temp file", Err: err}
	}
	return nil
}
