package erf

import (
	"reflect"
	"testing"
)

func TestWriteThenReadRoundTrips(t *testing.T) {
	w := NewWriter("HAK ")
	files := map[string][]byte{
		"sword01.uti":  []byte("sword data"),
		"shield01.uti": []byte("shield data"),
		"module.are":   []byte("area data"),
	}
	for name, data := range files {
		if err := w.AddFile(name, data); err != nil {
			t.Fatalf("AddFile(%s): %v", name, err)
		}
	}

	data, err := w.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	r, err := Read(data, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if r.FileType != "HAK " {
		t.Errorf("FileType = %q, want %q", r.FileType, "HAK ")
	}
	if len(r.Filenames()) != len(files) {
		t.Fatalf("Filenames() = %v, want %d entries", r.Filenames(), len(files))
	}
	for name, want := range files {
		got, err := r.ReadFile(name)
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", name, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ReadFile(%s) = %q, want %q", name, got, want)
		}
	}
}

func TestUnknownMagicFallsBackToERF(t *testing.T) {
	w := NewWriter("HAK ")
	if err := w.AddFile("a.uti", []byte("x")); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	data, err := w.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	copy(data[0:4], []byte("ZZZZ"))

	r, err := Read(data, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if r.FileType != "ERF " {
		t.Errorf("FileType = %q, want fallback %q", r.FileType, "ERF ")
	}
}

func TestNVMAcceptedSymmetrically(t *testing.T) {
	if _, ok := ReaderAcceptedExtensions[".nvm"]; !ok {
		t.Error(".nvm should be in the reader's accepted extensions")
	}
	if _, ok := WriterExtensions[".nvm"]; !ok {
		t.Error(".nvm should be in the writer's extensions")
	}
}

func TestUnknownResTypeBecomesPlaceholderExtension(t *testing.T) {
	if got := ExtensionForResType(65000); got != "???" {
		t.Errorf("ExtensionForResType(unknown) = %q, want ???", got)
	}
}
