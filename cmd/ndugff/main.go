// Command ndugff is a thin cobra-based CLI over the gff/gffjson/dsl/erf
// packages: it exists so the codec is exercised end-to-end, not as a
// feature-complete tool.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nwneedata/ndugff/erf"
	"github.com/nwneedata/ndugff/gff"
	"github.com/nwneedata/ndugff/gff/dsl"
	"github.com/nwneedata/ndugff/gff/gffjson"
)

func loadDocument(path string) (*gff.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return gffjson.Decode(data, nil)
	case ".ndugff":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return dsl.Decode(data)
	default:
		return gff.ReadBinaryFile(path, nil)
	}
}

func saveDocument(path string, doc *gff.Document) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		data, err := gffjson.Encode(doc, &gffjson.Options{Indent: "  "})
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	case ".ndugff":
		data, err := dsl.Encode(doc)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	default:
		return gff.WriteBinaryFile(path, doc, nil)
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	doc, err := loadDocument(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", in, err)
	}
	if err := saveDocument(out, doc); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return nil
}

func runErfExtract(cmd *cobra.Command, args []string) error {
	archive, dir := args[0], args[1]
	r, err := erf.OpenFile(archive, nil)
	if err != nil {
		return fmt.Errorf("opening %s: %w", archive, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, name := range r.Filenames() {
		data, err := r.ReadFile(name)
		if err != nil {
			return fmt.Errorf("reading %s from %s: %w", name, archive, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

func runErfPack(cmd *cobra.Command, args []string) error {
	dir, archive := args[0], args[1]
	w, err := erf.NewWriterForExtension(filepath.Ext(archive))
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		if err := w.AddFile(entry.Name(), data); err != nil {
			return err
		}
	}
	return w.WriteFile(archive, nil)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "ndugff",
		Short: "A GFF/ERF codec for BioWare Aurora-derived game data",
		Long:  "Reads, writes and transforms GFF documents between binary, JSON and NDUGFF text, and ERF archives.",
	}

	convertCmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a single GFF document between binary, JSON and NDUGFF forms",
		Args:  cobra.ExactArgs(2),
		RunE:  runConvert,
	}

	erfCmd := &cobra.Command{
		Use:   "erf",
		Short: "Inspect and build ERF archives",
	}
	erfExtractCmd := &cobra.Command{
		Use:   "extract <archive> <dir>",
		Short: "Extract every resource from an archive into a directory",
		Args:  cobra.ExactArgs(2),
		RunE:  runErfExtract,
	}
	erfPackCmd := &cobra.Command{
		Use:   "pack <dir> <archive>",
		Short: "Pack a directory's files into an archive",
		Args:  cobra.ExactArgs(2),
		RunE:  runErfPack,
	}
	erfCmd.AddCommand(erfExtractCmd, erfPackCmd)

	rootCmd.AddCommand(convertCmd, erfCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
