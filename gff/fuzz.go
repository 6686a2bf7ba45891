package gff

// Fuzz is a go-fuzz entry point exercising the binary reader against
// arbitrary input, the same shape as the teacher's root-level fuzz.go.
func Fuzz(data []byte) int {
	doc, err := ReadBinary(data, nil)
	if err != nil {
		return 0
	}
	if _, err := WriteBinary(doc, nil); err != nil {
		return 0
	}
	return 1
}
