package artifact

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// formatVersion participates in every fingerprint so that a change to the
// rendered output formats invalidates previously written artifacts.
const formatVersion = "1"

// Fingerprint hashes the rendered artifact contents of one module. Two runs
// that would write byte-identical files produce the same fingerprint.
func Fingerprint(latex string, jsonBytes []byte) string {
	d := xxhash.New()
	d.WriteString(formatVersion)
	d.WriteString("\x00")
	d.WriteString(latex)
	d.WriteString("\x00")
	d.Write(jsonBytes)
	return fmt.Sprintf("%016x", d.Sum64())
}
