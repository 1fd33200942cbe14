package misc

import (
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/prhdev222/med-file-case/internal/types"
	"strings"
)

// Seperator ends every line of a streamed JSON response.
var Seperator = []byte("\n")

// StrContains returns true if "str" is in "values"
// e.g "a" in "a,b,c" => true
func StrContains(str string, values []string) bool {
	for _, next := range values {
		if str == next {
			return true
		}
	}
	return false
}

// ParseArtifactRef checks the kind and trims the name of an artifact
// reference given on a command line or in a URL.
func ParseArtifactRef(kind, name string) (types.ArtifactRef, error) {
	k := types.ArtifactKind(strings.ToLower(strings.TrimSpace(kind)))
	if !k.Valid() {
		return types.ArtifactRef{}, fmt.Errorf("unknown artifact kind %q, expected %s or %s",
			kind, types.ArtifactKindDatabase, types.ArtifactKindUploads)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return types.ArtifactRef{}, fmt.Errorf("artifact name is empty")
	}
	return types.ArtifactRef{Kind: k, Name: name}, nil
}

// HumanSize formats a byte count; negative sizes are unknown.
func HumanSize(size int64) string {
	if size < 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(size))
}
