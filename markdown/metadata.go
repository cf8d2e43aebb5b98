package markdown

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// metaLanguage is the info string of the fenced code block that holds a document's metadata.
const metaLanguage = "meta"

// Metadata describes a document. Title and Date are required; Lang and Desc are optional.
type Metadata struct {
	Title string    `toml:"title"`
	Date  time.Time `toml:"date"`
	Lang  string    `toml:"lang,omitempty"`
	Desc  string    `toml:"desc,omitempty"`
}

// parseMetadata decodes the TOML contents of a meta block. Unknown keys and missing required keys
// are errors.
func parseMetadata(input string) (Metadata, error) {
	var meta Metadata
	md, err := toml.Decode(input, &meta)
	if err != nil {
		return Metadata{}, errors.WithMessage(err, "decoding metadata")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Metadata{}, errors.Errorf("unknown metadata keys: %s", strings.Join(keys, ", "))
	}
	for _, key := range []string{"title", "date"} {
		if !md.IsDefined(key) {
			return Metadata{}, errors.Errorf("missing required metadata key %q", key)
		}
	}
	return meta, nil
}
