package techmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnmappedFilename is returned when a filename does not follow the naming convention
var ErrUnmappedFilename = errors.New("filename does not match <identifier>_<sequence>.<ext>")

// <identifier>_<sequence>.<ext>; the identifier may contain underscores itself
var filenamePattern = regexp.MustCompile(`^(.+)_([0-9]+)\.([A-Za-z0-9]+)$`)

// Name holds the parts encoded in a digitized file's name
type Name struct {
	Identifier string
	Sequence   int
	Extension  string
}

// ParseFilename extracts the identifier and sequence number from a filename.
// Any directory part is ignored and the extension is lowercased.
func ParseFilename(name string) (Name, error) {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))

	m := filenamePattern.FindStringSubmatch(base)
	if m == nil {
		return Name{}, fmt.Errorf("%w: %q", ErrUnmappedFilename, name)
	}

	seq, err := strconv.Atoi(m[2])
	if err != nil {
		return Name{}, fmt.Errorf("%w: %q: %v", ErrUnmappedFilename, name, err)
	}

	return Name{
		Identifier: m[1],
		Sequence:   seq,
		Extension:  strings.ToLower(m[3]),
	}, nil
}
