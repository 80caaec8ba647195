package config

import (
	"fmt"
	"os"
	"strings"
)

// DefaultIIIFBase is where each handle resolves unless IIIF_BASE_URL says otherwise
const DefaultIIIFBase = "https://library.bc.edu/iiif/view/"

// Handles configures Handle batch file generation
type Handles struct {
	Prefix   string
	Password string
	IIIFBase string
}

// LoadHandles reads HANDLE_PREFIX, HANDLE_PASSWORD and IIIF_BASE_URL
func LoadHandles() (*Handles, error) {
	h := &Handles{
		Prefix:   strings.Trim(strings.TrimSpace(os.Getenv("HANDLE_PREFIX")), "/"),
		Password: os.Getenv("HANDLE_PASSWORD"),
		IIIFBase: DefaultIIIFBase,
	}
	setString(&h.IIIFBase, "IIIF_BASE_URL")

	var missing []string
	if h.Prefix == "" {
		missing = append(missing, "HANDLE_PREFIX")
	}
	if h.Password == "" {
		missing = append(missing, "HANDLE_PASSWORD")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s not set", ErrConfig, strings.Join(missing, " and "))
	}

	return h, nil
}
