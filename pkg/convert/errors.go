package convert

import (
	"errors"

	"datatoolkit/pkg/convert/codec"
	"datatoolkit/pkg/convert/detect"
	"datatoolkit/pkg/convert/tabular"
)

// userErrors is the full taxonomy of failures caused by the input rather
// than by the engine. Each is terminal for its request; nothing is retried
// and no default is silently substituted.
var userErrors = []error{
	detect.ErrUnsupportedFormat,
	detect.ErrAmbiguousFormat,
	codec.ErrMalformedInput,
	codec.ErrEncoding,
	codec.ErrCorruptFile,
	codec.ErrUnsupportedWorkbook,
	tabular.ErrInvalidPage,
	ErrUnsupportedConversion,
	ErrEmptyFile,
	ErrFileTooLarge,
	ErrDisallowedExtension,
}

// IsUserError reports whether err belongs to the input-error taxonomy, as
// opposed to an internal failure. Callers use it to pick between a 4xx
// and a 5xx response.
func IsUserError(err error) bool {
	for _, sentinel := range userErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
