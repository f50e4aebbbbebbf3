package convert

import "errors"

var (
	// ErrConversionDegraded is returned together with unchanged input when
	// conversion could not be completed.
	ErrConversionDegraded = errors.New("conversion degraded")
	// ErrSelectorResolutionAmbiguous is reported when attribute annotation
	// cannot be attached to a single element.
	ErrSelectorResolutionAmbiguous = errors.New("selector resolution ambiguous")
)
