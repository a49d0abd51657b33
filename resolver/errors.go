package resolver

import "errors"

var (
	errNotAnObject  = errors.New("resolver: schema document must be a JSON object at the top level")
	errNonStringKey = errors.New("resolver: non-string key in schema document")
)
