// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrValidation indicates a request that cannot be served as given, such as
// an empty broadcast message. Wrap it with the reason: fmt.Errorf("%w: ...").
var ErrValidation = errors.New("validation")
