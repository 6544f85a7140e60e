package v1alpha1

import "errors"

// ErrInvalidClusterKind is returned when an unknown cluster kind is specified.
var ErrInvalidClusterKind = errors.New("invalid cluster kind")

// ErrUnsupportedMode is returned when a provisioning mode other than local is specified.
var ErrUnsupportedMode = errors.New("unsupported provisioning mode")

// ErrPathAbsolute is returned when a configured path is absolute.
var ErrPathAbsolute = errors.New("path must be workspace-relative, not absolute")

// ErrPathTraversal is returned when a configured path contains . or .. segments.
var ErrPathTraversal = errors.New("path must not contain traversal segments")

// ErrPathInvalidCharacter is returned when a configured path contains a null byte.
var ErrPathInvalidCharacter = errors.New("path contains an invalid character")

// ErrPathEmpty is returned when a required path is empty.
var ErrPathEmpty = errors.New("path must not be empty")

// ErrFieldRequired is returned when a required configuration field is empty.
var ErrFieldRequired = errors.New("field is required")

// ErrBundleEmpty is returned when decoding an empty context bundle payload.
var ErrBundleEmpty = errors.New("context bundle payload is empty")
