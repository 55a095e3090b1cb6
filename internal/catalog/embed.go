package catalog

import (
	_ "embed"
)

// Default reference data set shipped with the binary
//
//go:embed data/reference.yaml
var defaultReferenceData []byte
