package ironlog

import (
	_ "embed"
)

// Version is the release of the engine, as written in the VERSION file.
//
//go:embed VERSION
var Version string
