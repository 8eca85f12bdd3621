// Package builtin holds assets compiled into the binary.
package builtin

import "embed"

// FS contains the default sphere texture.
//
//go:embed *.png
var FS embed.FS
