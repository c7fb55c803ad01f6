// Package schemas holds the JSON Schema contracts of every flow, one input and one
// output document per flow, named <flow>.<input|output>.schema.json.
package schemas

import "embed"

// FS contains every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS
