package view

import _ "embed"

// StaticCSS is the storefront stylesheet, embedded so the binary ships
// self-contained.
//
//go:embed templates/store.css
var StaticCSS string
