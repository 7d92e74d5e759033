package view

import (
	_ "embed"
	"html/template"
	"io"
)

//go:embed templates/page.gohtml
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

// Render writes the storefront page for the given view model.
func Render(w io.Writer, p Page) error {
	return pageTemplate.Execute(w, p)
}
