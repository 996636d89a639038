// Package renderer turns the tracker state into markdown.
//
// Every view is a text/template main file assembled with partials, all embedded
// in the binary.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/cryptojourney/date"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.md
var embedded embed.FS

var templates, _ = fs.Sub(embedded, "templates")

// funcs are available in every template.
var funcs = template.FuncMap{
	"usd":    USD,
	"cny":    CNY,
	"signed": Signed,
	"round":  func(d decimal.Decimal) string { return d.StringFixed(0) },
	"day":    func(d date.Date) string { return d.Format("Mon 2006-01-02") },
	"short":  func(d date.Date) string { return fmt.Sprintf("%d/%d", d.Month(), d.Day()) },
	"bar":    bar,
	"cell":   func(s string) string { return strings.ReplaceAll(s, "|", `\|`) },
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			content, err = fs.ReadFile(templates, file)
			if err != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, err)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}

// bar draws v as a horizontal bar of at most width cells, scaled on max.
func bar(v, max decimal.Decimal, width int) string {
	if max.IsZero() {
		return ""
	}
	n := int(v.Abs().Div(max.Abs()).Mul(decimal.NewFromInt(int64(width))).Round(0).IntPart())
	if n == 0 && !v.IsZero() {
		n = 1
	}
	if v.IsNegative() {
		return strings.Repeat("░", n)
	}
	return strings.Repeat("█", n)
}
