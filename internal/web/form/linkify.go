package form

import (
	"html/template"
	"regexp"
	"strings"

	"mvdan.cc/xurls/v2"
)

var webURLRe = mustWebURLRegexp()

func mustWebURLRegexp() *regexp.Regexp {
	re, err := xurls.StrictMatchingScheme(`https?://`)
	if err != nil {
		panic("create web URL regexp: " + err.Error())
	}

	return re
}

// linkify escapes s and turns http(s) URLs into anchors.
func linkify(s string) template.HTML {
	matches := webURLRe.FindAllStringIndex(s, -1)

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(template.HTMLEscapeString(s[last:m[0]]))

		u := template.HTMLEscapeString(s[m[0]:m[1]])
		b.WriteString(`<a href="`)
		b.WriteString(u)
		b.WriteString(`" rel="noopener noreferrer" target="_blank">`)
		b.WriteString(u)
		b.WriteString(`</a>`)

		last = m[1]
	}
	b.WriteString(template.HTMLEscapeString(s[last:]))

	return template.HTML(b.String()) //nolint:gosec // every segment is escaped
}
