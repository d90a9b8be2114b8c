package state

import (
	"time"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
		DefaultUserAgent: []byte(`html, address, blockquote, body, dd, div, dl, dt, fieldset, form,
figure, figcaption, footer, header, hr, legend, main, nav, ol, p, pre, section, article, aside, ul,
h1, h2, h3, h4, h5, h6, table, caption, li { display: block }
head, script, style, template, title, meta, link { display: none }
li { display: list-item }
table { display: table; border-collapse: separate; border-spacing: 2px }
tr { display: table-row }
td, th { display: table-cell; padding: 1px }
caption { display: table-caption; text-align: center }
span, a, em, strong, b, i, code, small, sub, sup { display: inline }
img, button, input, select, textarea { display: inline-block }

body { margin: 8px }
p, blockquote, figure, dl, ul, ol, pre { margin: 1em 0 }
ul, ol { padding-left: 40px }
blockquote, figure { margin-left: 40px; margin-right: 40px }
h1 { font-size: 2em; margin: 0.67em 0; font-weight: bold }
h2 { font-size: 1.5em; margin: 0.83em 0; font-weight: bold }
h3 { font-size: 1.17em; margin: 1em 0; font-weight: bold }
h4 { margin: 1.33em 0; font-weight: bold }
h5 { font-size: 0.83em; margin: 1.67em 0; font-weight: bold }
h6 { font-size: 0.67em; margin: 2.33em 0; font-weight: bold }
hr { border: 1px inset; margin: 0.5em auto; color: gray }
pre, code { font-family: monospace }
pre { white-space: pre }
b, strong, th { font-weight: bold }
i, em, cite, var { font-style: italic }
small { font-size: smaller }
sub { vertical-align: sub; font-size: smaller }
sup { vertical-align: super; font-size: smaller }
a { color: #0000ee; text-decoration: underline }
u, ins { text-decoration: underline }
s, del { text-decoration: line-through }
:focus { outline: 1px dotted }
`),
	}
}
