// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sitemap

import (
	"encoding/xml"
	"fmt"
	"html/template"
	"io"
)

// Namespace is the sitemap protocol XML namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []xmlURL `xml:"url"`
}

type xmlURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// WriteXML renders set as a sitemap protocol document. Unset preferences
// are omitted.
func WriteXML(w io.Writer, set *URLSet) error {
	doc := xmlURLSet{Xmlns: Namespace, URLs: make([]xmlURL, 0, set.Len())}
	for _, e := range set.Entries() {
		doc.URLs = append(doc.URLs, xmlURL{
			Loc:        e.Loc,
			LastMod:    e.Preferences.LastModString(),
			ChangeFreq: string(e.Preferences.ChangeFreq),
			Priority:   e.Preferences.PriorityString(),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding sitemap xml: %w", err)
	}

	return enc.Close()
}

var htmlTemplate = template.Must(template.New("sitemap").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Sitemap</title>
</head>
<body>
<h1>Sitemap</h1>
<table>
<thead>
<tr><th>URL</th><th>Last modified</th><th>Change frequency</th><th>Priority</th></tr>
</thead>
<tbody>
{{- range .}}
<tr><td><a href="{{.Loc}}">{{.Loc}}</a></td><td>{{.Preferences.LastModString}}</td><td>{{.Preferences.ChangeFreq}}</td><td>{{.Preferences.PriorityString}}</td></tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

// WriteHTML renders set as a human-readable HTML table.
func WriteHTML(w io.Writer, set *URLSet) error {
	return htmlTemplate.Execute(w, set.Entries())
}
