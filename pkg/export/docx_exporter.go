package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"text/template"
)

// DOCXExporter renders reports as WordprocessingML (.docx) documents.
type DOCXExporter struct {
	document *template.Template
}

// NewDOCXExporter parses the document template once.
func NewDOCXExporter() *DOCXExporter {
	tmpl := template.Must(template.New("document.xml").Funcs(template.FuncMap{
		"text":  docxText,
		"twips": func(total int, weight float64) int { return int(float64(total) * weight) },
	}).Parse(documentTemplate))
	return &DOCXExporter{document: tmpl}
}

type docxTable struct {
	Dataset
	Weights []float64
}

type docxSection struct {
	Heading    string
	Table      *docxTable
	Paragraphs []string
	Bullets    []string
}

type docxView struct {
	Title      string
	Subtitle   string
	Landscape  bool
	PageWidth  int
	PageHeight int
	TextWidth  int
	Sections   []docxSection
}

// Render builds the .docx archive for the report.
func (e *DOCXExporter) Render(report Report) ([]byte, error) {
	if len(report.Sections) == 0 {
		return nil, fmt.Errorf("docx requires at least one section")
	}

	view := docxView{Title: report.Title, Subtitle: report.Subtitle, Landscape: report.Landscape, PageWidth: 11906, PageHeight: 16838}
	if report.Landscape {
		view.PageWidth, view.PageHeight = view.PageHeight, view.PageWidth
	}
	view.TextWidth = view.PageWidth - 2*720
	for _, s := range report.Sections {
		section := docxSection{Heading: s.Heading, Paragraphs: s.Paragraphs, Bullets: s.Bullets}
		if s.Table != nil && len(s.Table.Headers) > 0 {
			section.Table = &docxTable{Dataset: *s.Table, Weights: s.Table.weights()}
		}
		view.Sections = append(view.Sections, section)
	}

	var body bytes.Buffer
	if err := e.document.Execute(&body, view); err != nil {
		return nil, fmt.Errorf("render docx body: %w", err)
	}

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	parts := []struct {
		name    string
		content []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(rootRelsXML)},
		{"word/document.xml", body.Bytes()},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("create docx part %s: %w", part.name, err)
		}
		if _, err := w.Write(part.content); err != nil {
			return nil, fmt.Errorf("write docx part %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close docx archive: %w", err)
	}
	return buf.Bytes(), nil
}

// docxText escapes s for a w:t element, turning newlines into line breaks.
func docxText(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString(`</w:t><w:br/><w:t xml:space="preserve">`)
		}
		_ = xml.EscapeText(&b, []byte(line))
	}
	return b.String()
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
{{- if .Title}}
<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="32"/></w:rPr><w:t xml:space="preserve">{{text .Title}}</w:t></w:r></w:p>
{{- end}}
{{- if .Subtitle}}
<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:sz w:val="22"/></w:rPr><w:t xml:space="preserve">{{text .Subtitle}}</w:t></w:r></w:p>
{{- end}}
{{- $width := .TextWidth}}
{{- range .Sections}}
{{- if .Heading}}
<w:p><w:pPr><w:spacing w:before="240" w:after="120"/></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="26"/></w:rPr><w:t xml:space="preserve">{{text .Heading}}</w:t></w:r></w:p>
{{- end}}
{{- with .Table}}{{$t := .}}
<w:tbl>
<w:tblPr><w:tblW w:w="{{$width}}" w:type="dxa"/><w:tblBorders><w:top w:val="single" w:sz="4" w:space="0" w:color="999999"/><w:left w:val="single" w:sz="4" w:space="0" w:color="999999"/><w:bottom w:val="single" w:sz="4" w:space="0" w:color="999999"/><w:right w:val="single" w:sz="4" w:space="0" w:color="999999"/><w:insideH w:val="single" w:sz="4" w:space="0" w:color="999999"/><w:insideV w:val="single" w:sz="4" w:space="0" w:color="999999"/></w:tblBorders></w:tblPr>
<w:tblGrid>{{range .Weights}}<w:gridCol w:w="{{twips $width .}}"/>{{end}}</w:tblGrid>
<w:tr><w:trPr><w:tblHeader/></w:trPr>{{range $i, $h := .Headers}}<w:tc><w:tcPr><w:tcW w:w="{{twips $width (index $t.Weights $i)}}" w:type="dxa"/><w:shd w:val="clear" w:color="auto" w:fill="DDEBF7"/></w:tcPr><w:p><w:r><w:rPr><w:b/><w:sz w:val="18"/></w:rPr><w:t xml:space="preserve">{{text $h}}</w:t></w:r></w:p></w:tc>{{end}}</w:tr>
{{- range $row := .Rows}}
<w:tr>{{range $i, $h := $t.Headers}}<w:tc><w:tcPr><w:tcW w:w="{{twips $width (index $t.Weights $i)}}" w:type="dxa"/></w:tcPr><w:p><w:r><w:rPr><w:sz w:val="18"/></w:rPr><w:t xml:space="preserve">{{text (index $row $h)}}</w:t></w:r></w:p></w:tc>{{end}}</w:tr>
{{- end}}
</w:tbl>
{{- end}}
{{- range .Paragraphs}}
<w:p><w:r><w:t xml:space="preserve">{{text .}}</w:t></w:r></w:p>
{{- end}}
{{- range .Bullets}}
<w:p><w:pPr><w:ind w:left="360" w:hanging="240"/></w:pPr><w:r><w:t xml:space="preserve">• {{text .}}</w:t></w:r></w:p>
{{- end}}
{{- end}}
<w:sectPr><w:pgSz w:w="{{.PageWidth}}" w:h="{{.PageHeight}}"{{if .Landscape}} w:orient="landscape"{{end}}/><w:pgMar w:top="720" w:right="720" w:bottom="720" w:left="720" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>
</w:body>
</w:document>`
