package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Enseignant", "Jour", "Leçon"},
		Rows: []map[string]string{
			{"Enseignant": "Abas", "Jour": "Dimanche", "Leçon": "Fractions & décimaux"},
			{"Enseignant": "Jaber", "Jour": "Lundi", "Leçon": "Line one\nline two"},
		},
		Widths: []float64{1, 1, 3},
	}
}

func sampleReport() Report {
	table := sampleDataset()
	return Report{
		Title:     "Plan hebdomadaire",
		Subtitle:  "Semaine 5",
		Landscape: true,
		Sections: []Section{
			{Heading: "PEI1", Table: &table, Paragraphs: []string{"Notes: <bring> calculators"}},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, utf8BOM))

	body := string(out[len(utf8BOM):])
	assert.True(t, strings.HasPrefix(body, "Enseignant,Jour,Leçon\n"))
	assert.Contains(t, body, "Abas,Dimanche,Fractions & décimaux")
	assert.Contains(t, body, "\"Line one\nline two\"")

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleReport())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = NewPDFExporter().Render(Report{})
	assert.Error(t, err)
}

func TestXLSXExporterOneSheetPerTable(t *testing.T) {
	first := sampleDataset()
	second := sampleDataset()
	report := Report{Sections: []Section{
		{Heading: "PEI1", Table: &first},
		{Heading: "DP1/2", Table: &second},
		{Heading: "pei1", Table: &second},
		{Heading: "text only", Paragraphs: []string{"ignored"}},
	}}

	out, err := NewXLSXExporter().Render(report)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"PEI1", "DP1-2", "pei1 (2)"}, f.GetSheetList())
	rows, err := f.GetRows("PEI1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Enseignant", "Jour", "Leçon"}, rows[0])
	assert.Equal(t, "Abas", rows[1][0])
}

func TestXLSXExporterRequiresTable(t *testing.T) {
	_, err := NewXLSXExporter().Render(Report{Sections: []Section{{Heading: "x"}}})
	assert.Error(t, err)
}

func TestSheetName(t *testing.T) {
	used := map[string]struct{}{}
	assert.Equal(t, "Sheet", sheetName("  ", used))
	assert.Equal(t, "Sheet (2)", sheetName("", used))
	long := sheetName(strings.Repeat("x", 40), used)
	assert.Len(t, long, maxSheetName)
}

func TestDOCXExporterRender(t *testing.T) {
	out, err := NewDOCXExporter().Render(sampleReport())
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)

	parts := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		parts[f.Name] = string(content)
	}
	require.Contains(t, parts, "[Content_Types].xml")
	require.Contains(t, parts, "_rels/.rels")
	require.Contains(t, parts, "word/document.xml")

	doc := parts["word/document.xml"]
	assert.Contains(t, doc, "Fractions &amp; décimaux")
	assert.Contains(t, doc, "&lt;bring&gt;")
	assert.Contains(t, doc, `Line one</w:t><w:br/><w:t xml:space="preserve">line two`)
	assert.Contains(t, doc, `w:orient="landscape"`)

	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
}
