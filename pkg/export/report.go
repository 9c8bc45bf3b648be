package export

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	// Widths are relative column weights; equal widths when empty.
	Widths []float64
}

// Section is a headed block of a report: an optional table followed by text.
type Section struct {
	Heading    string
	Table      *Dataset
	Paragraphs []string
	Bullets    []string
}

// Report is a titled document rendered by the PDF, DOCX and XLSX exporters.
type Report struct {
	Title     string
	Subtitle  string
	Landscape bool
	Sections  []Section
}

func (d Dataset) weights() []float64 {
	weights := make([]float64, len(d.Headers))
	var total float64
	for i := range d.Headers {
		w := 1.0
		if i < len(d.Widths) && d.Widths[i] > 0 {
			w = d.Widths[i]
		}
		weights[i] = w
		total += w
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}
