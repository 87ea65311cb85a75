package local

import (
	"archive/zip"
	"bytes"
	gocontext "context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

// sheetXML is the subset of a SpreadsheetML worksheet the agent reads.
type sheetXML struct {
	Rows []struct {
		Cells []struct {
			Ref   string `xml:"r,attr"`
			Value string `xml:"v"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

// cells maps references such as "B2" to numeric values. Non-numeric
// cells are left out.
func (s sheetXML) cells() map[string]float64 {
	out := make(map[string]float64)
	for _, row := range s.Rows {
		for _, c := range row.Cells {
			if f, err := strconv.ParseFloat(c.Value, 64); err == nil {
				out[c.Ref] = f
			}
		}
	}
	return out
}

// xlsxSummary evaluates the line total, discounted total and summary
// formulas of ops_finance.xlsx from the Inputs sheet's raw values.
func xlsxSummary(_ gocontext.Context, p *Pack) (any, error) {
	data, err := p.ReadFile("xlsx/ops_finance.xlsx")
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	inputs, err := readSheet(zr, "xl/worksheets/sheet1.xml")
	if err != nil {
		return nil, err
	}

	v := inputs.cells()
	d2 := v["B2"] * v["C2"]
	d3 := v["B3"] * v["C3"]
	f2 := d2 * (1 - v["E2"])
	f3 := d3 * (1 - v["E3"])

	return map[string]any{
		"expected_values": map[string]any{
			"Inputs!D2":  round(d2, 2),
			"Inputs!D3":  round(d3, 2),
			"Summary!B1": round(d2+d3, 2),
			"Summary!B2": round(f2+f3, 2),
		},
	}, nil
}

func readSheet(zr *zip.Reader, name string) (sheetXML, error) {
	f, err := zr.Open(name)
	if err != nil {
		return sheetXML{}, fmt.Errorf("xlsx: %w", err)
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return sheetXML{}, fmt.Errorf("xlsx: read %s: %w", name, err)
	}
	var s sheetXML
	if err := xml.Unmarshal(raw, &s); err != nil {
		return sheetXML{}, fmt.Errorf("xlsx: parse %s: %w", name, err)
	}
	return s, nil
}
