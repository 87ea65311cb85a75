package local

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	gocontext "context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cgast/edgebench/pkg/tools/sqlite"
)

const (
	reconOrder = "O-2007"
	reconSKU   = "SKU-B"
	auditCSV   = "audit/audit.csv"
)

// sqlRecon compares the unit price in sales.db with the agreed price in
// the audit CSV nested in archives/audit_bundle.tar (tar, then zip) and
// works out how much refund is still owed.
func sqlRecon(ctx gocontext.Context, p *Pack) (any, error) {
	dbPath := p.Path("sql/sales.db")
	if err := p.sandbox.CheckPath(dbPath); err != nil {
		return nil, err
	}

	lines, err := sqlite.Query(ctx, dbPath, fmt.Sprintf(
		"SELECT qty, unit_price FROM order_lines WHERE order_id = '%s' AND sku = '%s'", reconOrder, reconSKU))
	if err != nil {
		return nil, err
	}
	if len(lines.Rows) == 0 {
		return map[string]any{}, nil
	}
	qtyF, ok1 := number(lines.Rows[0][0])
	unitDB, ok2 := number(lines.Rows[0][1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("order_lines: unexpected values %v", lines.Rows[0])
	}
	qty := int(qtyF)

	archive, err := p.ReadFile("archives/audit_bundle.tar")
	if err != nil {
		return nil, err
	}
	agreed, found, err := agreedPrice(archive)
	if err != nil {
		return nil, err
	}
	if !found {
		return map[string]any{}, nil
	}

	refunds, err := sqlite.Query(ctx, dbPath, fmt.Sprintf(
		"SELECT amount_usd FROM refunds WHERE order_id = '%s'", reconOrder))
	if err != nil {
		return nil, err
	}
	var refund float64
	if len(refunds.Rows) > 0 {
		refund, _ = number(refunds.Rows[0][0])
	}

	diff := (unitDB - agreed) * float64(qty)
	return map[string]any{
		"o2007_unit_price_db":          unitDB,
		"agreed_unit_price_zip":        agreed,
		"qty":                          qty,
		"total_difference_usd":         round(diff, 2),
		"refund_recorded_usd":          round(refund, 2),
		"refund_needed_additional_usd": round(diff-refund, 2),
	}, nil
}

// agreedPrice finds the audit row for the reconciled order inside any zip
// member of the tar archive.
func agreedPrice(tarData []byte) (float64, bool, error) {
	tr := tar.NewReader(bytes.NewReader(tarData))
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return 0, false, nil
		}
		if err != nil {
			return 0, false, fmt.Errorf("read tar: %w", err)
		}
		if !strings.HasSuffix(hdr.Name, ".zip") {
			continue
		}
		zipData, err := io.ReadAll(tr)
		if err != nil {
			return 0, false, fmt.Errorf("read %s: %w", hdr.Name, err)
		}
		price, found, err := agreedPriceInZip(zipData)
		if err != nil {
			return 0, false, fmt.Errorf("%s: %w", hdr.Name, err)
		}
		if found {
			return price, true, nil
		}
	}
}

func agreedPriceInZip(data []byte) (float64, bool, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, false, err
	}
	f, err := zr.Open(auditCSV)
	if err != nil {
		return 0, false, err
	}
	defer f.Close()

	rows, err := parseCSV(f)
	if err != nil {
		return 0, false, err
	}
	for _, r := range rows {
		if r["order_id"] == reconOrder && r["sku"] == reconSKU {
			price, err := strconv.ParseFloat(strings.TrimSpace(r["agreed_unit_price_usd"]), 64)
			if err != nil {
				return 0, false, fmt.Errorf("agreed_unit_price_usd: %w", err)
			}
			return price, true, nil
		}
	}
	return 0, false, nil
}
