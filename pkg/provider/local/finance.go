package local

import (
	gocontext "context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// invoiceMatch pairs invoice INV-1043 with the bank row that mentions it.
func invoiceMatch(_ gocontext.Context, p *Pack) (any, error) {
	var inv struct {
		InvoiceID string `json:"invoice_id"`
	}
	if err := p.ReadJSON("finance/invoices/invoice_INV-1043.json", &inv); err != nil {
		return nil, err
	}
	bank, err := p.ReadCSV("finance/bank_2025-06.csv")
	if err != nil {
		return nil, err
	}
	for _, row := range bank {
		if inv.InvoiceID == "" || !strings.Contains(row["description"], inv.InvoiceID) {
			continue
		}
		amount := math.Abs(parseAmount(row["amount"]))
		return map[string]any{
			"invoice_id": inv.InvoiceID,
			"bank_date":  row["date"],
			"amount":     round(amount, 2),
		}, nil
	}
	return nil, fmt.Errorf("bank row for %s not found", inv.InvoiceID)
}

var (
	fxRateRe = regexp.MustCompile(`(\d+\.\d+)\s*USD/EUR`)
	fxFeeRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)%\s*fee`)
)

const (
	fxWireRef    = "EU-818"
	fxWireEUR    = 4300.0
	fxDefaultFX  = 1.082
	fxDefaultFee = 0.005
)

// fxEffective converts the EU-818 wire at the rate and fee from
// fx_notes.md and compares it with the ledger amount.
func fxEffective(_ gocontext.Context, p *Pack) (any, error) {
	ledger, err := p.ReadCSV("finance_advanced/ledger_2025-06.csv")
	if err != nil {
		return nil, err
	}
	var ledgerUSD float64
	for _, row := range ledger {
		if strings.Contains(row["description"], fxWireRef) {
			ledgerUSD = parseAmount(row["amount"])
			break
		}
	}

	notes, err := p.ReadText("finance_advanced/fx_notes.md")
	if err != nil {
		return nil, err
	}
	rate, fee := fxDefaultFX, fxDefaultFee
	if m := fxRateRe.FindStringSubmatch(notes); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			rate = f
		}
	}
	if m := fxFeeRe.FindStringSubmatch(notes); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			fee = f / 100
		}
	}

	usd := round(fxWireEUR*rate*(1-fee), 2)
	return map[string]any{
		"fx_effective_usd":    usd,
		"delta_vs_ledger_usd": round(usd-ledgerUSD, 2),
	}, nil
}
