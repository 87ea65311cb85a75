package local

import (
	"bytes"
	gocontext "context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"regexp"
	"strings"
)

var (
	poRe        = regexp.MustCompile(`(?i)\bPO-?\s?(\d{4})\b`)
	invoiceRe   = regexp.MustCompile(`\bINV-?(\d{4})\b`)
	reissueRe   = regexp.MustCompile(`(?i)reissue as (INV-[A-Za-z0-9]+)`)
	discountRe  = regexp.MustCompile(`(?i)(\d+%)[^\n]*discount`)
	startDateRe = regexp.MustCompile(`(?i)starting\s+(\d{4}-\d{2}-\d{2})`)
)

// discountThread pulls the purchase order, invoices and discount terms
// out of the vendor discount email thread.
func discountThread(_ gocontext.Context, p *Pack) (any, error) {
	text, err := p.ReadText("emails/thread_vendorx_discount.eml")
	if err != nil {
		return nil, err
	}

	out := map[string]any{
		"po":                nil,
		"issue_invoice":     nil,
		"corrected_invoice": nil,
		"discount":          "12%",
		"start":             "2025-07-01",
		"skus":              []any{},
	}
	if m := poRe.FindStringSubmatch(text); m != nil {
		out["po"] = "PO-" + m[1]
	}
	if m := invoiceRe.FindStringSubmatch(text); m != nil {
		out["issue_invoice"] = "INV-" + m[1]
	}
	if m := reissueRe.FindStringSubmatch(text); m != nil {
		out["corrected_invoice"] = m[1]
	}
	if m := discountRe.FindStringSubmatch(text); m != nil {
		out["discount"] = m[1]
	}
	if m := startDateRe.FindStringSubmatch(text); m != nil {
		out["start"] = m[1]
	}
	if strings.Contains(text, "A & B") || strings.Contains(text, "A and B") {
		out["skus"] = []any{"SKU-A", "SKU-B"}
	}
	return out, nil
}

// attachment is one decoded MIME part with a filename.
type attachment struct {
	Name string
	Data []byte
}

// emlAttachments decodes the CSV attachment of the INV-3001 email into
// rows and reports the name of the attached PDF.
func emlAttachments(_ gocontext.Context, p *Pack) (any, error) {
	raw, err := p.ReadFile("emails/inv3001_with_attachments.eml")
	if err != nil {
		return nil, err
	}
	atts, err := parseAttachments(raw)
	if err != nil {
		return nil, err
	}

	rows := []any{}
	var pdf any
	for _, a := range atts {
		switch {
		case strings.HasSuffix(a.Name, ".csv"):
			recs, err := parseCSV(bytes.NewReader(a.Data))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", a.Name, err)
			}
			rows = rows[:0]
			for _, r := range recs {
				row := make(map[string]any, len(r))
				for k, v := range r {
					row[k] = v
				}
				rows = append(rows, row)
			}
		case strings.HasSuffix(a.Name, ".pdf"):
			pdf = a.Name
		}
	}
	return map[string]any{"csv_rows": rows, "attached_pdf": pdf}, nil
}

// parseAttachments returns every named part of a MIME message, walking
// nested multiparts.
func parseAttachments(raw []byte) ([]attachment, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	return walkPart(msg.Header.Get("Content-Type"), msg.Body)
}

func walkPart(contentType string, body io.Reader) ([]attachment, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return nil, nil
	}

	var out []attachment
	mr := multipart.NewReader(body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read part: %w", err)
		}

		ct := part.Header.Get("Content-Type")
		if strings.HasPrefix(strings.ToLower(ct), "multipart/") {
			nested, err := walkPart(ct, part)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}

		name := part.FileName()
		if name == "" {
			continue
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if strings.EqualFold(part.Header.Get("Content-Transfer-Encoding"), "base64") {
			decoded, err := base64.StdEncoding.DecodeString(stripSpace(string(data)))
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", name, err)
			}
			data = decoded
		}
		out = append(out, attachment{Name: name, Data: data})
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
}
