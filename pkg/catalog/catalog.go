// Package catalog defines the evaluation tasks run by the harness.
package catalog

// Tasks returns the built-in catalog in run order. Each call returns a
// fresh slice so callers may filter it freely.
func Tasks() []Task {
	return []Task{
		// Pack 1
		{
			Name:          "p1_finance_invoice_match",
			PackGlob:      "pack1",
			AnswerPath:    "answers.json",
			AnswerKeyPath: []string{"finance", "invoice_to_bank_match"},
			Prompt:        "Return JSON with invoice_id, bank_date (YYYY-MM-DD), and amount for Vendor X INV-1043 by reading local files.",
		},
		{
			Name:          "p1_hr_post_termination",
			PackGlob:      "pack1",
			AnswerPath:    "answers.json",
			AnswerKeyPath: []string{"hr_security", "post_termination_access"},
			Prompt:        "Return JSON with employee_id, name, and a list of 'timestamp door result' strings for any badge events after termination.",
		},
		{
			Name:          "p1_ops_spike",
			PackGlob:      "pack1",
			AnswerPath:    "answers.json",
			AnswerKeyPath: []string{"ops"},
			Prompt:        "Return JSON with keys: 500_spike_window (human-readable), top_endpoint, root_cause_hint by correlating nginx.log and system.log.",
		},

		// Pack 2
		{
			Name:          "p2_emails_discount_thread",
			PackGlob:      "pack2",
			AnswerPath:    "answers_pack2.json",
			AnswerKeyPath: []string{"emails", "discount_thread"},
			Prompt:        "Parse emails to return JSON with po, issue_invoice, corrected_invoice, discount, start, skus.",
		},
		{
			Name:          "p2_audio_merge",
			PackGlob:      "pack2",
			AnswerPath:    "answers_pack2.json",
			AnswerKeyPath: []string{"audio", "merged_transcript"},
			Prompt:        "Merge transcript segments across silence. Return a list of {start, end, text} segments preserving cluster start times.",
		},
		{
			Name:          "p2_finance_fx",
			PackGlob:      "pack2",
			AnswerPath:    "answers_pack2.json",
			AnswerKeyPath: []string{"finance_advanced"},
			Prompt:        "Compute effective USD for EUR 4300 on 2025-06-20 per fx_notes.md and compare vs ledger USD; return JSON with fx_effective_usd and delta_vs_ledger_usd.",
			Extractor:     RoundFields(2, "fx_effective_usd", "delta_vs_ledger_usd"),
		},

		// Pack 3
		{
			Name:          "p3_ocr_invoice",
			PackGlob:      "pack3",
			AnswerPath:    "answers_pack3.json",
			AnswerKeyPath: []string{"ocr_scans"},
			Prompt:        "OCR PBM scans to extract inv_id, discount, po, bank_wire_ref, delivery_order and delivery_sku_qty (with date). Return JSON.",
		},
		{
			Name:          "p3_sql_recon",
			PackGlob:      "pack3",
			AnswerPath:    "answers_pack3.json",
			AnswerKeyPath: []string{"sql_recon"},
			Prompt:        "From sql/sales.db and archives/audit_bundle.tar (zip inside), compute o2007_unit_price_db, agreed_unit_price_zip, qty, total_difference_usd, refund_recorded_usd, refund_needed_additional_usd. Return JSON.",
		},

		// Pack 4
		{
			Name:          "p4_eml_attachments",
			PackGlob:      "pack4",
			AnswerPath:    "answers_pack4.json",
			AnswerKeyPath: []string{"eml_attachments"},
			Prompt:        "Parse inv3001_with_attachments.eml. Return JSON with csv_rows (as list of dicts) and attached_pdf filename.",
		},
		{
			Name:          "p4_xlsx_summary",
			PackGlob:      "pack4",
			AnswerPath:    "answers_pack4.json",
			AnswerKeyPath: []string{"xlsx_formulas"},
			Prompt:        "Evaluate ops_finance.xlsx formulas and return JSON with expected_values for Inputs!D2, Inputs!D3, Summary!B1, Summary!B2.",
			Extractor:     Field("expected_values"),
		},

		// Pack 5: 3GPP specification analysis
		{
			Name:          "p5_3gpp_rf_requirements",
			PackGlob:      "pack5_3gpp",
			AnswerPath:    "answers_3gpp.json",
			AnswerKeyPath: []string{"rf_requirements"},
			Prompt:        "Analyze the 3GPP specification PDF and return JSON with key RF requirements, test cases, and UE categories mentioned in the document.",
		},
		{
			Name:          "p5_3gpp_conformance_tests",
			PackGlob:      "pack5_3gpp",
			AnswerPath:    "answers_3gpp.json",
			AnswerKeyPath: []string{"conformance_tests"},
			Prompt:        "Extract conformance test information from the 3GPP spec and return JSON with test case IDs, descriptions, and requirements.",
		},

		// Pack 6: children's book
		{
			Name:          "p6_childbook_story_elements",
			PackGlob:      "pack6_childbook",
			AnswerPath:    "answers_childbook.json",
			AnswerKeyPath: []string{"story_elements"},
			Prompt:        "Read the childbook PDF and return JSON with main characters, plot summary, and key themes of 'Ouma's Amazing Flowers'.",
		},

		// Pack 7: datasheets
		{
			Name:          "p7_esp32_specifications",
			PackGlob:      "pack7_datasheets",
			AnswerPath:    "answers_datasheets.json",
			AnswerKeyPath: []string{"esp32_specs"},
			Prompt:        "Analyze the ESP32-S3 datasheet and technical reference manual to return JSON with key specifications, pin configurations, and capabilities.",
		},

		// Pack 8: financial reports
		{
			Name:          "p8_tesla_financial_analysis",
			PackGlob:      "pack8_finance",
			AnswerPath:    "answers_finance.json",
			AnswerKeyPath: []string{"tesla_analysis"},
			Prompt:        "Compare Tesla's 2023 and 2024 financial reports and return JSON with key metrics, revenue changes, and financial trends.",
		},

		// Pack 9: medical notes
		{
			Name:          "p9_medical_notes_summary",
			PackGlob:      "pack9_notes",
			AnswerPath:    "answers_notes.json",
			AnswerKeyPath: []string{"medical_summary"},
			Prompt:        "Analyze the three doctor notes and return JSON with patient conditions, treatments, and key medical information.",
		},

		// Pack 10: sensor logs
		{
			Name:          "p10_sensor_data_analysis",
			PackGlob:      "pack10_sensor",
			AnswerPath:    "answers_sensor.json",
			AnswerKeyPath: []string{"sensor_analysis"},
			Prompt:        "Process the sensor log data and return JSON with data patterns, anomalies, and key metrics from the sensor readings.",
		},

		// Pack 11: receipts database
		{
			Name:          "p11_receipt_database_analysis",
			PackGlob:      "pack11_sql",
			AnswerPath:    "answers_sql.json",
			AnswerKeyPath: []string{"receipt_analysis"},
			Prompt:        "Query the receipts database and return JSON with transaction summaries, spending patterns, and key financial insights.",
		},
	}
}

// Filter returns the tasks whose names appear in names, preserving catalog
// order. An empty names list returns tasks unchanged.
func Filter(tasks []Task, names []string) []Task {
	if len(names) == 0 {
		return tasks
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Task
	for _, t := range tasks {
		if want[t.Name] {
			out = append(out, t)
		}
	}
	return out
}
