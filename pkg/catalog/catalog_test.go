package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTasksValid(t *testing.T) {
	tasks := Tasks()
	require.Len(t, tasks, 17)

	result := Validate(tasks)
	if !result.Valid() {
		t.Fatalf("built-in catalog invalid: %s", result.Error())
	}

	assert.Equal(t, "p1_finance_invoice_match", tasks[0].Name)
	assert.Equal(t, "p11_receipt_database_analysis", tasks[len(tasks)-1].Name)
}

func TestTasksReturnsFreshSlice(t *testing.T) {
	a := Tasks()
	a[0].Name = "mutated"
	assert.Equal(t, "p1_finance_invoice_match", Tasks()[0].Name)
}

func TestFilter(t *testing.T) {
	got := Filter(Tasks(), []string{"p2_audio_merge", "p1_ops_spike", "unknown"})
	require.Len(t, got, 2)
	assert.Equal(t, "p1_ops_spike", got[0].Name)
	assert.Equal(t, "p2_audio_merge", got[1].Name)

	assert.Len(t, Filter(Tasks(), nil), 17)
}

func TestExtractorApply(t *testing.T) {
	tests := []struct {
		name    string
		ex      Extractor
		in      any
		want    any
		wantErr bool
	}{
		{"zero value is identity", Extractor{}, "x", "x", false},
		{"identity", Identity(), map[string]any{"a": 1.0}, map[string]any{"a": 1.0}, false},
		{
			"extract field present",
			Field("expected_values"),
			map[string]any{"expected_values": map[string]any{"B1": 10.0}, "other": 1.0},
			map[string]any{"B1": 10.0},
			false,
		},
		{
			"extract field absent returns input",
			Field("expected_values"),
			map[string]any{"B1": 10.0},
			map[string]any{"B1": 10.0},
			false,
		},
		{"extract field on list returns input", Field("x"), []any{1.0}, []any{1.0}, false},
		{
			"round fields",
			RoundFields(2, "fx_effective_usd", "delta_vs_ledger_usd"),
			map[string]any{"fx_effective_usd": 4651.456, "delta_vs_ledger_usd": -12.3449, "noise": "x"},
			map[string]any{"fx_effective_usd": 4651.46, "delta_vs_ledger_usd": -12.34},
			false,
		},
		{
			"round fields missing become zero",
			RoundFields(2, "fx_effective_usd", "delta_vs_ledger_usd"),
			map[string]any{"_raw": "no json here"},
			map[string]any{"fx_effective_usd": 0.0, "delta_vs_ledger_usd": 0.0},
			false,
		},
		{"round fields to zero places", RoundFields(0, "a"), map[string]any{"a": 12.5001}, map[string]any{"a": 13.0}, false},
		{
			"round fields unset places uses two",
			Extractor{Kind: ExtractRoundFields, Fields: []string{"a"}},
			map[string]any{"a": 1.23456},
			map[string]any{"a": 1.23},
			false,
		},
		{"round fields null fails", RoundFields(2, "a"), map[string]any{"a": nil}, nil, true},
		{"round fields on list fails", RoundFields(2, "a"), []any{1.0}, nil, true},
		{"round fields non-numeric fails", RoundFields(2, "a"), map[string]any{"a": "12"}, nil, true},
		{"unknown kind fails", Extractor{Kind: "sum"}, 1.0, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ex.Apply(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescend(t *testing.T) {
	doc := map[string]any{
		"finance": map[string]any{
			"invoice_to_bank_match": map[string]any{"invoice_id": "INV-1043"},
		},
		"list": []any{"a", map[string]any{"b": 2.0}},
	}

	got, err := Descend(doc, []string{"finance", "invoice_to_bank_match", "invoice_id"})
	require.NoError(t, err)
	assert.Equal(t, "INV-1043", got)

	got, err = Descend(doc, []string{"list", "1", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = Descend(doc, nil)
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	_, err = Descend(doc, []string{"finance", "missing"})
	assert.ErrorContains(t, err, `key "missing" not found at /finance`)

	_, err = Descend(doc, []string{"list", "7"})
	assert.ErrorContains(t, err, "out of range")

	_, err = Descend(doc, []string{"list", "x"})
	assert.ErrorContains(t, err, "not a number")

	_, err = Descend(doc, []string{"finance", "invoice_to_bank_match", "invoice_id", "deeper"})
	assert.ErrorContains(t, err, "cannot descend into string")
}

const validCatalog = `
tasks:
  - name: p12_custom
    pack_glob: pack12*
    answer_path: answers.json
    answer_key_path: [custom, total]
    prompt: Return JSON with total.
    extractor:
      kind: round_fields
      fields: [total]
      places: 1
  - name: p13_plain
    pack_glob: pack13
    answer_path: nested/answers.json
    answer_key_path: [plain]
    prompt: Return JSON.
`

func TestParse(t *testing.T) {
	tasks, err := Parse([]byte(validCatalog))
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, "p12_custom", tasks[0].Name)
	assert.Equal(t, []string{"custom", "total"}, tasks[0].AnswerKeyPath)
	assert.Equal(t, RoundFields(1, "total"), tasks[0].Extractor)
	assert.Equal(t, Extractor{}, tasks[1].Extractor)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validCatalog), 0644))

	tasks, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("tasks: [unclosed"))
	assert.ErrorContains(t, err, "parse catalog")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		tasks  []Task
		fields []string
	}{
		{"empty catalog", nil, []string{"tasks"}},
		{
			"missing fields",
			[]Task{{}},
			[]string{"tasks[0].name", "tasks[0].pack_glob", "tasks[0].answer_path", "tasks[0].prompt"},
		},
		{
			"duplicate names",
			[]Task{
				{Name: "a", PackGlob: "p", AnswerPath: "x.json", Prompt: "q"},
				{Name: "a", PackGlob: "p", AnswerPath: "x.json", Prompt: "q"},
			},
			[]string{"tasks[1].name"},
		},
		{
			"names that escape the runs directory",
			[]Task{
				{Name: "../x", PackGlob: "p", AnswerPath: "x.json", Prompt: "q"},
				{Name: "a/b", PackGlob: "p", AnswerPath: "x.json", Prompt: "q"},
				{Name: `a\b`, PackGlob: "p", AnswerPath: "x.json", Prompt: "q"},
			},
			[]string{"tasks[0].name", "tasks[1].name", "tasks[2].name"},
		},
		{
			"bad glob and absolute answer path",
			[]Task{{Name: "a", PackGlob: "pack[", AnswerPath: "/abs.json", Prompt: "q"}},
			[]string{"tasks[0].pack_glob", "tasks[0].answer_path"},
		},
		{
			"extractor problems",
			[]Task{
				{Name: "a", PackGlob: "p", AnswerPath: "x.json", Prompt: "q", Extractor: Extractor{Kind: ExtractField}},
				{Name: "b", PackGlob: "p", AnswerPath: "x.json", Prompt: "q", Extractor: RoundFields(-1)},
				{Name: "c", PackGlob: "p", AnswerPath: "x.json", Prompt: "q", Extractor: Extractor{Kind: "median"}},
			},
			[]string{"tasks[0].extractor.field", "tasks[1].extractor.fields", "tasks[1].extractor.places", "tasks[2].extractor.kind"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.tasks)
			require.False(t, result.Valid())
			var fields []string
			for _, e := range result.Errors {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.fields, fields)
			assert.Contains(t, result.Error(), "validation failed")
		})
	}
}
