package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinner(t *testing.T) {
	cases := []struct {
		general, local float64
		want           string
	}{
		{1, 0.5, LabelGeneral},
		{0, 0.25, LabelLocal},
		{0.75, 0.75, LabelTie},
		{0, 0, LabelBothFailed},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Winner(c.general, c.local), "%v vs %v", c.general, c.local)
	}
}

func TestRenderTable(t *testing.T) {
	r := &Report{
		Results: []TaskReport{
			{Task: "invoice_match", GeneralProvider: ProviderResult{Score: 0.5}, LocalAgent: ProviderResult{Score: 1}},
			{Task: "ops_spike", GeneralProvider: ProviderResult{Score: 0}, LocalAgent: ProviderResult{Score: 0}},
		},
	}
	r.Summary = summarize(r.Results)

	out := RenderTable(r)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 6)

	assert.Contains(t, lines[0], "Task")
	assert.Contains(t, lines[0], "Status")
	assert.Contains(t, lines[2], "invoice_match")
	assert.Contains(t, lines[2], " 0.50")
	assert.Contains(t, lines[2], LabelLocal)
	assert.Contains(t, lines[3], LabelBothFailed)
	assert.Contains(t, lines[5], "AVERAGE")
	assert.Contains(t, lines[5], " 0.25")
	assert.Contains(t, lines[5], LabelLocal)
}

func TestRenderTableEmpty(t *testing.T) {
	out := RenderTable(&Report{})
	assert.Contains(t, out, "AVERAGE")
	assert.Contains(t, out, LabelBothFailed)
}
