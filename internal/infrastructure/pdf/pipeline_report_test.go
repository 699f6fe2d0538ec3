package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0,00", formatAmount(decimal.Zero))
	assert.Equal(t, "999,90", formatAmount(decimal.RequireFromString("999.9")))
	assert.Equal(t, "1 234 567,50", formatAmount(decimal.RequireFromString("1234567.5")))
	assert.Equal(t, "-12 000,00", formatAmount(decimal.NewFromInt(-12000)))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Acme", truncate("Acme", 10))
	assert.Equal(t, "Przedsię…", truncate("Przedsiębiorstwo", 9))
}

func TestRenderPipeline(t *testing.T) {
	doc, err := NewPipelineRenderer().RenderPipeline(ports.PipelineReport{
		TenantName:     "Agencia A",
		Currency:       "PLN",
		GeneratedAt:    time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Total:          1,
		ByStatus:       map[string]int{"new": 1},
		PipelineValue:  decimal.NewFromInt(1500),
		WonValue:       decimal.Zero,
		ConversionRate: decimal.Zero,
		Rows: []ports.PipelineReportRow{
			{Name: "Jan Kowalski", Company: "Acme", Status: "new", Priority: "medium", Source: "website", EstimatedValue: "1500.00"},
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}
