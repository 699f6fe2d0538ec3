package csvio_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/internal/infrastructure/csvio"
)

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "email", csvio.NormalizeHeader(" E-mail "))
	assert.Equal(t, "first_name", csvio.NormalizeHeader("First Name"))
	assert.Equal(t, "first_name", csvio.NormalizeHeader("\ufeffName"))
	assert.Equal(t, "company", csvio.NormalizeHeader("Company name"))
	assert.Equal(t, "estimated_value", csvio.NormalizeHeader("Estimated Value"))
}

func TestDecode_FilasYCabeceras(t *testing.T) {
	in := "First Name,E-mail,Company\nJan,jan@acme.pl,Acme\n,,\nAnna,anna@beta.pl,\n"
	headers, rows, err := csvio.NewCodec().Decode(strings.NewReader(in), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"first_name", "email", "company"}, headers)
	require.Len(t, rows, 2, "la fila vacía se ignora")
	assert.Equal(t, "jan@acme.pl", rows[0]["email"])
	assert.Equal(t, "", rows[1]["company"])
}

func TestDecode_PuntoYComa(t *testing.T) {
	in := "imie;nazwisko;email\nJan;Kowalski;jan@acme.pl\n"
	headers, rows, err := csvio.NewCodec().Decode(strings.NewReader(in), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"first_name", "last_name", "email"}, headers)
	assert.Equal(t, "Kowalski", rows[0]["last_name"])
}

func TestDecode_Limites(t *testing.T) {
	_, _, err := csvio.NewCodec().Decode(strings.NewReader("email\na@a.pl\nb@b.pl\nc@c.pl\n"), 2)
	assert.ErrorIs(t, err, ports.ErrTooManyRows)

	_, _, err = csvio.NewCodec().Decode(strings.NewReader("   "), 2)
	assert.Error(t, err)
}

func TestEncodeLeads_CompatibleConImportacion(t *testing.T) {
	v := decimal.RequireFromString("1500.5")
	leads := []*entity.Lead{{
		ID: "l1", FirstName: "Jan", Email: "jan@acme.pl", Company: "Acme, S.A.",
		Status: entity.LeadStatusProposal, Priority: entity.PriorityHigh, Source: entity.SourceWebsite,
		EstimatedValue: &v, CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}}
	var buf bytes.Buffer
	require.NoError(t, csvio.NewCodec().EncodeLeads(&buf, leads))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "first_name", recs[0][1])
	assert.Equal(t, "Acme, S.A.", recs[1][3])
	assert.Equal(t, "1500.50", recs[1][10])
	assert.Equal(t, "60", recs[1][11])
	assert.Equal(t, "2026-03-01T12:00:00Z", recs[1][14])
}
