package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/agencia-leads-api/internal/domain/repository"
)

func TestLeadWhere(t *testing.T) {
	tenant := "a0000000-0000-4000-8000-000000000001"
	where, args := leadWhere(repository.LeadFilter{ClientID: &tenant, Status: "new", Search: "50%_off"})

	assert.Equal(t,
		" WHERE client_id = $1 AND status = $2 AND (first_name ILIKE $3 OR last_name ILIKE $3 OR company ILIKE $3 OR email ILIKE $3)",
		where)
	assert.Equal(t, []any{tenant, "new", `%50\%\_off%`}, args)
}

func TestLeadWhere_SinFiltros(t *testing.T) {
	where, args := leadWhere(repository.LeadFilter{Search: "   "})
	assert.Empty(t, where)
	assert.Empty(t, args)
}
