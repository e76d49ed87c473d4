package docs_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"

	_ "github.com/cristiano-superacao/prescrimed-sub000/docs"
)

func TestSpecRegistrada(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var spec struct {
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &spec))
	assert.Contains(t, spec.Paths, "/api/inventory/movements")
	assert.Contains(t, spec.Paths, "/api/admin/tenants/backfill-codes")
}
