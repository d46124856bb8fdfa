package operation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sophialabs/testlabadvisor/internal/domain/operation"
)

func TestBuiltin(t *testing.T) {
	c := operation.Builtin()

	all := c.All()
	require.Len(t, all, 13)
	assert.Equal(t, "1000", all[0].Code)
	assert.Equal(t, "1500", all[len(all)-1].Code)

	op, err := c.Lookup("0476")
	require.NoError(t, err)
	assert.Equal(t, operation.TempCold, op.Temperature)
	assert.Equal(t, []string{"thermal_prep.sh", "cold_boot_test.py"}, op.Scripts)
	assert.Equal(t, "0476 – IO diagnostics @ Cold", op.Label())

	op, err = c.Lookup(" 1000 ")
	require.NoError(t, err)
	assert.Equal(t, operation.TempAmbient, op.Temperature)
}

func TestLookup_NotFound(t *testing.T) {
	_, err := operation.Builtin().Lookup("9999")
	assert.ErrorIs(t, err, operation.ErrNotFound)
}

func TestNewCatalog_Rejects(t *testing.T) {
	_, err := operation.NewCatalog([]operation.Operation{{Code: ""}})
	assert.Error(t, err)

	_, err = operation.NewCatalog([]operation.Operation{{Code: "1"}, {Code: " 1"}})
	assert.ErrorContains(t, err, "duplicate")
}

func TestAll_ReturnsCopy(t *testing.T) {
	c := operation.Builtin()
	all := c.All()
	all[0].Code = "mutated"

	_, err := c.Lookup("1000")
	assert.NoError(t, err)
	assert.Equal(t, "1000", c.All()[0].Code)
}
