package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableData(t *testing.T) {
	table := NewTableData("Holder", "Type", "Range")

	assert.Equal(t, []string{"Holder", "Type", "Range"}, table.Headers())
	assert.Empty(t, table.Rows())

	table.AddRow("P1", "exclusive", "[0,99]")
	table.AddRow("P2", "shared", "[100,199]")

	rows := table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"P1", "exclusive", "[0,99]"}, rows[0])
	assert.Equal(t, []string{"P2", "shared", "[100,199]"}, rows[1])
}

func TestPrintTable(t *testing.T) {
	table := NewTableData("Holder", "Type")
	table.AddRow("P1", "exclusive")
	table.AddRow("P2", "shared")

	var buf bytes.Buffer
	err := PrintTable(&buf, table)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "HOLDER")
	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, "P1")
	assert.Contains(t, out, "exclusive")
	assert.Contains(t, out, "P2")
	assert.Contains(t, out, "shared")
}

func TestSimpleTable(t *testing.T) {
	pairs := [][2]string{
		{"Handle", "node-42"},
		{"Holders", "3"},
	}

	var buf bytes.Buffer
	err := SimpleTable(&buf, pairs)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Handle")
	assert.Contains(t, out, "node-42")
	assert.Contains(t, out, "Holders")
	assert.Contains(t, out, "3")
}
