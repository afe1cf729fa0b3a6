package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_HeaderAndRows(t *testing.T) {
	in := "Name, City ,State\nJane Doe,Denver,CO\n\"Smith, John\",Boulder,CO\n"
	tbl, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "City", "State"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"Smith, John", "Boulder", "CO"}, tbl.Rows[1])
}

func TestReadCSV_VariableFieldCounts(t *testing.T) {
	in := "a,b,c\n1,2\n1,2,3,4\n"
	tbl, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 2)
	assert.Len(t, tbl.Rows[0], 2)
	assert.Len(t, tbl.Rows[1], 4)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestReadFile_MissingPath(t *testing.T) {
	_, err := ReadFile("/nonexistent/roster.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/roster.csv")
}
