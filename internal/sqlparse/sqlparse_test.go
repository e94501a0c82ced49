package sqlparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseColumnPrimaryKey(t *testing.T) {
	s, err := Parse(`CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	require.Equal(t, "id", s.PrimaryKey)
	require.Len(t, s.Columns, 2)
	require.Equal(t, "id", s.Columns[0].Name)
	require.Equal(t, "name", s.Columns[1].Name)
}

func TestParseTableConstraintPrimaryKey(t *testing.T) {
	s, err := Parse(`CREATE TABLE t (a INTEGER, b TEXT, PRIMARY KEY (a))`)
	require.NoError(t, err)
	require.Equal(t, "a", s.PrimaryKey)
	require.Len(t, s.Columns, 2)
}

func TestParseDefaultLiteral(t *testing.T) {
	s, err := Parse(`CREATE TABLE t (a INTEGER DEFAULT 0, b TEXT DEFAULT 'hi', c TEXT DEFAULT NULL)`)
	require.NoError(t, err)
	require.Equal(t, int64(0), s.Columns[0].Default)
	require.Equal(t, "hi", s.Columns[1].Default)
	require.Nil(t, s.Columns[2].Default)
}

func TestParseNestedParensAndCommas(t *testing.T) {
	s, err := Parse(`CREATE TABLE t (a TEXT CHECK (a IN ('x,y', 'z')), b INTEGER)`)
	require.NoError(t, err)
	require.Len(t, s.Columns, 2)
	require.Equal(t, "a", s.Columns[0].Name)
	require.Equal(t, "b", s.Columns[1].Name)
}

func TestParseInvalidSQL(t *testing.T) {
	_, err := Parse(`not a create table statement`)
	require.ErrorIs(t, err, ErrInvalidSQL)
}
