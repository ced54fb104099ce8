package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_RoundTrip(t *testing.T) {
	inputs := []string{
		"SELECT TOP 10 c.name, COUNT(*) AS n FROM citizens c GROUP BY c.name",
		"SELECT 'it''s; fine' AS x -- note\nFROM [dbo].[citizens]",
		"SELECT \"weird name\" FROM t WHERE a <> b AND c >= 1.5 /* block */",
		"SELECT N'नाम' FROM states",
		"unterminated 'string",
	}
	for _, in := range inputs {
		assert.Equal(t, in, Join(Tokenize(in)))
	}
}

func TestTokenize_KindsAndDepth(t *testing.T) {
	tokens := Tokenize("SELECT MAX(age) FROM citizens WHERE name = 'a;b'")

	var kinds []TokenKind
	var depths []int
	for _, tok := range tokens {
		if tok.Kind == TokenSpace {
			continue
		}
		kinds = append(kinds, tok.Kind)
		depths = append(depths, tok.Depth)
	}

	assert.Equal(t, []TokenKind{
		TokenWord, TokenWord, TokenSymbol, TokenWord, TokenSymbol, TokenWord, TokenWord,
		TokenWord, TokenWord, TokenSymbol, TokenString,
	}, kinds)
	assert.Equal(t, []int{0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}, depths)
}

func TestTokenize_StringLiterals(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`'it''s'`, []string{`'it''s'`}},
		{`'\'`, []string{`'\'`}},
		{`'C:\dir\' + 'x'`, []string{`'C:\dir\'`, `'x'`}},
	}
	for _, tt := range tests {
		var got []string
		for _, tok := range Tokenize(tt.in) {
			if tok.Kind == TokenString {
				got = append(got, tok.Text)
			}
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestStatement_Clauses(t *testing.T) {
	stmt := ParseStatement("SELECT TOP (5) c.name, COUNT(*) FROM citizens c JOIN villages v ON c.village_id = v.village_id " +
		"WHERE c.age > (SELECT AVG(age) FROM citizens) GROUP BY c.name HAVING COUNT(*) > 1 ORDER BY c.name")

	top, ok := stmt.TopClause()
	require.True(t, ok)
	assert.Equal(t, "TOP (5)", stmt.Text(top))

	list, ok := stmt.SelectListSpan()
	require.True(t, ok)
	items := stmt.SplitTopLevel(list)
	require.Len(t, items, 2)
	assert.Equal(t, "c.name", stmt.Text(items[0]))
	assert.Equal(t, "COUNT(*)", stmt.Text(items[1]))

	from, ok := stmt.ClauseSpan("FROM")
	require.True(t, ok)
	assert.Equal(t, " citizens c JOIN villages v ON c.village_id = v.village_id ", stmt.Text(from))

	group, ok := stmt.ClauseSpan("GROUP", "BY")
	require.True(t, ok)
	assert.Equal(t, " c.name ", stmt.Text(group))

	assert.True(t, stmt.HasTopLevel("ORDER", "BY"))
	assert.False(t, stmt.HasTopLevel("UNION"))
}
