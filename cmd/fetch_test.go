package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylark-bi/boardpulse/internal/model"
	"github.com/skylark-bi/boardpulse/internal/normalize"
	"github.com/skylark-bi/boardpulse/internal/schema"
	"github.com/skylark-bi/boardpulse/pkg/monday"
)

func TestBuildSnapshot(t *testing.T) {
	roles := schema.DefaultRoleSet()
	env := &agentEnv{
		Roles:  roles,
		Engine: normalize.NewEngine(roles),
	}

	board := &monday.Board{
		ID:      "123",
		Name:    "Deals",
		Headers: []string{"Name", "Deal Value ($)", "Status"},
		Rows: []map[string]string{
			{"Name": "Project Falcon", "Deal Value ($)": "$12,500.00", "Status": "in progress"},
			{"Name": "Project Osprey", "Status": "Done"},
		},
	}

	snap := buildSnapshot(board, env)

	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "123", snap.BoardID)
	assert.Equal(t, "Deals", snap.BoardName)
	assert.False(t, snap.FetchedAt.IsZero())
	assert.Equal(t, "Deal Value ($)", snap.Mapping[model.RoleRevenue])
	assert.Equal(t, "Name", snap.Mapping[model.RoleName])

	require.Len(t, snap.Records, 2)
	d, ok := snap.Records[0][model.RoleRevenue].Num()
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(12500).Equal(d))

	// The cell absent from the source row stays missing, not zero.
	assert.True(t, snap.Records[1][model.RoleRevenue].IsMissing())

	cat, ok := snap.Records[1][model.RoleStatus].Cat()
	require.True(t, ok)
	assert.Equal(t, "Done", cat)
}

func TestReadExport_UnsupportedFormat(t *testing.T) {
	_, _, err := readExport("board.json", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "0b2c4d6e", truncateID("0b2c4d6e-1111-2222-3333-444455556666"))
	assert.Equal(t, "short", truncateID("short"))
}
