package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{in: "P1", want: PriorityP1},
		{in: "p2", want: PriorityP2},
		{in: " P3 ", want: PriorityP3},
		{in: "P4", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePriority(tt.in)
			if tt.wantErr {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "priority", ve.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriority_RankAndNext(t *testing.T) {
	assert.Equal(t, 1, PriorityP1.Rank())
	assert.Equal(t, 3, PriorityP3.Rank())
	assert.Equal(t, 0, Priority("urgent").Rank())

	assert.Equal(t, PriorityP2, PriorityP1.Next())
	assert.Equal(t, PriorityP1, PriorityP3.Next())
	assert.Equal(t, PriorityP1, Priority("").Next())
}

func TestValidateTitle(t *testing.T) {
	got, err := ValidateTitle("  Groceries ")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got)

	_, err = ValidateTitle("   ")
	assert.Error(t, err)

	_, err = ValidateTitle(strings.Repeat("é", MaxTitleLength))
	assert.NoError(t, err)
	_, err = ValidateTitle(strings.Repeat("é", MaxTitleLength+1))
	assert.Error(t, err)
}

func TestItemPatch(t *testing.T) {
	assert.True(t, ItemPatch{}.Empty())

	title := "  Eggs "
	bad := Priority("P9")
	p := ItemPatch{Title: &title}
	require.NoError(t, p.Validate())
	assert.Equal(t, "Eggs", *p.Title)

	p = ItemPatch{Priority: &bad}
	assert.Error(t, p.Validate())

	done := true
	prio := PriorityP1
	it := Item{ID: 1, ListID: 1, Title: "Milk", Priority: PriorityP2}
	ItemPatch{Priority: &prio, Completed: &done}.Apply(&it)
	assert.Equal(t, "Milk", it.Title)
	assert.Equal(t, PriorityP1, it.Priority)
	assert.True(t, it.Completed)
}

func TestItemPatch_PriorityFromJSON(t *testing.T) {
	var p ItemPatch
	require.NoError(t, json.Unmarshal([]byte(`{"priority":" p1 "}`), &p))
	require.NotNil(t, p.Priority)
	assert.Equal(t, PriorityP1, *p.Priority)
	assert.NoError(t, p.Validate())

	err := json.Unmarshal([]byte(`{"priority":"P9"}`), &p)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "priority", ve.Field)

	assert.Error(t, json.Unmarshal([]byte(`{"priority":1}`), &p))
}
