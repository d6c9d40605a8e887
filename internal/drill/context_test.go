package drill

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datalens-ai/analytics-console/internal/model"
)

func turnWith(blocks ...model.ContentBlock) model.Turn {
	return model.Turn{ID: "t-1", Role: model.RoleAssistant, Blocks: blocks}
}

func TestDeriveContext(t *testing.T) {
	turn := turnWith(
		model.NewBlock(model.BlockSQL, json.RawMessage(`{"sql":"SELECT a FROM t","tables_used":["t"]}`)),
		model.NewBlock(model.BlockData, json.RawMessage(`{"columns":["a","b"],"preview":[{"a":1,"b":2}]}`)),
	)

	ctx := DeriveContext(turn)

	assert.Equal(t, "SELECT a FROM t", ctx.SQLQuery)
	assert.Equal(t, []string{"t"}, ctx.TablesUsed)
	assert.Equal(t, []string{"a", "b"}, ctx.Columns)
}

func TestDeriveContextPrefersCorrectedSQL(t *testing.T) {
	turn := turnWith(
		model.NewBlock(model.BlockSQL, json.RawMessage(`{"sql":"SELECT broken","corrected_sql":"SELECT fixed"}`)),
	)

	assert.Equal(t, "SELECT fixed", DeriveContext(turn).SQLQuery)
}

func TestDeriveContextColumnsFromRowKeys(t *testing.T) {
	turn := turnWith(
		model.NewBlock(model.BlockData, json.RawMessage(`{"preview":[{"zeta":1,"alpha":2}]}`)),
	)

	// No columns field; keys of the first row are used, sorted.
	assert.Equal(t, []string{"alpha", "zeta"}, DeriveContext(turn).Columns)
}

func TestDeriveContextEmptyTurn(t *testing.T) {
	ctx := DeriveContext(turnWith())

	assert.Empty(t, ctx.SQLQuery)
	assert.Empty(t, ctx.Columns)
	assert.Empty(t, ctx.TablesUsed)
}

func TestQueryForOption(t *testing.T) {
	clicked := &model.ClickedElement{Label: "Technology"}

	tests := []struct {
		name    string
		clicked *model.ClickedElement
		option  model.DrillOption
		want    string
	}{
		{
			name:    "breakdown with target dimension",
			clicked: clicked,
			option:  model.DrillOption{DrillType: "breakdown", TargetDimension: "course_name"},
			want:    "Break down Technology by course name",
		},
		{
			name:    "breakdown without target dimension",
			clicked: clicked,
			option:  model.DrillOption{DrillType: "breakdown"},
			want:    "Break down Technology by category",
		},
		{
			name:    "trend",
			clicked: clicked,
			option:  model.DrillOption{DrillType: "trend"},
			want:    "Show Technology trend over time",
		},
		{
			name:    "compare",
			clicked: clicked,
			option:  model.DrillOption{DrillType: "compare"},
			want:    "Compare Technology with others",
		},
		{
			name:    "details",
			clicked: clicked,
			option:  model.DrillOption{DrillType: "details"},
			want:    "Show all records for Technology",
		},
		{
			name:    "unknown type falls back to option label",
			clicked: clicked,
			option:  model.DrillOption{DrillType: "custom", Label: "Do something else"},
			want:    "Do something else",
		},
		{
			name:    "nil clicked element",
			clicked: nil,
			option:  model.DrillOption{DrillType: "trend"},
			want:    "Show the selected item trend over time",
		},
		{
			name:    "empty label",
			clicked: &model.ClickedElement{},
			option:  model.DrillOption{DrillType: "details"},
			want:    "Show all records for the selected item",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, QueryForOption(tc.clicked, tc.option))
		})
	}
}
