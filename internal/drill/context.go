package drill

import (
	"sort"

	"github.com/datalens-ai/analytics-console/internal/model"
)

// DeriveContext builds a drill context from a turn's sql and data blocks. It
// is recomputed fresh on every chart click from the then-current turn
// contents, never cached across turns.
func DeriveContext(turn model.Turn) model.DrillContext {
	var ctx model.DrillContext

	if block, ok := turn.Find(model.BlockSQL); ok {
		var payload model.SQLPayload
		if err := block.Decode(&payload); err == nil {
			ctx.SQLQuery = payload.Statement()
			ctx.TablesUsed = payload.TablesUsed
		}
	}

	if block, ok := turn.Find(model.BlockData); ok {
		var payload model.DataPayload
		if err := block.Decode(&payload); err == nil {
			ctx.Columns = payload.Columns
			if len(ctx.Columns) == 0 {
				if rows := payload.Rows(); len(rows) > 0 {
					for col := range rows[0] {
						ctx.Columns = append(ctx.Columns, col)
					}
					sort.Strings(ctx.Columns)
				}
			}
		}
	}

	return ctx
}
