package drill

import (
	"strings"

	"github.com/datalens-ai/analytics-console/internal/model"
)

// QueryForOption synthesizes the natural-language follow-up query for an
// executed drill. The session sends it as a fresh user turn, so drill results
// always appear as a new conversational exchange rather than edited history.
func QueryForOption(clicked *model.ClickedElement, option model.DrillOption) string {
	label := "the selected item"
	if clicked != nil && clicked.Label != "" {
		label = clicked.Label
	}

	switch option.DrillType {
	case "breakdown":
		dimension := "category"
		if option.TargetDimension != "" {
			dimension = strings.ReplaceAll(option.TargetDimension, "_", " ")
		}
		return "Break down " + label + " by " + dimension
	case "trend":
		return "Show " + label + " trend over time"
	case "compare":
		return "Compare " + label + " with others"
	case "details":
		return "Show all records for " + label
	default:
		return option.Label
	}
}
