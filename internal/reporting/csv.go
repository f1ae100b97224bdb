package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the extracted accounts of a report as a CSV string.
// Rows appear sorted by label, then position.
func RenderCSV(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("label,position,address,tx_signature,slot\n")

	// Rows
	for _, section := range r.Labels {
		for _, row := range section.Rows {
			sb.WriteString(fmt.Sprintf("%s,%d,%s,%s,%d\n",
				section.Label,
				row.Position,
				row.Address,
				row.TxSignature,
				row.Slot,
			))
		}
	}

	return sb.String()
}
