package reporting

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Crawl Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s | Target: %s | Status: %s\n\n",
		r.Run.RunID, r.Run.TargetAddress, r.Run.Status))

	// Run Summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Page Size | %d |\n", r.Run.PageSize))
	sb.WriteString(fmt.Sprintf("| Fetch Parallelism | %d |\n", r.Run.FetchParallelism))
	sb.WriteString(fmt.Sprintf("| Pages Fetched | %d |\n", r.Run.PagesFetched))
	sb.WriteString(fmt.Sprintf("| Signatures Seen | %d |\n", r.Run.SignaturesSeen))
	sb.WriteString(fmt.Sprintf("| Transactions Fetched | %d |\n", r.Run.TxFetched))
	sb.WriteString(fmt.Sprintf("| Instructions Matched | %d |\n", r.Run.InstructionsMatched))
	sb.WriteString(fmt.Sprintf("| Accounts Extracted | %d |\n", r.TotalAccounts))
	sb.WriteString(fmt.Sprintf("| Started At (ms) | %d |\n", r.Run.StartedAt))
	if r.Run.FinishedAt != nil {
		sb.WriteString(fmt.Sprintf("| Finished At (ms) | %d |\n", *r.Run.FinishedAt))
	}
	sb.WriteString("\n")

	// Warnings
	sb.WriteString("## Warnings\n\n")
	if r.Run.TxUnfetchable > 0 || r.Run.TxMalformed > 0 {
		sb.WriteString("| Kind | Count |\n")
		sb.WriteString("|------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Unfetchable transactions | %d |\n", r.Run.TxUnfetchable))
		sb.WriteString(fmt.Sprintf("| Malformed transactions | %d |\n", r.Run.TxMalformed))
	} else {
		sb.WriteString("No warnings recorded.\n")
	}
	sb.WriteString("\n")

	// Extracted Accounts
	sb.WriteString("## Extracted Accounts\n\n")
	if len(r.Labels) > 0 {
		for _, section := range r.Labels {
			sb.WriteString(fmt.Sprintf("### %s\n\n", section.Label))
			sb.WriteString("| Position | Address | Transaction | Slot | Instruction |\n")
			sb.WriteString("|----------|---------|-------------|------|-------------|\n")
			for _, row := range section.Rows {
				sb.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %s |\n",
					row.Position, row.Address, row.TxSignature, row.Slot,
					formatInstructionRef(row)))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No accounts extracted.\n\n")
	}

	return sb.String()
}

// formatInstructionRef renders the instruction position within its
// transaction, "3" for a top-level instruction or "3.1" for the second
// inner instruction under outer index 3.
func formatInstructionRef(row AccountRow) string {
	if row.InnerIndex == nil {
		return strconv.Itoa(row.OuterIndex)
	}
	return fmt.Sprintf("%d.%d", row.OuterIndex, *row.InnerIndex)
}
