package cli

import (
	"encoding/json"
	"os"

	"github.com/appmechanic/driveconnect/internal/types"
	"github.com/olekukonko/tablewriter"
)

func writeJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderNodeTable(nodes []*types.RemoteNode) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Kind", "MIME Type"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, n := range nodes {
		table.Append([]string{
			n.ID,
			truncate(n.Name, 40),
			kindLabel(n),
			truncate(n.MimeType, 30),
		})
	}

	table.Render()
}

func renderKVTable(rows [][]string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, row := range rows {
		table.Append(row)
	}

	table.Render()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
