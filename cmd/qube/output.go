package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/qube/internal/model"
	"github.com/alfredjeanlab/qube/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printComponent(w io.Writer, c *model.WireComponent) {
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "%-15s%s\n", label+":", value)
		}
	}
	row("Key", ui.RenderAccent(c.Key))
	row("Name", c.Name)
	row("Qualifier", c.Qualifier)
	row("Organization", c.Organization)
	row("ID", ui.RenderMuted(c.ID))
	row("Visibility", ui.RenderVisibility(c.Visibility))
	row("Path", c.Path)
	row("Language", c.Language)
	row("Description", c.Description)
	if c.Tags != nil {
		row("Tags", strings.Join(c.Tags, ", "))
	}
	row("Analysis Date", c.AnalysisDate)
}

func printComponentList(w io.Writer, components []*model.WireComponent) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tQUALIFIER\tNAME\tVISIBILITY")
	for _, c := range components {
		name := c.Name
		if len(name) > 50 {
			name = name[:47] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Key, c.Qualifier, name, c.Visibility)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d components\n", len(components))
}
