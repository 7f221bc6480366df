// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jeranaias/stockdesk-tui/internal/templates"
	"github.com/jeranaias/stockdesk-tui/internal/ui/styles"
	"github.com/jeranaias/stockdesk-tui/internal/util"
)

func newTemplatesCommand(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the quick-fill templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			loader := templates.NewLoader()
			if err := loader.SetExtras(cfg.ExtraTemplates()); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), styles.RenderWarning(err.Error()))
			}
			if asJSON {
				return writeTemplatesJSON(cmd.OutOrStdout(), loader.All())
			}
			applyColorProfile()
			writeTemplatesTable(cmd.OutOrStdout(), loader.All())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// templateJSON is the JSON shape of one template.
type templateJSON struct {
	Key     string `json:"key"`
	Company string `json:"company"`
	Code    string `json:"code"`
	Builtin bool   `json:"builtin"`
}

func writeTemplatesJSON(w io.Writer, all []templates.Template) error {
	out := make([]templateJSON, 0, len(all))
	for _, t := range all {
		out = append(out, templateJSON{Key: t.Key, Company: t.Company, Code: t.Code, Builtin: t.Builtin})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

var (
	tableHeaderStyle = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	mutedStyle       = lipgloss.NewStyle().Foreground(styles.TextMuted)
)

// writeTemplatesTable prints an aligned table. Widths are display columns so
// CJK names line up.
func writeTemplatesTable(w io.Writer, all []templates.Template) {
	keyW, companyW := util.StringWidth("KEY"), util.StringWidth("COMPANY")
	for _, t := range all {
		keyW = max(keyW, util.StringWidth(t.Key))
		companyW = max(companyW, util.StringWidth(t.Company))
	}

	header := util.PadRightWidth("KEY", keyW) + "  " + util.PadRightWidth("COMPANY", companyW) + "  CODE"
	fmt.Fprintln(w, tableHeaderStyle.Render(header))
	for _, t := range all {
		line := util.PadRightWidth(t.Key, keyW) + "  " + util.PadRightWidth(t.Company, companyW) + "  " + t.Code
		if !t.Builtin {
			line += "  " + mutedStyle.Render("(config)")
		}
		fmt.Fprintln(w, line)
	}
}
