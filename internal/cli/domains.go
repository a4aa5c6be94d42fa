package cli

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/uismoke/internal/domains"
)

// DomainInfo describes one registered domain.
type DomainInfo struct {
	Name    string   `json:"name"`
	Feature string   `json:"feature"`
	Report  string   `json:"report"`
	Fixture string   `json:"fixture"`
	Steps   []string `json:"steps"`
	Columns []string `json:"columns"`
}

// NewDomainsCommand creates the domains command.
func NewDomainsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "domains",
		Short:         "List the built-in domain scenarios in sweep order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			infos := make([]DomainInfo, 0, len(domains.All()))
			for _, d := range domains.All() {
				sc := d.Scenario()
				infos = append(infos, DomainInfo{
					Name:    d.Name,
					Feature: sc.Feature,
					Report:  sc.ReportFile,
					Fixture: sc.FixtureFile,
					Steps:   sc.Steps(),
					Columns: d.Schema().Header(),
				})
			}
			if f.JSON() {
				return f.Success(infos)
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Domain", "Report", "Fixture", "Steps"})
			table.SetAutoFormatHeaders(false)
			table.SetAutoWrapText(false)
			for _, info := range infos {
				table.Append([]string{info.Name, info.Report, info.Fixture, strings.Join(info.Steps, ", ")})
			}
			table.Render()
			return nil
		},
	}
}
