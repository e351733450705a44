// Package fixtures provides the command that prints the seed roster.
package fixtures

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/astronauts/internal/cmd/output"
	"github.com/agentstation/astronauts/pkg/astronauts"
)

// NewCommand creates the fixtures command. seed returns the records the
// store would be seeded with; useFixtures redirects it to another file.
func NewCommand(seed func() ([]astronauts.Astronaut, error), useFixtures func(string)) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fixtures",
		GroupID: "core",
		Short:   "Print the seed roster",
		Long: `Print the records the server is seeded with at startup.

Without --fixtures this is the embedded roster (or the file configured
through ASTRONAUTS_FIXTURES). YAML and JSON output is itself a valid
seed file; table and wide summarize the roster for reading. The default
is a table on a terminal and YAML otherwise.`,
		Example: `  # Dump the embedded roster as YAML
  astronauts fixtures --format yaml > crew.yaml

  # Validate a custom seed file and print it as JSON
  astronauts fixtures --fixtures ./crew.yaml --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			path, err := cmd.Flags().GetString("fixtures")
			if err != nil {
				return err
			}
			if path != "" && useFixtures != nil {
				useFixtures(path)
			}

			out := cmd.OutOrStdout()
			resolved, err := output.ParseFormat(string(output.DetectFormat(out, format, output.FormatYAML)))
			if err != nil {
				return err
			}

			records, err := seed()
			if err != nil {
				return err
			}

			if resolved.IsTable() {
				data := output.AstronautsToTableData(records, resolved == output.FormatWide)
				return output.NewFormatter(resolved).Format(out, data)
			}

			data, err := astronauts.EncodeFixtures(records, string(resolved))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(data))
			return err
		},
	}

	cmd.Flags().StringP("format", "f", "", "Output format: yaml, json, table, wide")
	cmd.Flags().String("fixtures", "", "Seed file (YAML or JSON) to print instead")

	return cmd
}
