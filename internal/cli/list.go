package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xform-labs/xform/internal/capability"
	"github.com/xform-labs/xform/internal/config"
	"github.com/xform-labs/xform/internal/extension"
	"github.com/xform-labs/xform/spi"
)

var listCmdJSON bool

var listCmd = &cobra.Command{
	Use:   "list [dir...]",
	Short: "List discoverable extension functions",
	Long: `Scan the given directories (or the configured plugin directories) and
list every extension function that a load would register.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listCmdJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents one discoverable extension function for display.
type listEntry struct {
	Symbol  string `json:"symbol"`
	Name    string `json:"name,omitempty"`
	Archive string `json:"archive"`
}

func runList(cmd *cobra.Command, args []string) error {
	dirs := args
	if len(dirs) == 0 {
		dirs = config.PluginDirs()
	}

	// A throwaway registry: listing must reflect the directories given now,
	// not whatever an earlier load in this process discovered.
	reg := capability.NewRegistry()
	m := extension.NewManagerWith(log, reg)
	m.HostVersion = buildVersion
	m.Load(dirs)

	var entries []listEntry
	for _, impl := range reg.Implementations() {
		entry := listEntry{Symbol: impl.Symbol, Archive: impl.Archive}
		if fn := tryConstruct(impl.Construct); fn != nil {
			entry.Name = fn.QualifiedName().String()
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No extension functions found.")
		return nil
	}

	if listCmdJSON {
		return printListJSON(cmd, entries)
	}
	return printListTable(cmd, entries)
}

// tryConstruct instantiates a constructor just to read the qualified name,
// swallowing panics from broken plugin code.
func tryConstruct(construct spi.Constructor) (fn spi.ExtensionFunction) {
	if construct == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			fn = nil
		}
	}()
	return construct()
}

func printListTable(cmd *cobra.Command, entries []listEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CONSTRUCTOR\tQUALIFIED NAME\tARCHIVE")
	for _, e := range entries {
		name := e.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Symbol, name, e.Archive)
	}
	return w.Flush()
}

func printListJSON(cmd *cobra.Command, entries []listEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
