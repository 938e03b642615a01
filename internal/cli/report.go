package cli

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("user", "", "Owner id")
	reportCmd.Flags().String("month", "", "Month id (defaults to the active month)")
	reportCmd.Flags().Bool("raw", false, "Print markdown without terminal styling")
	_ = reportCmd.MarkFlagRequired("user")
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the narrative report for a month",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	monthID, _ := cmd.Flags().GetString("month")
	raw, _ := cmd.Flags().GetBool("raw")

	ctx := cmd.Context()
	runtime, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer runtime.Close()

	if monthID == "" {
		month, err := runtime.Services.Months.GetActiveMonth(ctx, userID)
		if err != nil {
			return err
		}
		monthID = month.ID
	}

	report, err := runtime.Services.Reports.GenerateReport(ctx, userID, monthID)
	if err != nil {
		return err
	}

	out := "# " + report.Month + "\n\n" + report.Markdown + "\n"
	if !raw {
		if out, err = renderTerminal(out); err != nil {
			return err
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// renderTerminal styles markdown for an ANSI terminal.
func renderTerminal(markdown string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return out, nil
}
