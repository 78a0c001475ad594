package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <expression>",
	Short: "Validate a math expression",
	Long: `Check whether the solver can handle an expression, without solving it.
This endpoint is public and needs no token.

Example:
  mathservice validate "2x + 3 = 7"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appLogger.Debug("validating expression", slog.String("expression", args[0]))

		resp, err := callJSON("POST", solverURL+"/validate", map[string]any{
			"expression": args[0],
		})
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}
