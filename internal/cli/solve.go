package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var solveVariable string

var solveCmd = &cobra.Command{
	Use:   "solve <equation>",
	Short: "Solve an equation step by step",
	Long: `Send an equation to the math solver and print the solution with steps.

Requires an access token (--token or MATHSERVICE_TOKEN).

Example:
  mathservice solve "x^2 - 5x + 6 = 0"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appLogger.Debug("solving equation",
			slog.String("equation", args[0]),
			slog.String("variable", solveVariable),
		)

		resp, err := callJSON("POST", solverURL+"/algebra/solve", map[string]any{
			"equation": args[0],
			"variable": solveVariable,
		})
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

func init() {
	solveCmd.Flags().StringVar(&solveVariable, "variable", "x", "variable to solve for")
}
