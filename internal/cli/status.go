package cli

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show platform health",
	Long:  `Query the admin service health aggregate and print per-service status`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := callJSON("GET", adminURL+"/system/health", nil)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}
