package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/uikit/pkg/valueprovider"
)

func browserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browser [user-agent]",
		Short: "Print the $Browser data for a user agent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info := &valueprovider.RequestInfo{UserAgent: strings.Join(args, " ")}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(valueprovider.NewBrowser(info).Data())
		},
	}
}
