package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/uikit/internal/demo"
	"github.com/dmitrymomot/uikit/pkg/action"
	"github.com/dmitrymomot/uikit/pkg/definition"
)

func controllersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "controllers",
		Short: "List the served controllers and their actions as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := definition.New()
			if err := demo.Register(reg); err != nil {
				return err
			}
			defs := make([]*action.ControllerDef, 0)
			for _, d := range reg.Controllers() {
				def, err := reg.Controller(d.QualifiedName())
				if err != nil {
					return err
				}
				defs = append(defs, def)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(defs)
		},
	}
}
