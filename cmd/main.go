package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pageassist/localstore/cmd/service"
)

func main() {
	root := &cobra.Command{
		Use:   "localstore",
		Short: "page assist local storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(
		service.NewCommand(),
		service.NewMigrateCommand(),
		service.NewVerifyCommand(),
		service.NewReconcileCommand(),
		service.NewExportCommand(),
		service.NewImportCommand(),
		service.NewEnvCommand(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
