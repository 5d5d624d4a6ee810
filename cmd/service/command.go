package service

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pageassist/localstore/app/core"
	v1 "github.com/pageassist/localstore/app/logic/v1"
	"github.com/pageassist/localstore/cmd/service/handler"
	"github.com/pageassist/localstore/pkg/config"
	"github.com/pageassist/localstore/pkg/types"
)

type Options struct {
	ConfigPath string
	EnvFiles   []string
}

func (o *Options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.ConfigPath, "config", "c", "", "init service by given toml config, env is used when empty")
	flagSet.StringSliceVar(&o.EnvFiles, "env-file", nil, "load environment variables from the given files first")
}

func (o *Options) Config() (core.CoreConfig, error) {
	if err := config.LoadEnvFiles(o.EnvFiles...); err != nil {
		return core.CoreConfig{}, err
	}
	return core.MustLoadBaseConfig(o.ConfigPath), nil
}

func (o *Options) Setup() (*core.Core, error) {
	cfg, err := o.Config()
	if err != nil {
		return nil, err
	}
	return core.MustSetupCore(cfg), nil
}

func newCommand(use, short string, opts *Options, run func(cmd *cobra.Command, app *core.Core) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.Setup()
			if err != nil {
				return err
			}
			defer app.Close()
			return run(cmd, app)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func NewCommand() *cobra.Command {
	return newCommand("service", "local storage service", &Options{}, func(cmd *cobra.Command, app *core.Core) error {
		return serve(app)
	})
}

func NewMigrateCommand() *cobra.Command {
	return newCommand("migrate", "migrate legacy key-value data into the structured store", &Options{}, func(cmd *cobra.Command, app *core.Core) error {
		report := v1.NewMigrationLogic(cmd.Context(), app).RunAll()
		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
		if !report.Migration.Success || !report.Verify.IsValid {
			return fmt.Errorf("migration finished with %d errors, %d verify issues", len(report.Migration.Errors), len(report.Verify.Issues))
		}
		return nil
	})
}

func NewVerifyCommand() *cobra.Command {
	return newCommand("verify", "compare legacy and structured record counts", &Options{}, func(cmd *cobra.Command, app *core.Core) error {
		res := v1.NewMigrationLogic(cmd.Context(), app).Verify(nil)
		if err := printJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if !res.IsValid {
			return fmt.Errorf("verify found %d issues", len(res.Issues))
		}
		return nil
	})
}

func NewReconcileCommand() *cobra.Command {
	return newCommand("reconcile", "remove orphaned records", &Options{}, func(cmd *cobra.Command, app *core.Core) error {
		res, err := v1.NewReconcileLogic(cmd.Context(), app).Run()
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	})
}

func NewExportCommand() *cobra.Command {
	var (
		output string
		kinds  string
	)
	cmd := newCommand("export", "export records as import envelopes", &Options{}, func(cmd *cobra.Command, app *core.Core) error {
		bundle, err := v1.NewImportLogic(cmd.Context(), app).Export(handler.ParseKinds(kinds)...)
		if err != nil {
			return err
		}
		if output == "" || output == "-" {
			return printJSON(cmd.OutOrStdout(), bundle)
		}
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		return printJSON(f, bundle)
	})
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, stdout when -")
	cmd.Flags().StringVar(&kinds, "kinds", "", "comma separated entity kinds, all when empty")
	return cmd
}

func NewImportCommand() *cobra.Command {
	var input string
	cmd := newCommand("import", "import an exported bundle", &Options{}, func(cmd *cobra.Command, app *core.Core) error {
		bundle, err := readBundle(input)
		if err != nil {
			return err
		}
		res, err := v1.NewImportLogic(cmd.Context(), app).ImportBundle(*bundle)
		if perr := printJSON(cmd.OutOrStdout(), res); perr != nil && err == nil {
			err = perr
		}
		return err
	})
	cmd.Flags().StringVarP(&input, "input", "i", "", "bundle file produced by export")
	cmd.MarkFlagRequired("input")
	return cmd
}

// NewEnvCommand 输出生效配置对应的环境变量, 可重定向为 .env 文件
func NewEnvCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "env",
		Short: "print the effective configuration as environment variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Config()
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), cfg.EnvFile())
			return err
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func readBundle(path string) (*types.ExportBundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var bundle types.ExportBundle
	if err = json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("decode bundle %s: %w", path, err)
	}
	return &bundle, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
