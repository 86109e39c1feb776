// Package cli implements the hcpctl command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/hashicorp/terraform-plugin-log/tfsdklog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pkodzis/hcpctl/internal/client"
	"github.com/pkodzis/hcpctl/internal/config"
	"github.com/pkodzis/hcpctl/internal/resolve"
)

// app carries what subcommands need once configuration is loaded.
type app struct {
	version  string
	cfg      *config.Config
	client   *client.Client
	resolver *resolve.Resolver
	out      io.Writer
	errOut   io.Writer
}

// Execute runs hcpctl with the process arguments
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version).ExecuteContext(ctx)
}

// NewRootCommand builds the hcpctl command tree.
func NewRootCommand(version string) *cobra.Command {
	v := config.NewViper()
	a := &app{version: version}
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "hcpctl",
		Short: "Resolve HCP Terraform resources and follow run logs",
		Long: `hcpctl finds organizations, workspaces, projects and runs on
HCP Terraform or Terraform Enterprise by name or ID, and streams plan and
apply logs while a run is in progress.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, v, cfgFile)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.hcpctl/config.yaml)")
	flags.String("host", "", "HCP Terraform or Terraform Enterprise host (env TFE_HOSTNAME, default app.terraform.io)")
	flags.String("token", "", "API token (env HCP_TOKEN, TFC_TOKEN, TFE_TOKEN)")
	flags.StringP("org", "O", "", "organization name (env HCPCTL_ORG)")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (env HCPCTL_LOG_LEVEL)")
	flags.String("interval", "", "poll interval when following logs, e.g. 5s or 5 for seconds (env HCPCTL_POLL_INTERVAL, default 2s)")

	v.BindPFlag(config.KeyHost, flags.Lookup("host"))
	v.BindPFlag(config.KeyToken, flags.Lookup("token"))
	v.BindPFlag(config.KeyOrganization, flags.Lookup("org"))
	v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	v.BindPFlag(config.KeyPollInterval, flags.Lookup("interval"))

	cmd.AddCommand(newLogsCmd(a))
	cmd.AddCommand(newWatchCmd(a))
	cmd.AddCommand(newGetCmd(a))
	cmd.AddCommand(newVersionCmd(a))

	return cmd
}

// setup loads configuration and installs the logger and API client.
func (a *app) setup(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()

	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := config.Load(v, config.Options{ConfigFile: cfgFile})
	if err != nil {
		return err
	}

	ctx := newLoggerContext(cmd.Context(), cfg.LogLevel)
	tflog.Debug(ctx, "Loaded configuration", map[string]any{
		"host":          cfg.Host,
		"organization":  cfg.Organization,
		"poll_interval": cfg.PollInterval.String(),
		"token_source":  cfg.TokenSource,
	})
	cmd.SetContext(ctx)

	a.cfg = cfg
	a.client = client.New(cfg.Host, cfg.Token, a.version)
	a.resolver = resolve.New(a.client)
	return nil
}

// newLoggerContext installs a root logger on stderr at the given level.
// Unknown levels fall back to warn.
func newLoggerContext(ctx context.Context, level string) context.Context {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Warn
	}
	ctx = tfsdklog.NewRootProviderLogger(ctx,
		tfsdklog.WithLogName("hcpctl"),
		tfsdklog.WithLevel(lvl),
		tfsdklog.WithoutLocation(),
	)
	return tflog.MaskFieldValuesWithFieldKeys(ctx, "token", "Authorization")
}

func (a *app) printLine(line string) {
	fmt.Fprintln(a.out, line)
}
