package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"leadlens/internal/config"
	"leadlens/internal/daemonrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var bind string
	var staticDir string
	var development bool
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the lead capture HTTP server in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCfg := *cfg
			if value := strings.TrimSpace(bind); value != "" {
				runCfg.Server.Bind = value
			}
			if value := strings.TrimSpace(staticDir); value != "" {
				expanded, err := config.ExpandPath(value)
				if err != nil {
					return fmt.Errorf("resolve static dir: %w", err)
				}
				runCfg.Server.StaticDir = expanded
			}

			out := cmd.OutOrStdout()
			return daemonrun.Run(cmd.Context(), &runCfg, daemonrun.Options{
				LogLevel:      logLevel,
				Development:   development,
				SkipPreflight: skipPreflight,
				Ready: func(addr string) {
					fmt.Fprintf(out, "leadlens listening on http://%s\n", addr)
				},
			})
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	cmd.Flags().StringVar(&staticDir, "static", "", "Front-end build directory (overrides server.static_dir)")
	cmd.Flags().BoolVar(&development, "dev", false, "Development mode: error detail in responses and stack traces on panic")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start even when a required preflight check fails")
	return cmd
}
