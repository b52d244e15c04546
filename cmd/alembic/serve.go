package main

import (
	"fmt"

	"alembic/internal/config"
	"alembic/internal/lsp"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var verbose int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		if cfg.LogFile != "" {
			commonlog.Configure(verbose, &cfg.LogFile)
		} else {
			commonlog.Configure(verbose, nil)
		}

		srv, ls, err := lsp.NewServer(cfg)
		if err != nil {
			return fmt.Errorf("create server: %w", err)
		}
		defer ls.Close()

		return srv.RunStdio()
	},
}

func init() {
	serveCmd.Flags().IntVar(&verbose, "verbose", 1, "log verbosity")
}
