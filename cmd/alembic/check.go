package main

import (
	"fmt"
	"os"

	"alembic/internal/config"
	"alembic/internal/diagnostics"
	"alembic/internal/engine"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	okColor      = color.New(color.FgGreen)
)

var checkCmd = &cobra.Command{
	Use:   "check <files...>",
	Short: "Validate fragment documents and print diagnostics",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		eng := engine.New(cfg.ImportRoots...)
		eng.Strict = cfg.StrictCheck

		problems := 0
		for _, path := range args {
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			issues := eng.Check(string(content), path)
			if len(issues) == 0 {
				okColor.Printf("%s: ok\n", path)
				continue
			}
			for _, issue := range issues {
				label := "warning"
				c := warningColor
				if diagnostics.SeverityFor(issue.Kind) == protocol.DiagnosticSeverityError {
					label = "error"
					c = errorColor
					problems++
				}
				c.Printf("%s:%d:%d: %s: %s\n", path, issue.Line, issue.Column, label, issue.Message)
			}
		}
		if problems > 0 {
			return fmt.Errorf("%d problem(s)", problems)
		}
		return nil
	},
}
