package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"alembic/internal/config"
	"alembic/internal/engine"
	"alembic/internal/modload"
	"alembic/internal/resolve"
	"alembic/internal/session"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <file> <line>",
	Short: "Resolve the definition at a 0-based line and print the result",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		editorLine, err := strconv.Atoi(args[1])
		if err != nil || editorLine < 0 {
			return fmt.Errorf("line must be a non-negative integer")
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		text := string(content)
		line := session.ToDefinitionLine(editorLine)
		lines := strings.Split(text, "\n")
		lineText := ""
		if line <= len(lines) {
			lineText = lines[line-1]
		}

		var result *resolve.Result
		switch session.Classify(path) {
		case session.KindDeclarative:
			eng := engine.New(cfg.ImportRoots...)
			res, err := eng.Build(text, path)
			if err != nil {
				return err
			}
			result = resolve.Declarative(res, lineText, line)
		case session.KindModule:
			loader, err := modload.NewLoader()
			if err != nil {
				return err
			}
			defer loader.Close()
			result = resolve.Module(cmd.Context(), loader, path, lineText, line)
		default:
			return fmt.Errorf("%s: not a tracked file kind", path)
		}

		if result == nil {
			fmt.Println("null")
			return nil
		}
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
