// Package cmd implements the schemaflow command line.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/syssam/schemaflow/compiler/gen"
)

// NewApp returns the command line application.
func NewApp() *cli.App {
	return &cli.App{
		Name:  "schemaflow",
		Usage: "keep a Drizzle schema file and its diagram in sync",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log generator decisions to stderr",
			},
		},
		Commands: []*cli.Command{
			parseCommand(),
			layoutCommand(),
			regenerateCommand(),
			addTableCommand(),
			exportCommand(),
			serveCommand(),
		},
	}
}

// Run runs the application with os-style args.
func Run(args []string) error {
	return NewApp().Run(args)
}

// logger returns a development logger when --verbose is set.
func logger(c *cli.Context) *zap.Logger {
	if !c.Bool("verbose") {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func generateOptions(c *cli.Context) []gen.Option {
	return []gen.Option{gen.WithLogger(logger(c))}
}

// fileArg returns the first argument, read as a file.
func fileArg(c *cli.Context) (path, src string, err error) {
	path = c.Args().First()
	if path == "" {
		return "", "", fmt.Errorf("schema file path is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return path, string(b), nil
}

// encode writes v as indented JSON or as YAML.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", format)
}

// output writes content to path, or to the app writer when path is empty.
func output(c *cli.Context, path, content string) error {
	if path == "" {
		_, err := io.WriteString(c.App.Writer, content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
