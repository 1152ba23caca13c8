package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/syssam/schemaflow/compiler/gen"
	"github.com/syssam/schemaflow/compiler/load"
	"github.com/syssam/schemaflow/graph"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "output format: json or yaml",
		Value:   "json",
	}
}

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "print the schema declared in a file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			formatFlag(),
			&cli.BoolFlag{Name: "diagram", Usage: "print diagram nodes and edges instead of the schema"},
		},
		Action: func(c *cli.Context) error {
			_, src, err := fileArg(c)
			if err != nil {
				return err
			}
			s, err := load.Extract(src)
			if err != nil {
				return err
			}
			if !c.Bool("diagram") {
				return encode(c.App.Writer, c.String("format"), s)
			}
			nodes, edges := graph.Project(s, nil)
			return encode(c.App.Writer, c.String("format"), diagram{Nodes: nodes, Edges: edges})
		},
	}
}

// diagram is the file form of a projected schema.
type diagram struct {
	Nodes []*graph.Node `json:"nodes" yaml:"nodes"`
	Edges []*graph.Edge `json:"edges" yaml:"edges"`
}

func layoutCommand() *cli.Command {
	return &cli.Command{
		Name:      "layout",
		Usage:     "print the auto-laid-out diagram of a file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			formatFlag(),
			&cli.Int64Flag{Name: "seed", Usage: "seed of the layout jitter"},
			&cli.BoolFlag{Name: "no-jitter", Usage: "disable random offsets"},
		},
		Action: func(c *cli.Context) error {
			_, src, err := fileArg(c)
			if err != nil {
				return err
			}
			s, err := load.Extract(src)
			if err != nil {
				return err
			}
			var opts []graph.LayoutOption
			if c.IsSet("seed") {
				opts = append(opts, graph.WithSeed(c.Int64("seed")))
			}
			if c.Bool("no-jitter") {
				opts = append(opts, graph.WithoutJitter())
			}
			nodes, edges := graph.Project(s, nil)
			return encode(c.App.Writer, c.String("format"), diagram{Nodes: graph.Layout(nodes, edges, opts...), Edges: edges})
		},
	}
}

func regenerateCommand() *cli.Command {
	return &cli.Command{
		Name:      "regenerate",
		Usage:     "rewrite a file from an edited diagram",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "diagram", Usage: "JSON file with the diagram nodes", Required: true},
			&cli.BoolFlag{Name: "write", Aliases: []string{"w"}, Usage: "write the result to the file"},
		},
		Action: func(c *cli.Context) error {
			path, src, err := fileArg(c)
			if err != nil {
				return err
			}
			nodes, err := readDiagram(c.String("diagram"))
			if err != nil {
				return err
			}
			out, err := gen.Regenerate(nodes, src, generateOptions(c)...)
			if err != nil {
				return err
			}
			if c.Bool("write") {
				return output(c, path, out)
			}
			return output(c, "", out)
		},
	}
}

// readDiagram reads nodes from a diagram file, or from a bare node array.
func readDiagram(path string) ([]*graph.Node, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d diagram
	if err := json.Unmarshal(b, &d); err == nil {
		return d.Nodes, nil
	}
	var nodes []*graph.Node
	if err := json.Unmarshal(b, &nodes); err != nil {
		return nil, fmt.Errorf("read diagram %s: %w", path, err)
	}
	return nodes, nil
}

func addTableCommand() *cli.Command {
	return &cli.Command{
		Name:      "add-table",
		Usage:     "declare a new table in a file",
		ArgsUsage: "<file> <name>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "write", Aliases: []string{"w"}, Usage: "write the result to the file"},
		},
		Action: func(c *cli.Context) error {
			path, src, err := fileArg(c)
			if err != nil {
				return err
			}
			out, err := gen.AddTable(src, c.Args().Get(1), generateOptions(c)...)
			if err != nil {
				return err
			}
			if c.Bool("write") {
				return output(c, path, out)
			}
			return output(c, "", out)
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "export the schema of a file as Go types, PostgreSQL DDL or a Mermaid diagram",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "go, sql or mermaid", Value: "go"},
			&cli.StringFlag{Name: "package", Aliases: []string{"p"}, Usage: "package of the Go model", Value: gen.DefaultPackage},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file, stdout when empty"},
		},
		Action: func(c *cli.Context) error {
			_, src, err := fileArg(c)
			if err != nil {
				return err
			}
			s, err := load.Extract(src)
			if err != nil {
				return err
			}
			switch format := c.String("format"); format {
			case "go":
				opts := append(generateOptions(c), gen.WithPackage(c.String("package")))
				if path := c.String("output"); path != "" {
					return gen.WriteGoModel(s, path, opts...)
				}
				b, err := gen.GoModel(s, opts...)
				if err != nil {
					return err
				}
				return output(c, "", string(b))
			case "sql":
				ddl, err := gen.DDL(s, generateOptions(c)...)
				if err != nil {
					return err
				}
				return output(c, c.String("output"), ddl)
			case "mermaid":
				return output(c, c.String("output"), gen.Mermaid(s))
			default:
				return fmt.Errorf("unknown export format %q", format)
			}
		},
	}
}
