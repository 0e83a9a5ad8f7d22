package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/reoring/groqb/schema"
)

// NewSchemaCommand groups the schema inspection subcommands.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect a schema-definition file (.yaml, .yml or .cue)",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <file>",
		Short: "Print every document type and its fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := LoadSchemaFile(args[0])
			if err != nil {
				return err
			}
			return writeDocuments(cmd.OutOrStdout(), reg)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "paths <file> <type>",
		Short: "List every selectable path of a document type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0], args[1])
			if err != nil {
				return err
			}
			for _, p := range schema.Paths(doc) {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "jsonschema <file> <type>",
		Short: "Export a document type as JSON Schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0], args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), doc.JSONSchema())
		},
	})
	return cmd
}

// LoadSchemaFile picks the loader by file extension.
func LoadSchemaFile(path string) (*schema.Registry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return schema.LoadCUE(src)
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return schema.LoadYAML(f)
	}
	return nil, fmt.Errorf("unsupported schema file %q: want .yaml, .yml or .cue", path)
}

func loadDocument(path, typeName string) (*schema.Shape, error) {
	reg, err := LoadSchemaFile(path)
	if err != nil {
		return nil, err
	}
	doc, ok := reg.Document(typeName)
	if !ok {
		return nil, fmt.Errorf("unknown document type %q (have %s)", typeName, strings.Join(reg.Documents(), ", "))
	}
	return doc, nil
}

func writeDocuments(w io.Writer, reg *schema.Registry) error {
	for i, name := range reg.Documents() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		doc, _ := reg.Document(name)
		fmt.Fprintln(w, name)
		for _, f := range doc.Fields {
			opt := ""
			if f.Optional {
				opt = "?"
			}
			fmt.Fprintf(w, "  %s%s: %s\n", f.Name, opt, f.Shape)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
