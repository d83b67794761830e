/*
Copyright 2024 The fieldcodec Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package inspect implements fieldcodecgen's cobra command tree: a
// schema/configuration YAML document in, a shape report out, with no
// dependency on any host's compiled Go types.
package inspect

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parsec-io/fieldcodec"
	"github.com/parsec-io/fieldcodec/configuration"
)

// NewRootCommand builds the fieldcodecgen command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "fieldcodecgen",
		Short:         "Inspect fieldcodec schema and configuration YAML documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSchemaCommand(), newConfigurationCommand())
	return root
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <file.yaml>",
		Short: "Report the field plan each template in a schema document compiles to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			doc, err := fieldcodec.ReadSchema(f)
			if err != nil {
				return fmt.Errorf("reading schema: %w", err)
			}

			report := make([]map[string]any, 0, len(doc.Templates))
			for _, tmpl := range doc.Templates {
				fields := make([]map[string]any, 0, len(tmpl.Fields))
				for _, field := range tmpl.Fields {
					fields = append(fields, map[string]any{
						"name":       field.Name,
						"kind":       field.Kind,
						"sizeExpr":   field.SizeExpr,
						"isChecksum": field.IsChecksum,
					})
				}
				report = append(report, map[string]any{
					"name":          tmpl.Name,
					"typeName":      tmpl.TypeName,
					"headerPattern": tmpl.HeaderPattern,
					"fieldCount":    len(tmpl.Fields),
					"fields":        fields,
				})
			}
			return printJSON(cmd, report)
		},
	}
}

func newConfigurationCommand() *cobra.Command {
	var protocol string
	cmd := &cobra.Command{
		Use:   "configuration <file.yaml>",
		Short: "Project a configuration document's administration or protocol view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			doc, err := configuration.ReadDocument(f)
			if err != nil {
				return fmt.Errorf("reading configuration document: %w", err)
			}
			cfg, err := configuration.CompileConfiguration(doc, nil, nil)
			if err != nil {
				return fmt.Errorf("compiling configuration: %w", err)
			}

			if protocol == "" {
				return printJSON(cmd, configuration.ProjectAdmin(cfg))
			}
			return printJSON(cmd, configuration.ProjectProtocol(cfg, protocol))
		},
	}
	cmd.Flags().StringVar(&protocol, "protocol", "", "project the view for a specific protocol version instead of the administration view")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
