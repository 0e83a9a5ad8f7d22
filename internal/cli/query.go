package cli

import (
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/reoring/groqb"
	"github.com/reoring/groqb/executor/fixture"
	"github.com/reoring/groqb/executor/httpexec"
)

type queryOptions struct {
	params   []string
	fixtures string
}

// NewQueryCommand runs raw GROQ and prints the result as JSON.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	qo := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query <groq>",
		Short: "Run a GROQ query and print the JSON result",
		Long: `Run a GROQ query against the configured dataset.

Parameters are passed as --param name=value; values that parse as JSON are
sent as JSON, anything else as a string. With --fixtures the query is answered
from a YAML fixture file instead of the network.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(qo.params)
			if err != nil {
				return err
			}
			exec, err := buildExecutor(cmd, rootOpts, qo)
			if err != nil {
				return err
			}
			runner := groqb.MakeRunner(exec, groqb.WithLogger(rootOpts.logger))
			node := groqb.New(nil).Raw(args[0])
			out, err := runner.Run(cmd.Context(), node, groqb.RunOptions{Parameters: params})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().StringArrayVarP(&qo.params, "param", "p", nil, "query parameter name=value (repeatable)")
	cmd.Flags().StringVar(&qo.fixtures, "fixtures", "", "answer from a YAML fixture file")
	return cmd
}

func buildExecutor(cmd *cobra.Command, rootOpts *RootOptions, qo *queryOptions) (groqb.Executor, error) {
	if qo.fixtures != "" {
		f, err := os.Open(qo.fixtures)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		fx, err := fixture.LoadYAML(f)
		if err != nil {
			return nil, err
		}
		return fx.Execute, nil
	}
	cfg, err := LoadConfig(rootOpts.ConfigFile, cmd)
	if err != nil {
		return nil, err
	}
	opts := []httpexec.Option{httpexec.WithLogger(rootOpts.logger)}
	if cfg.RateLimit > 0 {
		opts = append(opts, httpexec.WithRateLimit(rate.Limit(cfg.RateLimit), 1))
	}
	client, err := httpexec.New(cfg.httpConfig(), opts...)
	if err != nil {
		return nil, err
	}
	return client.Executor(), nil
}

// parseParams reads name=value pairs.
func parseParams(raw []string) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --param %q: want name=value", kv)
		}
		var v any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			v = value
		}
		out[strings.TrimPrefix(name, "$")] = v
	}
	return out, nil
}
