package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fantajeon/J2Composer/host"
	"github.com/fantajeon/J2Composer/manifest"
	"github.com/fantajeon/J2Composer/value"
)

// newWasmExecCommand invokes one wasm extension directly, without a
// template, for plugin development.
func newWasmExecCommand(flags *renderFlags) *cobra.Command {
	var (
		modulePath string
		importName string
		argsJSON   string
		inputJSON  string
	)

	cmd := &cobra.Command{
		Use:   "wasm-exec",
		Short: "Invoke a wasm extension directly for testing",
		Example: `  j2composer wasm-exec -m combine.wasm -i combine --args '{"var1":"Hello","var2":" World"}'
  j2composer wasm-exec -m combine.wasm -i deco --args '{"suffix":"!"}' --input '"x"'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(flags.logLevel)

			var args map[string]value.Value
			if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
				return fmt.Errorf("bad --args: %w", err)
			}

			// Every arg key counts as declared here; filtering is
			// exercised through the manifest path.
			params := make([]manifest.Param, 0, len(args))
			for name := range args {
				params = append(params, manifest.Param{Name: name})
			}

			var input value.Value
			hasInput := inputJSON != ""
			if hasInput {
				if err := json.Unmarshal([]byte(inputJSON), &input); err != nil {
					return fmt.Errorf("bad --input: %w", err)
				}
			}

			executor := host.NewExecutor(importName,
				manifest.WasmRef{Path: modulePath, Import: importName}, params)
			result, err := executor.Execute(context.Background(), args, input, hasInput)
			if err != nil {
				return err
			}

			out, err := value.ToJSON(result)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&modulePath, "module", "m", "", "wasm module path (required)")
	cmd.Flags().StringVarP(&importName, "import", "i", "", "exported function name (required)")
	cmd.Flags().StringVar(&argsJSON, "args", "{}", "named arguments as a JSON object")
	cmd.Flags().StringVar(&inputJSON, "input", "", "pipeline value as JSON (invokes as a filter)")
	_ = cmd.MarkFlagRequired("module")
	_ = cmd.MarkFlagRequired("import")

	return cmd
}
