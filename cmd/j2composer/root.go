package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	j2composer "github.com/fantajeon/J2Composer"
	"github.com/fantajeon/J2Composer/engine"
	"github.com/fantajeon/J2Composer/extension"
	"github.com/fantajeon/J2Composer/shell"
)

type renderFlags struct {
	template  string
	variables []string
	envs      []string
	plugin    string
	output    string
	logLevel  string
	timeout   time.Duration
}

func newRootCommand() *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:           "j2composer",
		Short:         "Compose files from Jinja2 templates and YAML variables",
		Long: "j2composer renders a Jinja2 template against YAML variables and " +
			"environment entries, extended by shell- and WebAssembly-backed " +
			"functions and filters declared in a plugin manifest.",
		Version:       j2composer.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(flags)
		},
	}

	cmd.Flags().StringVarP(&flags.template, "template", "t", "", "main template file (required)")
	cmd.Flags().StringArrayVarP(&flags.variables, "variables", "v", nil, "variables template file or glob (repeatable)")
	cmd.Flags().StringArrayVarP(&flags.envs, "env", "e", nil, "environment entries in key=value form (repeatable)")
	cmd.Flags().StringVarP(&flags.plugin, "plugin", "p", "", "plugin manifest file")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default stdout)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	cmd.Flags().DurationVar(&flags.timeout, "shell-timeout", 30*time.Second, "deadline for shell-backed extensions (0 disables)")
	_ = cmd.MarkFlagRequired("template")

	cmd.AddCommand(newWasmExecCommand(flags))
	return cmd
}

func runRender(flags *renderFlags) error {
	setupLogging(flags.logLevel)

	eng := engine.NewGonja()
	ctx := engine.Context{
		"envs": j2composer.ParseEnvAssignments(flags.envs),
	}

	if err := j2composer.RegisterBuiltins(eng); err != nil {
		return err
	}

	vars := map[string]any{}
	if len(flags.variables) > 0 {
		var err error
		if vars, err = j2composer.RenderVariables(eng, flags.variables, ctx); err != nil {
			return err
		}
	}
	ctx["vars"] = vars

	if flags.plugin != "" {
		opts := j2composer.WithDispatcherOptions(
			extension.WithShellOptions(shell.WithTimeout(flags.timeout)),
		)
		if err := j2composer.LoadManifestAndRegister(flags.plugin, eng, ctx, opts); err != nil {
			return err
		}
	}

	rendered, err := eng.RenderFile(flags.template, ctx)
	if err != nil {
		return err
	}

	if flags.output == "" {
		fmt.Print(rendered)
		return nil
	}
	if err := os.WriteFile(flags.output, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func setupLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
