//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
// flowcompile compiles a flowgram document into a runtime state graph and
// reports what was emitted. It is the command-line harness for validating
// authored workflows outside the full agent application.
package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"trpc.group/trpc-go/trpc-agent-go/log"
	"trpc.group/trpc-go/trpc-agent-go/model/openai"

	"trpc.group/trpc-go/trpc-agent-go/flowgram"
	"trpc.group/trpc-go/trpc-agent-go/flowgram/breakpoint"
	"trpc.group/trpc-go/trpc-agent-go/flowgram/registry"
)

// config is the YAML configuration accepted via --config.
type config struct {
	Models []modelConfig `mapstructure:"models"`
	MCP    []mcpConfig   `mapstructure:"mcp"`
	Debug  debugConfig   `mapstructure:"debug"`
}

type modelConfig struct {
	Name    string            `mapstructure:"name"`
	Model   string            `mapstructure:"model"`
	BaseURL string            `mapstructure:"base_url"`
	APIKey  string            `mapstructure:"api_key"`
	Headers map[string]string `mapstructure:"headers"`
}

type mcpConfig map[string]any

type debugConfig struct {
	Dir string `mapstructure:"dir"`
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		bundlePath string
		debugDir   string
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "flowcompile <document.json>",
		Short: "Compile a flowgram document into a runtime state graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				log.SetLevel(log.LevelDebug)
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if debugDir != "" {
				cfg.Debug.Dir = debugDir
			}

			compiler, err := buildCompiler(cmd, cfg)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			parser := flowgram.NewParser()
			var doc *flowgram.Document
			if bundlePath != "" {
				bundle, err := os.ReadFile(bundlePath)
				if err != nil {
					return fmt.Errorf("read bundle: %w", err)
				}
				doc, err = parser.ParseWithBundle(data, bundle)
				if err != nil {
					return err
				}
			} else {
				doc, err = parser.Parse(data)
				if err != nil {
					return err
				}
			}

			sg, armed, err := compiler.Compile(doc)
			if err != nil {
				return err
			}
			if _, err := sg.Compile(); err != nil {
				return fmt.Errorf("graph validation failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "compiled %q: %d sheet(s)\n", doc.SkillName, len(doc.Sheets))
			if len(armed) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "armed breakpoints: %v\n", armed)
			}
			return nil
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "", "YAML config with models, MCP servers and debug settings")
	root.Flags().StringVarP(&bundlePath, "bundle", "b", "", "multi-sheet bundle JSON overriding the embedded bundle")
	root.Flags().StringVar(&debugDir, "debug-dir", "", "directory for per-stage debug dumps")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return root
}

func loadConfig(path string) (*config, error) {
	cfg := &config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := mapstructure.Decode(raw, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func buildCompiler(cmd *cobra.Command, cfg *config) (*flowgram.Compiler, error) {
	models := registry.NewModelRegistry()
	for _, mc := range cfg.Models {
		if mc.Name == "" || mc.Model == "" {
			return nil, fmt.Errorf("model entry needs both name and model")
		}
		var opts []openai.Option
		if mc.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(mc.BaseURL))
		}
		if mc.APIKey != "" {
			opts = append(opts, openai.WithAPIKey(mc.APIKey))
		}
		if len(mc.Headers) > 0 {
			opts = append(opts, openai.WithHeaders(mc.Headers))
		}
		if err := models.Register(mc.Name, openai.New(mc.Model, opts...)); err != nil {
			return nil, err
		}
	}

	tools := registry.NewToolRegistry()
	for i, raw := range cfg.MCP {
		ts, err := registry.CreateMCPToolSet(raw)
		if err != nil {
			return nil, fmt.Errorf("mcp entry %d: %w", i, err)
		}
		tools.RegisterToolSet(cmd.Context(), ts)
	}

	compiler := flowgram.NewCompiler().
		WithModelRegistry(models).
		WithToolRegistry(tools).
		WithBreakpoints(breakpoint.New())
	if cfg.Debug.Dir != "" {
		compiler = compiler.WithDebugDumper(flowgram.NewDumper(cfg.Debug.Dir))
	}
	return compiler, nil
}
