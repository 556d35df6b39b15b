package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/polisai/codeforge/pkg/domain"
	"github.com/polisai/codeforge/pkg/enhancer"
)

type transformOptions struct {
	Level       int
	RequestID   string
	EffectsFile string
	Modules     []string
	Suggest     bool
	OutDir      string
	Concurrency int
}

// transformOutput is one entry of the transform command's JSON output.
type transformOutput struct {
	File   string                       `json:"file"`
	Result *domain.TransformationResult `json:"result,omitempty"`
	Error  string                       `json:"error,omitempty"`
	Code   string                       `json:"errorCode,omitempty"`
}

func newTransformCmd(flags *globalFlags) *cobra.Command {
	opts := &transformOptions{}

	cmd := &cobra.Command{
		Use:   "transform FILE...",
		Short: "Enhance one or more source files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, flags, opts, args)
		},
	}

	cmd.Flags().IntVarP(&opts.Level, "level", "L", 1, "Enhancement level (1-6)")
	cmd.Flags().StringVar(&opts.RequestID, "request-id", "", "Request id (generated when empty; suffixed per file for batches)")
	cmd.Flags().StringVar(&opts.EffectsFile, "effects", "", "YAML or JSON effect analysis to include in the documentation")
	cmd.Flags().StringSliceVar(&opts.Modules, "modules", nil, "Module ids to apply in the local simulation")
	cmd.Flags().BoolVar(&opts.Suggest, "suggest", false, "Select modules from the analysis of each file")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "", "Write enhanced files into this directory")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 4, "Maximum files processed at once")

	return cmd
}

func runTransform(cmd *cobra.Command, flags *globalFlags, opts *transformOptions, files []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, flags, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(ctx); err != nil {
			a.logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	var effects *domain.EffectAnalysis
	if opts.EffectsFile != "" {
		effects, err = loadEffects(opts.EffectsFile)
		if err != nil {
			return err
		}
	}
	if opts.OutDir != "" {
		if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	outputs := make([]transformOutput, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))

	for i, file := range files {
		g.Go(func() error {
			//nolint:gosec // Input paths are supplied by the operator
			source, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}

			req := domain.TransformationRequest{
				SourceCode:      string(source),
				Level:           opts.Level,
				RequestID:       requestIDFor(opts.RequestID, i, len(files)),
				EffectAnalysis:  effects,
				SelectedModules: opts.Modules,
			}
			if opts.Suggest && len(req.SelectedModules) == 0 {
				for _, s := range a.service.AnalyzeAndSuggest(req.SourceCode, opts.Level).Suggestions {
					req.SelectedModules = append(req.SelectedModules, s.ModuleID)
				}
			}

			out := transformOutput{File: file}
			result, err := a.service.Transform(gctx, req)
			if err != nil {
				out.Error = err.Error()
				out.Code = domain.ErrorCode(err)
				outputs[i] = out
				return nil
			}
			out.Result = result

			if opts.OutDir != "" {
				target := filepath.Join(opts.OutDir, filepath.Base(file))
				if err := os.WriteFile(target, []byte(result.Code), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", target, err)
				}
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := writeJSON(cmd.OutOrStdout(), outputs); err != nil {
		return err
	}

	for _, out := range outputs {
		if out.Error != "" {
			return fmt.Errorf("%s: %s", out.File, out.Error)
		}
	}
	return nil
}

func newAnalyzeCmd(flags *globalFlags) *cobra.Command {
	var level int

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Suggest enhancement modules for a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(ctx) }()

			//nolint:gosec // Input paths are supplied by the operator
			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), a.service.AnalyzeAndSuggest(string(source), level))
		},
	}

	cmd.Flags().IntVarP(&level, "level", "L", 1, "Current enhancement level")
	return cmd
}

func requestIDFor(base string, index, total int) string {
	base = strings.TrimSpace(base)
	switch {
	case base == "":
		return enhancer.NewRequestID()
	case total == 1:
		return base
	default:
		return fmt.Sprintf("%s-%d", base, index+1)
	}
}

func loadEffects(path string) (*domain.EffectAnalysis, error) {
	//nolint:gosec // Effect file path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read effects file: %w", err)
	}
	effects := &domain.EffectAnalysis{}
	if err := yaml.Unmarshal(data, effects); err != nil {
		return nil, fmt.Errorf("failed to parse effects file: %w", err)
	}
	return effects, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
