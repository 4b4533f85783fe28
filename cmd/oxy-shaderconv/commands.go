package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "~/.config/oxy-render/renderer.toml"

// options holds the flags shared by every subcommand.
type options struct {
	configPath string
	dir        string
	version    string
	defines    string
	verbose    bool

	settings config.RendererSettings
	logger   *slog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "oxy-shaderconv",
		Short:         "Pre-process and convert engine shaders",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "renderer settings file")
	flags.StringVarP(&opts.dir, "dir", "d", "", "shader directory, overrides the settings")
	flags.StringVar(&opts.version, "version", "", "target shading language (dx11, gl2, gl3, gles2, gles3, wgsl)")
	flags.StringVarP(&opts.defines, "defines", "D", "", "space separated defines, NAME or NAME=VALUE")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output")

	root.AddCommand(newConvertCommand(opts), newWatchCommand(opts))
	return root
}

// load reads the settings file. A missing file at the default location yields the
// default settings.
func (o *options) load(logOut io.Writer) error {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	path, err := homedir.Expand(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to expand %s: %w", o.configPath, err)
	}
	o.settings, err = config.Load(path)
	switch {
	case err == nil:
		o.logger.Debug("settings loaded", "path", path)
	case errors.Is(err, fs.ErrNotExist) && o.configPath == defaultConfigPath:
		o.settings = config.Default()
	default:
		return err
	}

	if o.dir != "" {
		o.settings.Shaders.Directory = o.dir
	}
	if o.version != "" {
		o.settings.Shaders.Version = o.version
	}
	o.settings.Shaders.Directory, err = homedir.Expand(o.settings.Shaders.Directory)
	return err
}

// cache builds a shader cache over the configured directory.
func (o *options) cache(extra ...shader.CacheBuilderOption) shader.ShaderCache {
	var convOpts []shader.ConverterBuilderOption
	if cmd := o.settings.Shaders.GLSLCommand; cmd != "" {
		convOpts = append(convOpts, shader.WithGLSLangCommand(cmd))
	}
	if cmd := o.settings.Shaders.HLSLCommand; cmd != "" {
		convOpts = append(convOpts, shader.WithSPIRVCrossCommand(cmd))
	}
	cacheOpts := append([]shader.CacheBuilderOption{
		shader.WithConverter(shader.NewShaderConverter(convOpts...)),
	}, extra...)
	return shader.NewShaderCache(os.DirFS(o.settings.Shaders.Directory), cacheOpts...)
}

func (o *options) shaderVersion() (shader.ShaderVersion, error) {
	return shader.ParseShaderVersion(o.settings.Shaders.Version)
}

// parseStage accepts "vs", "ps" and their long forms.
func parseStage(s string) (graphics.ShaderType, error) {
	switch strings.ToLower(s) {
	case "vs", "vertex":
		return graphics.VertexShader, nil
	case "ps", "pixel", "fs", "fragment":
		return graphics.PixelShader, nil
	default:
		return 0, fmt.Errorf("unknown shader stage %q", s)
	}
}

func newConvertCommand(opts *options) *cobra.Command {
	var stage, output string
	cmd := &cobra.Command{
		Use:   "convert NAME",
		Short: "Write the final source of one shader variation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := parseStage(stage)
			if err != nil {
				return err
			}
			version, err := opts.shaderVersion()
			if err != nil {
				return err
			}
			source, err := opts.cache().GetShaderSource(cmd.Context(), args[0], typ, version, shader.ParseDefines(opts.defines))
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = io.WriteString(cmd.OutOrStdout(), source)
				return err
			}
			return os.WriteFile(output, []byte(source), 0o644)
		},
	}
	cmd.Flags().StringVarP(&stage, "stage", "s", "vs", "shader stage (vs or ps)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, stdout when empty")
	return cmd
}

func newWatchCommand(opts *options) *cobra.Command {
	var filter, outDir string
	cmd := &cobra.Command{
		Use:   "watch NAME...",
		Short: "Convert shaders and convert them again whenever their sources change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := opts.shaderVersion()
			if err != nil {
				return err
			}
			w := &watcher{
				names:   args,
				version: version,
				defines: shader.ParseDefines(opts.defines),
				outDir:  outDir,
				logger:  opts.logger,
			}
			changed := make(chan struct{}, 1)
			w.cache = opts.cache(
				shader.WithWatchFilter(filter),
				shader.WithInvalidateCallback(func([]string) {
					select {
					case changed <- struct{}{}:
					default:
					}
				}),
			)
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			if err := w.convertAll(cmd.Context()); err != nil {
				return err
			}
			if err := w.cache.Watch(cmd.Context(), opts.settings.Shaders.Directory); err != nil {
				return err
			}
			opts.logger.Info("watching", "dir", opts.settings.Shaders.Directory, "filter", filter)
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case <-changed:
					if err := w.convertAll(cmd.Context()); err != nil {
						opts.logger.Error("conversion failed", "err", err)
					}
				}
			}
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "**", "only react to changed files matching this glob")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "directory converted files are written to")
	return cmd
}

// watcher converts a fixed set of shaders for both stages.
type watcher struct {
	cache   shader.ShaderCache
	names   []string
	version shader.ShaderVersion
	defines shader.ShaderDefines
	outDir  string
	logger  *slog.Logger
}

// convertAll writes NAME.vs.EXT and NAME.ps.EXT for every shader. The cache keeps
// unchanged variations, so only invalidated ones run the converter again.
func (w *watcher) convertAll(ctx context.Context) error {
	ext := w.version.Extension()
	if w.version == shader.DX11 {
		ext = ".hlsl"
	}
	var errs []error
	for _, name := range w.names {
		for _, stage := range []graphics.ShaderType{graphics.VertexShader, graphics.PixelShader} {
			source, err := w.cache.GetShaderSource(ctx, name, stage, w.version, w.defines)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out := filepath.Join(w.outDir, fmt.Sprintf("%s.%s%s", name, strings.ToLower(stage.String()), ext))
			if err := os.WriteFile(out, []byte(source), 0o644); err != nil {
				errs = append(errs, err)
				continue
			}
			w.logger.Debug("converted", "shader", name, "stage", stage, "file", out)
		}
	}
	return errors.Join(errs...)
}
