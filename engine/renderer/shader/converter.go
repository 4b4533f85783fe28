package shader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
	"github.com/mattn/go-shellwords"
)

const (
	// DefaultGLSLangCommand compiles GLSL to SPIR-V with OpenGL semantics.
	DefaultGLSLangCommand = "glslangValidator -G -S {stage} -o {output} {input}"
	// DefaultSPIRVCrossCommand emits HLSL shader model 5.
	DefaultSPIRVCrossCommand = "spirv-cross --hlsl --shader-model 50 --emit-line-directives --output {output} {input}"
)

// CommandRunner runs an external tool and returns its combined diagnostic output.
type CommandRunner func(ctx context.Context, name string, args []string) ([]byte, error)

// converter is the implementation of the ShaderConverter interface.
type converter struct {
	glslangCommand    string
	spirvCrossCommand string
	tempDir           string
	run               CommandRunner
}

// ShaderConverter cross-compiles GLSL sources for backends that cannot consume them.
type ShaderConverter interface {
	// ConvertGLSLToHLSL compiles GLSL to SPIR-V and decompiles the SPIR-V to HLSL
	// shader model 5.
	//
	// Parameters:
	//   - ctx: cancels the external tools
	//   - stage: the shader stage
	//   - source: complete GLSL source, version header included
	//
	// Returns:
	//   - string: the HLSL source
	//   - error: error wrapping the failing tool's output
	ConvertGLSLToHLSL(ctx context.Context, stage graphics.ShaderType, source string) (string, error)
}

var _ ShaderConverter = &converter{}

// NewShaderConverter creates a converter running glslangValidator and spirv-cross.
//
// Parameters:
//   - options: functional options to configure the converter
//
// Returns:
//   - ShaderConverter: the new converter
func NewShaderConverter(options ...ConverterBuilderOption) ShaderConverter {
	c := &converter{
		glslangCommand:    DefaultGLSLangCommand,
		spirvCrossCommand: DefaultSPIRVCrossCommand,
		run:               execRunner,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func execRunner(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	err := cmd.Run()
	return output.Bytes(), err
}

func (c *converter) ConvertGLSLToHLSL(ctx context.Context, stage graphics.ShaderType, source string) (string, error) {
	dir, err := os.MkdirTemp(c.tempDir, "oxy-shaderconv-")
	if err != nil {
		return "", fmt.Errorf("shader: failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	stageName := "vert"
	if stage == graphics.PixelShader {
		stageName = "frag"
	}
	glslPath := filepath.Join(dir, "shader."+stageName)
	spvPath := filepath.Join(dir, "shader.spv")
	hlslPath := filepath.Join(dir, "shader.hlsl")

	if err := os.WriteFile(glslPath, []byte(source), 0o644); err != nil {
		return "", fmt.Errorf("shader: failed to write GLSL source: %w", err)
	}
	if err := c.runTool(ctx, c.glslangCommand, stageName, glslPath, spvPath); err != nil {
		return "", err
	}
	if err := c.runTool(ctx, c.spirvCrossCommand, stageName, spvPath, hlslPath); err != nil {
		return "", err
	}

	hlsl, err := os.ReadFile(hlslPath)
	if err != nil {
		return "", fmt.Errorf("shader: spirv-cross produced no output: %w", err)
	}
	return string(hlsl), nil
}

// runTool expands the {stage}, {input} and {output} placeholders of a command line
// and runs it.
func (c *converter) runTool(ctx context.Context, commandLine, stage, input, output string) error {
	args, err := shellwords.Parse(commandLine)
	if err != nil {
		return fmt.Errorf("shader: invalid command line %q: %w", commandLine, err)
	}
	if len(args) == 0 {
		return fmt.Errorf("shader: empty command line")
	}
	replacer := strings.NewReplacer("{stage}", stage, "{input}", input, "{output}", output)
	for i := range args {
		args[i] = replacer.Replace(args[i])
	}

	out, err := c.run(ctx, args[0], args[1:])
	if err != nil {
		return fmt.Errorf("shader: %s failed: %w: %s", filepath.Base(args[0]), err, strings.TrimSpace(string(out)))
	}
	return nil
}
