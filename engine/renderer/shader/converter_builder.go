package shader

// ConverterBuilderOption is a functional option for configuring a ShaderConverter.
type ConverterBuilderOption func(*converter)

// WithGLSLangCommand sets the GLSL to SPIR-V command line. The {stage}, {input} and
// {output} placeholders are substituted per argument after shell-style splitting.
//
// Parameters:
//   - commandLine: the command line
//
// Returns:
//   - ConverterBuilderOption: a function that sets the command
func WithGLSLangCommand(commandLine string) ConverterBuilderOption {
	return func(c *converter) {
		c.glslangCommand = commandLine
	}
}

// WithSPIRVCrossCommand sets the SPIR-V to HLSL command line, with the same
// placeholders as WithGLSLangCommand.
//
// Parameters:
//   - commandLine: the command line
//
// Returns:
//   - ConverterBuilderOption: a function that sets the command
func WithSPIRVCrossCommand(commandLine string) ConverterBuilderOption {
	return func(c *converter) {
		c.spirvCrossCommand = commandLine
	}
}

// WithTempDir sets the directory intermediate files are written under.
//
// Parameters:
//   - dir: the parent directory, empty for the system default
//
// Returns:
//   - ConverterBuilderOption: a function that sets the directory
func WithTempDir(dir string) ConverterBuilderOption {
	return func(c *converter) {
		c.tempDir = dir
	}
}

// WithCommandRunner replaces process execution, e.g. to run the tools remotely.
//
// Parameters:
//   - run: the runner
//
// Returns:
//   - ConverterBuilderOption: a function that sets the runner
func WithCommandRunner(run CommandRunner) ConverterBuilderOption {
	return func(c *converter) {
		c.run = run
	}
}
