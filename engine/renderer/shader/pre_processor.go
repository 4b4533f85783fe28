// pre_processor.go assembles final shader source from a resource tree: it resolves
// #include directives, prepends the version header and defines, and for WGSL (which
// has no pre-processor of its own) evaluates conditional blocks.
package shader

import (
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/graphics"
)

const maxIncludeDepth = 32

// Result is the output of one PreProcessor.Process call.
type Result struct {
	// Source is the final shader source.
	Source string

	// Files lists every file read, the root file first. The cache uses it to
	// invalidate results when one of them changes on disk.
	Files []string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	fsys fs.FS
}

// PreProcessor turns a shader resource name into source ready for compilation.
type PreProcessor interface {
	// Process loads name plus the version's extension and expands it.
	//
	// Parameters:
	//   - name: the resource name without extension, relative to the file system root
	//   - stage: the stage being compiled, which selects COMPILEVS or COMPILEPS
	//   - version: the target shading language
	//   - defines: the user defines
	//
	// Returns:
	//   - Result: the expanded source and its file dependencies
	//   - error: error if a file is missing, an include cycles or a conditional is unbalanced
	Process(name string, stage graphics.ShaderType, version ShaderVersion, defines ShaderDefines) (Result, error)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a pre-processor reading shader files from fsys. Panics if
// fsys is nil.
//
// Parameters:
//   - fsys: the shader file system
//
// Returns:
//   - PreProcessor: the new pre-processor
func NewPreProcessor(fsys fs.FS) PreProcessor {
	if fsys == nil {
		panic("shader: NewPreProcessor requires a non-nil fs.FS")
	}
	return &preProcessor{fsys: fsys}
}

// stageDefine returns the define set while compiling stage.
func stageDefine(stage graphics.ShaderType) string {
	if stage == graphics.VertexShader {
		return "COMPILEVS"
	}
	return "COMPILEPS"
}

func (p *preProcessor) Process(name string, stage graphics.ShaderType, version ShaderVersion, defines ShaderDefines) (Result, error) {
	root := name + version.Extension()
	var res Result
	var body strings.Builder
	if err := p.include(root, &body, &res, nil); err != nil {
		return Result{}, err
	}

	all := make(ShaderDefines, 0, len(defines)+2)
	all = all.With(stageDefine(stage), "")
	all = all.With(version.String(), "")
	for _, d := range defines {
		all = all.With(d.Name, d.Value)
	}

	var out strings.Builder
	if version == WGSL {
		source, err := evaluateConditionals(body.String(), all)
		if err != nil {
			return Result{}, fmt.Errorf("shader: %s: %w", root, err)
		}
		for _, d := range all {
			if decl := wgslConst(d); decl != "" {
				out.WriteString(decl)
				out.WriteByte('\n')
			}
		}
		out.WriteString(source)
	} else {
		out.WriteString(version.header())
		out.WriteByte('\n')
		for _, d := range all {
			out.WriteString("#define ")
			out.WriteString(d.Name)
			if d.Value != "" {
				out.WriteByte(' ')
				out.WriteString(d.Value)
			}
			out.WriteByte('\n')
		}
		out.WriteString(body.String())
	}
	res.Source = out.String()
	return res, nil
}

// include appends file to out with its #include directives expanded. stack holds
// the files currently being expanded.
func (p *preProcessor) include(file string, out *strings.Builder, res *Result, stack []string) error {
	for _, f := range stack {
		if f == file {
			return fmt.Errorf("shader: include cycle: %s -> %s", strings.Join(stack, " -> "), file)
		}
	}
	if len(stack) >= maxIncludeDepth {
		return fmt.Errorf("shader: include depth exceeded at %s", file)
	}

	data, err := fs.ReadFile(p.fsys, file)
	if err != nil {
		return fmt.Errorf("shader: failed to read %s: %w", file, err)
	}
	res.Files = append(res.Files, file)
	stack = append(stack, file)

	for i, line := range strings.Split(string(data), "\n") {
		target, ok, err := parseInclude(line)
		if err != nil {
			return fmt.Errorf("shader: %s line %d: %w", file, i+1, err)
		}
		if !ok {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}
		if err := p.include(p.resolve(file, target), out, res, stack); err != nil {
			return err
		}
	}
	return nil
}

// resolve looks target up next to from first, then at the file system root.
func (p *preProcessor) resolve(from, target string) string {
	local := path.Join(path.Dir(from), target)
	if _, err := fs.Stat(p.fsys, local); err == nil {
		return local
	}
	return path.Clean(target)
}

// parseInclude recognizes `#include "file"` and `#include <file>`.
func parseInclude(line string) (string, bool, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "#include")
	if !ok {
		return "", false, nil
	}
	rest = strings.TrimSpace(rest)
	if len(rest) < 2 {
		return "", false, fmt.Errorf("malformed #include")
	}
	open, closing := rest[0], rest[len(rest)-1]
	if !(open == '"' && closing == '"') && !(open == '<' && closing == '>') {
		return "", false, fmt.Errorf("malformed #include %s", rest)
	}
	return rest[1 : len(rest)-1], true, nil
}

// wgslConst declares a define with a numeric value as a WGSL constant so shader
// code can use it. Name-only and non-numeric defines only drive conditionals.
func wgslConst(d Define) string {
	if d.Value == "" {
		return ""
	}
	if _, err := strconv.ParseInt(d.Value, 10, 32); err == nil {
		return fmt.Sprintf("const %s: i32 = %s;", d.Name, d.Value)
	}
	if _, err := strconv.ParseFloat(d.Value, 32); err == nil {
		value := d.Value
		if !strings.ContainsAny(value, ".eE") {
			value += ".0"
		}
		return fmt.Sprintf("const %s: f32 = %s;", d.Name, value)
	}
	return ""
}

// condFrame is one open conditional block.
type condFrame struct {
	parentActive bool
	taken        bool
	active       bool
	sawElse      bool
}

// evaluateConditionals strips inactive #ifdef/#ifndef/#if/#elif/#else blocks.
// #define and #undef lines in active code update the define set and are removed.
func evaluateConditionals(source string, defines ShaderDefines) (string, error) {
	set := make(map[string]string, len(defines))
	for _, d := range defines {
		set[d.Name] = d.Value
	}

	var stack []condFrame
	active := true
	var out strings.Builder
	lines := strings.Split(strings.TrimSuffix(source, "\n"), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			if active {
				out.WriteString(line)
				out.WriteByte('\n')
			}
			continue
		}
		directive, arg, _ := strings.Cut(trimmed[1:], " ")
		arg = strings.TrimSpace(arg)

		switch directive {
		case "ifdef", "ifndef", "if":
			var cond bool
			switch directive {
			case "ifdef":
				_, cond = set[arg]
			case "ifndef":
				_, cond = set[arg]
				cond = !cond
			default:
				v, err := evalCondition(arg, set)
				if err != nil {
					return "", fmt.Errorf("line %d: %w", i+1, err)
				}
				cond = v
			}
			stack = append(stack, condFrame{parentActive: active, taken: cond, active: active && cond})
			active = active && cond

		case "elif":
			if len(stack) == 0 || stack[len(stack)-1].sawElse {
				return "", fmt.Errorf("line %d: #elif without #if", i+1)
			}
			top := &stack[len(stack)-1]
			cond, err := evalCondition(arg, set)
			if err != nil {
				return "", fmt.Errorf("line %d: %w", i+1, err)
			}
			top.active = top.parentActive && !top.taken && cond
			top.taken = top.taken || cond
			active = top.active

		case "else":
			if len(stack) == 0 || stack[len(stack)-1].sawElse {
				return "", fmt.Errorf("line %d: #else without #if", i+1)
			}
			top := &stack[len(stack)-1]
			top.sawElse = true
			top.active = top.parentActive && !top.taken
			top.taken = true
			active = top.active

		case "endif":
			if len(stack) == 0 {
				return "", fmt.Errorf("line %d: #endif without #if", i+1)
			}
			active = stack[len(stack)-1].parentActive
			stack = stack[:len(stack)-1]

		case "define":
			if active {
				name, value, _ := strings.Cut(arg, " ")
				set[name] = strings.TrimSpace(value)
			}

		case "undef":
			if active {
				delete(set, arg)
			}

		default:
			if active {
				out.WriteString(line)
				out.WriteByte('\n')
			}
		}
	}
	if len(stack) != 0 {
		return "", fmt.Errorf("%d unterminated conditional block(s)", len(stack))
	}
	return out.String(), nil
}

// evalCondition evaluates an #if expression made of defined(NAME), bare names,
// integer literals, `!`, `&&` and `||`. `&&` binds tighter than `||`.
func evalCondition(expr string, set map[string]string) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return false, fmt.Errorf("empty #if expression")
	}
	for _, or := range strings.Split(expr, "||") {
		all := true
		for _, and := range strings.Split(or, "&&") {
			v, err := evalTerm(strings.TrimSpace(and), set)
			if err != nil {
				return false, err
			}
			all = all && v
		}
		if all {
			return true, nil
		}
	}
	return false, nil
}

func evalTerm(term string, set map[string]string) (bool, error) {
	if rest, ok := strings.CutPrefix(term, "!"); ok {
		v, err := evalTerm(strings.TrimSpace(rest), set)
		return !v, err
	}
	if rest, ok := strings.CutPrefix(term, "defined"); ok {
		rest = strings.TrimSpace(rest)
		rest = strings.TrimSuffix(strings.TrimPrefix(rest, "("), ")")
		_, ok := set[strings.TrimSpace(rest)]
		return ok, nil
	}
	if n, err := strconv.Atoi(term); err == nil {
		return n != 0, nil
	}
	if term == "" {
		return false, fmt.Errorf("malformed #if expression")
	}
	// A bare name is true when defined to a non-zero value, as in C.
	value, ok := set[term]
	if !ok {
		return false, nil
	}
	n, err := strconv.Atoi(value)
	return err != nil || n != 0, nil
}
