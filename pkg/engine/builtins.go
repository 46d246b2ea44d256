package engine

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/depthmesh/pkg/mesher"
	"github.com/chazu/depthmesh/pkg/project"
	"github.com/chazu/depthmesh/pkg/tessellate"
	"github.com/chazu/depthmesh/pkg/weld"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms pipeline script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: depth-scale -> depth_scale
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Trailing keyword with no value.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// unknownKeyword returns an error naming the first keyword not in allowed.
func (pa kwArgs) unknownKeyword(fn string, allowed ...string) error {
	for k := range pa.kw {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: unknown keyword :%s", fn, k)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toFloat32 is toFloat64 narrowed to the mesh coordinate type.
func toFloat32(s zygo.Sexp) (float32, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected finite number, got %v", f)
	}
	return float32(f), nil
}

// toInt extracts an integer from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a boolean. A trailing keyword with no value counts as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_dense) and plain strings ("dense").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVec3 reads three positional numbers, or a single number used for all
// three components.
func toVec3(fn string, args []zygo.Sexp) ([3]float32, error) {
	var v [3]float32
	switch len(args) {
	case 1:
		f, err := toFloat32(args[0])
		if err != nil {
			return v, fmt.Errorf("%s: %w", fn, err)
		}
		return [3]float32{f, f, f}, nil
	case 3:
		for i, a := range args {
			f, err := toFloat32(a)
			if err != nil {
				return v, fmt.Errorf("%s: component %d: %w", fn, i, err)
			}
			v[i] = f
		}
		return v, nil
	}
	return v, fmt.Errorf("%s: expected 1 or 3 numbers, got %d", fn, len(args))
}

// axisArgs reads :x :y :z keywords into a vector, leaving absent axes zero.
func axisArgs(fn string, pa kwArgs) ([3]float32, error) {
	var v [3]float32
	for i, axis := range []string{"x", "y", "z"} {
		s, ok := pa.kw[axis]
		if !ok {
			continue
		}
		f, err := toFloat32(s)
		if err != nil {
			return v, fmt.Errorf("%s: %s: %w", fn, axis, err)
		}
		v[i] = f
	}
	return v, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the pipeline builtins into a zygomys environment.
// The builtins update cfg in place as the script runs, so later calls
// override earlier ones, except placement calls which accumulate.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, cfg *tessellate.Config) {

	// -----------------------------------------------------------------------
	// (mode :dense) or (mode :filtered)
	// -----------------------------------------------------------------------
	env.AddFunction("mode", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("mode: expected one argument, got %d", len(args))
		}
		s, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mode: %w", err)
		}
		m, err := mesher.ParseMode(s)
		if err != nil {
			return zygo.SexpNull, err
		}
		cfg.Mode = m
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (weld :precision 6 :compact true :enabled true), or (weld false)
	// -----------------------------------------------------------------------
	env.AddFunction("weld", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknownKeyword("weld", "precision", "compact", "enabled"); err != nil {
			return zygo.SexpNull, err
		}
		cfg.Weld = true

		if len(pa.positional) > 1 {
			return zygo.SexpNull, fmt.Errorf("weld: expected at most one positional argument")
		}
		if len(pa.positional) == 1 {
			b, err := toBool(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("weld: %w", err)
			}
			cfg.Weld = b
		}
		if v, ok := pa.kw["enabled"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("weld: enabled: %w", err)
			}
			cfg.Weld = b
		}
		if v, ok := pa.kw["precision"]; ok {
			p, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("weld: precision: %w", err)
			}
			if p < 0 || p > weld.MaxPrecision {
				return zygo.SexpNull, fmt.Errorf("weld: precision %d outside [0, %d]", p, weld.MaxPrecision)
			}
			cfg.Precision = p
		}
		if v, ok := pa.kw["compact"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("weld: compact: %w", err)
			}
			cfg.Compact = b
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (workers 4)
	// -----------------------------------------------------------------------
	env.AddFunction("workers", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("workers: expected one argument, got %d", len(args))
		}
		n, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("workers: %w", err)
		}
		if n < 0 {
			return zygo.SexpNull, fmt.Errorf("workers: must not be negative, got %d", n)
		}
		cfg.Workers = n
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (normals) or (normals false)
	// -----------------------------------------------------------------------
	env.AddFunction("normals", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		switch len(args) {
		case 0:
			cfg.Normals = true
		case 1:
			b, err := toBool(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("normals: %w", err)
			}
			cfg.Normals = b
		default:
			return zygo.SexpNull, fmt.Errorf("normals: expected at most one argument, got %d", len(args))
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (name "scan-01")
	// -----------------------------------------------------------------------
	env.AddFunction("name", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("name: expected one argument, got %d", len(args))
		}
		s, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("name: %w", err)
		}
		cfg.Name = s
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (depth-scale 0.001)
	// -----------------------------------------------------------------------
	env.AddFunction("depth_scale", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("depth-scale: expected one argument, got %d", len(args))
		}
		f, err := toFloat32(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("depth-scale: %w", err)
		}
		cfg.DepthScale = f
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (flat)
	// -----------------------------------------------------------------------
	env.AddFunction("flat", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 0 {
			return zygo.SexpNull, fmt.Errorf("flat: takes no arguments")
		}
		cfg.Projection = tessellate.Flat
		cfg.Intrinsics = nil
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (gl-flip) or (gl-flip :scale 0.1)
	// -----------------------------------------------------------------------
	env.AddFunction("gl_flip", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknownKeyword("gl-flip", "scale"); err != nil {
			return zygo.SexpNull, err
		}
		if v, ok := pa.kw["scale"]; ok {
			f, err := toFloat32(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("gl-flip: scale: %w", err)
			}
			cfg.DepthScale = f
		}
		cfg.Projection = tessellate.GL
		cfg.Intrinsics = nil
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (pinhole :fx 525 :fy 525 :cx 319.5 :cy 239.5)
	// Omitted values default from the grid size when the mesh is built.
	// -----------------------------------------------------------------------
	env.AddFunction("pinhole", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknownKeyword("pinhole", "fx", "fy", "cx", "cy"); err != nil {
			return zygo.SexpNull, err
		}
		in := &project.Intrinsics{}
		for _, f := range []struct {
			key string
			dst *float32
		}{
			{"fx", &in.Fx},
			{"fy", &in.Fy},
			{"cx", &in.Cx},
			{"cy", &in.Cy},
		} {
			v, ok := pa.kw[f.key]
			if !ok {
				continue
			}
			x, err := toFloat32(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("pinhole: %s: %w", f.key, err)
			}
			*f.dst = x
		}
		if in.Fx < 0 || in.Fy < 0 {
			return zygo.SexpNull, fmt.Errorf("pinhole: focal lengths must be positive")
		}
		cfg.Projection = tessellate.Pinhole
		cfg.Intrinsics = in
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (translate 10 0 -5)
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("translate: expected 3 numbers, got %d", len(args))
		}
		v, err := toVec3("translate", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		for i := range v {
			cfg.Placement.Translate[i] += v[i]
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (rotate :x 90 :z 45), angles in degrees
	// -----------------------------------------------------------------------
	env.AddFunction("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknownKeyword("rotate", "x", "y", "z"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("rotate: expected :x :y :z keywords")
		}
		v, err := axisArgs("rotate", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		for i := range v {
			cfg.Placement.Rotate[i] += v[i]
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (scale 2) or (scale 1 1 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("scale", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := toVec3("scale", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		for i := range v {
			if v[i] == 0 {
				return zygo.SexpNull, fmt.Errorf("scale: component %d is zero", i)
			}
			if cfg.Placement.Scale[i] == 0 {
				cfg.Placement.Scale[i] = 1
			}
			cfg.Placement.Scale[i] *= v[i]
		}
		return zygo.SexpNull, nil
	})
}
