package emit

import (
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// GoName turns a native name into an exported Go identifier by title-casing
// each underscore-separated part: "VROverlay_FindOverlay" → "VROverlayFindOverlay",
// "KHR_draw_indirect_count" → "KHRDrawIndirectCount".
func GoName(s string) string {
	// A Caser keeps state; emitters run concurrently, so make one per call.
	title := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' }) {
		b.WriteString(title.String(part))
	}
	return b.String()
}

// ExportName upper-cases the first letter and keeps the rest of the native
// spelling, for enum values and constants.
func ExportName(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	switch {
	case n == 0:
		return s
	case r == '_':
		return "X" + s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// LowerCamel lower-cases the leading capital run of GoName(s):
// "VROverlay" → "vrOverlay", "KHRDrawIndirectCount" → "khrDrawIndirectCount".
func LowerCamel(s string) string {
	r := []rune(GoName(s))
	n := 0
	for n < len(r) && unicode.IsUpper(r[n]) {
		n++
	}
	switch {
	case n == 0:
	case n == 1 || n == len(r):
		for i := 0; i < n; i++ {
			r[i] = unicode.ToLower(r[i])
		}
	default:
		for i := 0; i < n-1; i++ {
			r[i] = unicode.ToLower(r[i])
		}
	}
	return string(r)
}

// generated code declares these locals; parameters must not shadow them.
var reservedLocals = map[string]bool{
	"err": true, "size": true, "ret": true, "res": true, "ptr": true, "capacity": true,
	"len": true, "native": true, "unsafe": true, "nil": true, "true": true, "false": true,
	"string": true, "byte": true, "bool": true, "int": true, "uint32": true,
	"error": true, "uintptr": true, "int8": true, "uint8": true, "int16": true, "uint16": true,
	"int32": true, "int64": true, "uint64": true, "float32": true, "float64": true,
}

// ParamName escapes native parameter names that collide with Go keywords or
// with names the generated wrappers use.
func ParamName(s string) string {
	if token.IsKeyword(s) || reservedLocals[s] {
		return s + "_"
	}
	return s
}
