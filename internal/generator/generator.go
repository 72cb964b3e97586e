// Package generator scaffolds new service source files from embedded
// templates. It is an offline tool and plays no part in request
// dispatch.
package generator

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const serviceSuffix = "Service"

// Options controls what gets generated and where.
type Options struct {
	// Name is the short service name, e.g. "todo" or "userProfile".
	Name string
	// TargetDir is the directory the file is written into. Created if
	// it does not exist.
	TargetDir string
	// Package is the Go package name for the generated file. Defaults
	// to the base name of TargetDir.
	Package string
	// Table is the database table the service is bound to. Defaults to
	// the lower-cased service name.
	Table string
	// Force overwrites an existing file.
	Force bool
}

// Result describes what a Generate call produced.
type Result struct {
	TypeName    string
	ServiceName string
	Path        string
}

type templateData struct {
	Package     string
	TypeName    string
	ServiceName string
	Table       string
}

// Generate renders the service template and writes it under
// opts.TargetDir. It refuses to overwrite an existing file unless
// opts.Force is set.
func Generate(opts Options) (*Result, error) {
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		return nil, fmt.Errorf("service name is required")
	}

	typeName := CanonicalTypeName(name)
	serviceName := ServiceName(name)

	pkg := opts.Package
	if pkg == "" {
		pkg = packageNameFor(opts.TargetDir)
	}
	table := opts.Table
	if table == "" {
		table = strings.ToLower(serviceName)
	}

	if err := os.MkdirAll(opts.TargetDir, 0755); err != nil {
		return nil, fmt.Errorf("create target directory %s: %w", opts.TargetDir, err)
	}

	outPath := filepath.Join(opts.TargetDir, fileNameFor(typeName))
	if !opts.Force {
		if _, err := os.Stat(outPath); err == nil {
			return nil, fmt.Errorf("file %s already exists (use --force to overwrite)", outPath)
		}
	}

	rendered, err := render("templates/service.go.tmpl", templateData{
		Package:     pkg,
		TypeName:    typeName,
		ServiceName: serviceName,
		Table:       table,
	})
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(outPath, rendered, 0644); err != nil {
		return nil, fmt.Errorf("write file %s: %w", outPath, err)
	}

	return &Result{
		TypeName:    typeName,
		ServiceName: serviceName,
		Path:        outPath,
	}, nil
}

func render(path string, data templateData) ([]byte, error) {
	tmpl, err := template.ParseFS(templatesFS, path)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render template %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// CanonicalTypeName derives the exported Go type name from a short
// service name. "todo" becomes "TodoService"; a name that already
// carries the suffix is kept as is apart from case normalization.
func CanonicalTypeName(name string) string {
	base := strings.TrimSpace(name)
	if strings.EqualFold(suffixOf(base), serviceSuffix) {
		base = base[:len(base)-len(serviceSuffix)]
	}
	return exportName(base) + serviceSuffix
}

// ServiceName derives the registry name clients use in the request
// envelope. It is the canonical type name without the suffix, in
// lower camel case: "UserProfile" becomes "userProfile".
func ServiceName(name string) string {
	base := strings.TrimSpace(name)
	if strings.EqualFold(suffixOf(base), serviceSuffix) {
		base = base[:len(base)-len(serviceSuffix)]
	}
	exported := exportName(base)
	if exported == "" {
		return ""
	}
	runes := []rune(exported)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func suffixOf(name string) string {
	if len(name) < len(serviceSuffix) {
		return ""
	}
	return name[len(name)-len(serviceSuffix):]
}

// exportName converts a name with dashes, underscores, or spaces into
// PascalCase.
func exportName(name string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range name {
		switch {
		case r == '-' || r == '_' || r == ' ':
			upperNext = true
		case upperNext:
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fileNameFor converts a type name into a snake_case file name, e.g.
// "UserProfileService" becomes "user_profile_service.go".
func fileNameFor(typeName string) string {
	var b strings.Builder
	for i, r := range typeName {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String() + ".go"
}

func packageNameFor(dir string) string {
	base := filepath.Base(filepath.Clean(dir))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "services"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "services"
	}
	return b.String()
}
