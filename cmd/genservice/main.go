// Command genservice scaffolds a new CRUD service source file.
//
//	genservice -name todo -dir internal/services/todo
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pionia-project/pionia/internal/generator"
)

func main() {
	name := flag.String("name", "", "short service name, e.g. todo or userProfile")
	dir := flag.String("dir", ".", "target directory for the generated file")
	pkg := flag.String("package", "", "package name for the generated file (defaults to the directory name)")
	table := flag.String("table", "", "database table the service is bound to (defaults to the service name)")
	force := flag.Bool("force", false, "overwrite an existing file")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "genservice: -name is required")
		flag.Usage()
		os.Exit(2)
	}

	result, err := generator.Generate(generator.Options{
		Name:      *name,
		TargetDir: *dir,
		Package:   *pkg,
		Table:     *table,
		Force:     *force,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "genservice: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s (%s) at %s\n", result.TypeName, result.ServiceName, result.Path)
}
