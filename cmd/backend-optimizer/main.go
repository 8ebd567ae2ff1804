// Command backend-optimizer runs the module driver over a serialized
// module set and reports each module's digest and any fatal
// diagnostic, grounded on cmd/ailang/main.go's stdlib-flag-plus-color
// CLI style from the teacher.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/sigma-andex/purescript-backend-optimizer/internal/config"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/driver"
)

var (
	Version = "dev"

	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "print version information")
		traceFlag   = flag.Bool("trace", false, "print a one-line run summary to stderr")
		limitFlag   = flag.Int("rewrite-limit", 0, "cap Optimize's iteration count per declaration (0 = default)")
		inputFlag   = flag.String("input", "", "path to a JSON-encoded module set (spec.md §6 input)")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("backend-optimizer %s\n", bold(Version))
		return
	}

	if *inputFlag == "" {
		fmt.Fprintf(os.Stderr, "%s: -input is required\n", red("Error"))
		flag.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(*inputFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	modules, err := driver.DecodeModuleSet(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	opts := config.Default()
	opts.Trace = *traceFlag
	if *limitFlag > 0 {
		opts.RewriteLimit = *limitFlag
	}

	if opts.Trace {
		fmt.Fprintf(os.Stderr, "backend-optimizer: optimizing %d module(s), rewriteLimit=%d\n",
			len(modules), opts.EffectiveRewriteLimit())
	}

	published, impls, err := driver.RunModules(modules, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	for _, m := range published {
		fmt.Printf("%s %s  digest=%s  bindings=%d\n", green("ok"), m.Name.String(), m.Digest, countBindings(m))
	}

	out, err := driver.MarshalImplementations(impls)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func countBindings(m driver.PublishedModule) int {
	n := 0
	for _, g := range m.Groups {
		n += len(g.Binds)
	}
	return n
}
