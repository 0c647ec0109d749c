package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

const esbuildModule = "github.com/evanw/esbuild"

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the scaffold version along with the bundler and Go toolchain it was built with.`,
		Run: func(cmd *cobra.Command, args []string) {
			writeVersion(cmd.OutOrStdout(), short)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}

func writeVersion(w io.Writer, short bool) {
	if short {
		fmt.Fprintln(w, version)
		return
	}

	fmt.Fprintf(w, "scaffold %s (%s, built %s)\n", version, commit, date)
	fmt.Fprintf(w, "  esbuild  %s\n", bundlerVersion())
	fmt.Fprintf(w, "  go       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// bundlerVersion reports the esbuild module version linked into the binary.
func bundlerVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range bi.Deps {
		if dep.Path == esbuildModule {
			return dep.Version
		}
	}
	return "unknown"
}
