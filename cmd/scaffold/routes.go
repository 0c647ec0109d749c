package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/scaffold/app"
)

func routesCmd() *cobra.Command {
	var resolve string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		Long: `Print the route table in match order, followed by the not-found
fallback.

Examples:
  scaffold routes
  scaffold routes --resolve=/trade/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := app.NewRouter()
			if err != nil {
				return err
			}

			if resolve != "" {
				m, err := r.Resolve(resolve)
				if err != nil {
					return err
				}
				status := "found"
				switch {
				case m.Redirect:
					status = "redirect to " + m.URL()
				case !m.Found:
					status = "not found"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s)\n", resolve, m.Route.Name, status)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "NAME\tPATH")
			for _, route := range r.Routes() {
				fmt.Fprintf(w, "%s\t%s\n", route.Name, route.Path)
			}
			if nf, ok := r.NotFound(); ok {
				fmt.Fprintf(w, "%s\t%s\n", nf.Name, "*")
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&resolve, "resolve", "", "Show which route a path resolves to")

	return cmd
}
