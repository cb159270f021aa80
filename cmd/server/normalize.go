package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/surveyguy/internal/services"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [TYPE...]",
	Short: "Print the canonical question type for each argument",
	Long:  "Without arguments, lists every canonical question type.",
	RunE: func(cmd *cobra.Command, args []string) error {
		withAliases, _ := cmd.Flags().GetBool("aliases")
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, t := range services.AllCanonicalTypes() {
				if withAliases {
					fmt.Fprintf(out, "%s\t%s\n", t, strings.Join(services.LegacyAliasesOf(t), ", "))
					continue
				}
				fmt.Fprintln(out, t)
			}
			return nil
		}
		for _, raw := range args {
			canonical := services.Normalize(raw)
			mark := ""
			if !services.IsSupported(raw) {
				mark = "\t(unsupported)"
			}
			fmt.Fprintf(out, "%s\t%s%s\n", raw, canonical, mark)
		}
		return nil
	},
}

func init() {
	normalizeCmd.Flags().Bool("aliases", false, "List the accepted spellings of each canonical type")
}
