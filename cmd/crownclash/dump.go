package main

import (
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

func (a *app) dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump [prefix]",
		Short: "Print the raw store contents.",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var prefix string
			if len(args) == 1 {
				prefix = args[0]
			}
			pairs, err := a.store.Dump(prefix)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "=== Store contents (%s) ===\n\n", a.cfg.Storage.Prefix)
			for _, p := range pairs {
				fmt.Fprintf(out, "Key:   %s\n", p.Key)
				if utf8.Valid(p.Value) {
					fmt.Fprintf(out, "Value: %s\n", p.Value)
				} else {
					fmt.Fprintf(out, "Value: %s\n", hex.EncodeToString(p.Value))
				}
				fmt.Fprintf(out, "Size:  %d bytes\n", len(p.Value))
				fmt.Fprintln(out, "---")
			}
			fmt.Fprintf(out, "\nTotal keys found: %d\n", len(pairs))
			return nil
		}),
	}
}
