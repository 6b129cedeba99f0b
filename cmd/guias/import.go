package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-guias-backend/internal/domain"
	"github.com/tbourn/go-guias-backend/internal/intake"
)

func (a *app) importCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Admit the codes of a scanner export",
		Long: `Reads a scanner export (one code per line, pipe tables or comma/semicolon
separated rows) and admits every code into the ledger of --date, in order.
Reads stdin when no file or "-" is given. Rejected codes are listed by their
position among the parsed codes; the command fails only when the batch
itself cannot be processed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDate(date)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			codes, err := intake.ParseLines(in)
			if err != nil {
				return fmt.Errorf("read export: %w", err)
			}

			ctx := cmd.Context()
			b, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			results, err := b.svc.AdmitBatch(ctx, day, codes)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			admitted := 0
			for i, r := range results {
				if r.Err != nil {
					fmt.Fprintf(out, "code %d %q: %v\n", i+1, r.Raw, r.Err)
					continue
				}
				admitted++
			}
			if day.IsZero() {
				day = b.svc.Today()
			}
			fmt.Fprintf(out, "%s: %d admitted, %d rejected\n", domain.FormatDay(day), admitted, len(results)-admitted)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "working date YYYY-MM-DD (default today)")
	return cmd
}
