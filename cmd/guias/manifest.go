package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-guias-backend/internal/services"
	"github.com/tbourn/go-guias-backend/internal/sysutil"
)

func (a *app) manifestCmd() *cobra.Command {
	var date, format, out string
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Render the carrier manifest of a date to a file",
		Example: `  guias manifest
  guias manifest --date 2024-03-05 --format xlsx
  guias manifest --date 2024-03-05 --out - > manifiesto.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			f, err := services.ParseFormat(format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			b, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			var buf bytes.Buffer
			res, err := b.svc.Manifest(ctx, day, f, &buf)
			if err != nil {
				return err
			}

			path := sysutil.FirstNonEmpty(out, res.Filename)
			if path == "-" {
				_, err = buf.WriteTo(cmd.OutOrStdout())
				return err
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return err
			}
			a.log.Info().
				Str("file", path).
				Int("pages", res.Pages).
				Int("records", res.Records).
				Str("archive", res.ArchiveURL).
				Msg("manifest written")
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d pages, %d records)\n", path, res.Pages, res.Records)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "working date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&format, "format", "pdf", "pdf or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", `output path, "-" for stdout (default manifiesto-<date>.<format>)`)
	return cmd
}
