package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"wedding-registry/internal/export"
	"wedding-registry/internal/files"
	"wedding-registry/internal/models"
)

func (a *app) fileManager() *files.Manager {
	return files.NewManager(a.cfg.UploadsDir, a.store, a.log)
}

func (a *app) fileCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "file", Short: "Uploaded wedding files"}

	addCmd := &cobra.Command{
		Use:   "add PATH...",
		Short: "Upload files (10 MB each at most)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := a.fileManager()
			var failed int
			for _, path := range args {
				f, err := m.SaveFile(cmd.Context(), path)
				if err != nil {
					fmt.Fprintf(a.out, "%s: %s\n", filepath.Base(path), err)
					failed++
					continue
				}
				fmt.Fprintf(a.out, "%s: stored as file %d (%s)\n", f.OriginalName, f.ID, f.MimeType)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files were not uploaded", failed, len(args))
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded files",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.store.GetWeddingFiles(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(list)
			}
			a.printFiles(list)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an uploaded file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.fileManager().Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "File %d deleted\n", id)
			return nil
		},
	}

	cmd.AddCommand(addCmd, listCmd, deleteCmd)
	return cmd
}

func (a *app) qrCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "qr", Short: "Payment QR code"}

	setCmd := &cobra.Command{
		Use:   "set IMAGE",
		Short: "Use a PNG, JPEG or WebP image as the payment QR code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer src.Close()

			f, err := a.fileManager().SaveQRCode(cmd.Context(), src, filepath.Base(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Payment QR code saved to %s\n", f.FilePath)
			return nil
		},
	}

	generateCmd := &cobra.Command{
		Use:   "generate PAYLOAD",
		Short: "Render a QR code for a payment link or KHQR string",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.fileManager().GenerateQRCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Payment QR code saved to %s\n", f.FilePath)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current payment QR code",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.store.GetPaymentQRCode(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(f)
			}
			if f == nil {
				fmt.Fprintln(a.out, "No payment QR code")
				return nil
			}
			fmt.Fprintf(a.out, "%s (%s, %d bytes)\n", f.FilePath, f.MimeType, f.FileSize)
			return nil
		},
	}

	cmd.AddCommand(setCmd, generateCmd, showCmd)
	return cmd
}

func (a *app) printFiles(list []models.WeddingFile) {
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No files uploaded.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSLOT\tSIZE\tUPLOADED")
	for _, f := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", f.ID, f.OriginalName, f.MimeType, f.Type, f.FileSize, f.CreatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func (a *app) infoCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "info", Short: "Wedding details"}

	setCmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a wedding detail such as groomName or weddingDate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !models.InfoField(args[0]).IsKnown() {
				a.log.Warn().Str("key", args[0]).Msg("Storing a custom wedding detail")
			}
			if _, err := a.store.SetWeddingInfo(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s saved\n", args[0])
			return nil
		},
	}

	getCmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print one wedding detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, ok, err := a.store.GetWeddingInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s is not set", args[0])
			}
			fmt.Fprintln(a.out, v)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print every wedding detail",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.store.GetAllWeddingInfo(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(info)
			}
			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			for _, f := range models.InfoFields {
				fmt.Fprintf(tw, "%s\t%s\n", f, info.Get(string(f)))
			}
			for k, v := range info.Extra {
				fmt.Fprintf(tw, "%s\t%s\n", k, v)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(setCmd, getCmd, showCmd)
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var output, format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export guests and totals as CSV or Excel",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = "csv"
				if strings.EqualFold(filepath.Ext(output), ".xlsx") {
					format = "xlsx"
				}
			}
			var write func(io.Writer, models.Snapshot) error
			switch strings.ToLower(format) {
			case "csv":
				write = export.WriteCSV
			case "xlsx":
				write = export.WriteXLSX
			default:
				return fmt.Errorf("unknown export format %q", format)
			}

			snap, err := a.store.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return write(a.out, snap)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := write(f, snap); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			a.log.Info().Str("path", output).Str("format", format).Int("guests", len(snap.Guests)).Msg("Registry exported")
			fmt.Fprintf(a.out, "Exported %d guests to %s\n", len(snap.Guests), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to FILE instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "", "csv or xlsx (default from the output extension, else csv)")
	return cmd
}
