// Package main provides the datatoolkit CLI: convert tabular data files
// between JSON, CSV and Excel, preview their contents, or serve the HTTP
// API.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"datatoolkit/internal/config"
	"datatoolkit/internal/logging"
	"datatoolkit/internal/web"
	"datatoolkit/pkg/convert"
)

var (
	outputPath   string
	targetFormat string
	page         int
	pageSize     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "datatoolkit",
		Short: "Convert tabular data files between JSON, CSV and Excel",
	}

	convertCmd := &cobra.Command{
		Use:   "convert [input file]",
		Short: "Convert a file to another format",
		Args:  cobra.ExactArgs(1),
		RunE:  runConvert,
	}
	convertCmd.Flags().StringVarP(&targetFormat, "to", "t", "", "Target format: json, csv, xlsx (required)")
	convertCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: input name with new extension)")
	_ = convertCmd.MarkFlagRequired("to")

	previewCmd := &cobra.Command{
		Use:   "preview [input file]",
		Short: "Print a page of a file's rows",
		Args:  cobra.ExactArgs(1),
		RunE:  runPreview,
	}
	previewCmd.Flags().IntVar(&page, "page", 1, "Page number (1-indexed)")
	previewCmd.Flags().IntVar(&pageSize, "page-size", 10, "Rows per page")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion HTTP API",
		RunE:  runServe,
	}

	rootCmd.AddCommand(convertCmd, previewCmd, serveCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	target, err := convert.ParseTarget(targetFormat)
	if err != nil {
		return err
	}

	out, err := convert.Convert(content, filepath.Base(inputPath), target)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	dst := outputPath
	if dst == "" {
		dst = filepath.Join(filepath.Dir(inputPath), out.Filename)
	}
	if err := os.WriteFile(dst, out.Data, 0644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", dst, len(out.Data))
	return nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	preview, err := convert.DetectAndPreview(content, filepath.Base(args[0]), page, pageSize)
	if err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "detected: %s, %d rows total\n", preview.Type, preview.Page.TotalRows)
	fmt.Fprintln(w, strings.Join(preview.Columns, "\t"))
	for _, row := range preview.Page.Rows {
		cells := make([]string, len(preview.Columns))
		for i, col := range preview.Columns {
			v := row.Get(col)
			if v.IsNull() {
				cells[i] = ""
			} else {
				cells[i] = v.Str
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	srv := web.NewServer(cfg)
	fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", cfg.Addr)
	return srv.ListenAndServe()
}
