package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sromero1905/scrapping-link/internal/domain"
	"github.com/sromero1905/scrapping-link/internal/imagesearch"
)

var imagesFlags struct {
	query    string
	category string
	max      int
}

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Search every image provider and print the ranked candidates",
	RunE:  runImages,
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Crawl the configured sites and print the captured items",
	RunE:  runScrape,
}

func init() {
	f := imagesCmd.Flags()
	f.StringVar(&imagesFlags.query, "query", "", "Post text or keywords (required)")
	f.StringVar(&imagesFlags.category, "category", string(domain.CategoryInformational), "Post category")
	f.IntVar(&imagesFlags.max, "max", imagesearch.DefaultMaxResults, "Maximum candidates")

	_ = imagesCmd.MarkFlagRequired("query")
}

func runImages(cmd *cobra.Command, _ []string) error {
	application, err := loadApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer application.Close()

	category, _ := domain.ParseCategory(imagesFlags.category)
	candidates := application.Images(cmd.Context(), imagesFlags.query, category, imagesFlags.max)

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Provider", "Score", "Size", "URL", "Credit"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 5, WidthMax: 70}})
	for i, c := range candidates {
		t.AppendRow(table.Row{i + 1, c.Provider, c.QualityScore, fmt.Sprintf("%dx%d", c.Width, c.Height), c.URL, c.Credit})
	}
	t.AppendFooter(table.Row{"Total", len(candidates), "", "", fmt.Sprintf("Query: %s", imagesFlags.query), ""})
	t.Render()
	return nil
}

func runScrape(cmd *cobra.Command, _ []string) error {
	application, err := loadApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer application.Close()

	items, failures, err := application.Scrape(cmd.Context())
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Source", "Title", "Image", "URL"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 60},
		{Number: 5, WidthMax: 60},
	})
	for i, item := range items {
		t.AppendRow(table.Row{i + 1, item.SourceID, item.Title, item.OriginalImage != nil, item.URL})
	}
	t.AppendFooter(table.Row{"Total", len(items), "", "", fmt.Sprintf("%d site errors", len(failures))})
	t.Render()

	for _, f := range failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", f.Phase, f.Message)
	}
	return nil
}
