package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"farmview.ai/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List market items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd.Context())
			cat, err := loadCatalog(a.cfg.Catalog.Path)
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), cat, catalog.ParseCategory(category))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "ALL", "ALL, LAND, EQUIPMENT or UPGRADE")
	return cmd
}

func printCatalog(out io.Writer, cat *catalog.Catalog, c catalog.Category) {
	id := color.New(color.Bold)
	price := color.New(color.FgGreen)
	muted := color.New(color.FgHiBlack)
	for _, it := range cat.Filter(c) {
		fmt.Fprintf(out, "%s %-12s %-14s %s  %s\n",
			it.Icon, id.Sprint(it.ID), it.Name, price.Sprintf("$%6.0f", it.Price), muted.Sprint(it.Category))
		if it.Description != "" {
			fmt.Fprintf(out, "   %s\n", muted.Sprint(it.Description))
		}
	}
}
