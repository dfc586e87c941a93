package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/prodrec/catalog"
	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/feature"
	"github.com/rushteam/prodrec/server"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fit and persist a fresh artifact generation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cat, backend, as, err := openArtifacts(cmd.Context(), cfg)
		if err != nil {
			return describe(err)
		}
		defer backend.Close()

		a, err := as.BuildAndSave(cmd.Context(), cat)
		if err != nil {
			return describe(err)
		}
		fmt.Printf("generation %s: %d products, %d dims, mode %s, stored in %s\n",
			a.Generation, len(a.Names), a.Dim(), a.Options.Mode, backend.Name())

		if dir, _ := cmd.Flags().GetString("export-metadata"); dir != "" {
			meta := a.Encoder.Metadata(a.Generation, a.CreatedAt)
			if err := feature.ExportMetadata(dir, meta, a.Encoder.Scaler()); err != nil {
				return err
			}
			fmt.Printf("feature metadata written to %s\n", dir)
		}
		return nil
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <product name>",
	Short: "Print the most similar products",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("n")
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return describe(err)
		}
		defer a.Close()

		res, err := a.service.RecommendScene(cmd.Context(), "cli", args[0], n)
		if err != nil {
			return err
		}
		items, products := res.Items, res.Products
		if asJSON {
			out := make([]map[string]any, 0, len(products))
			for i := range products {
				attrs := products[i].Attributes()
				attrs["score"] = items[i].Score
				out = append(out, attrs)
			}
			return json.NewEncoder(os.Stdout).Encode(out)
		}
		if len(products) == 0 {
			fmt.Printf("no recommendations for %q\n", args[0])
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tPRODUCT\tBRAND\tCATEGORY\tPRICE\tSCORE")
		for i, p := range products {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\t%.4f\n", i+1, p.Name, p.Brand, p.Category, p.PriceUSD, items[i].Score)
		}
		return tw.Flush()
	},
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List catalog products, optionally filtered",
	RunE: func(cmd *cobra.Command, args []string) error {
		expr, _ := cmd.Flags().GetString("filter")
		brand, _ := cmd.Flags().GetString("brand")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cat, err := catalog.LoadCSV(cfg.Catalog.Path)
		if err != nil {
			return describe(err)
		}

		products := catalog.Filter(cat, catalog.Criteria{Brand: brand})
		if expr != "" {
			if products, err = catalog.Expr(core.NewCatalog(products), expr); err != nil {
				return err
			}
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PRODUCT\tBRAND\tCATEGORY\tSKIN\tPRICE\tRATING")
		for _, p := range products {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%.1f\n", p.Name, p.Brand, p.Category, p.SkinType, p.PriceUSD, p.Rating)
		}
		return tw.Flush()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recommendations over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return describe(err)
		}
		defer a.Close()

		reload := func(context.Context) (*core.Catalog, error) {
			return catalog.LoadCSV(cfg.Catalog.Path)
		}
		return describe(server.New(a.service, reload, cfg.Server).Run(cmd.Context()))
	},
}

func init() {
	buildCmd.Flags().String("export-metadata", "", "also write feature_meta.json and feature_scaler.json to this directory")
	recommendCmd.Flags().IntP("n", "n", 0, "number of recommendations (default recommend.default_n)")
	recommendCmd.Flags().Bool("json", false, "print JSON")
	productsCmd.Flags().String("filter", "", `CEL expression, e.g. 'product.price_usd < 20.0 && product.cruelty_free == true'`)
	productsCmd.Flags().String("brand", "", "only this brand")
	serveCmd.Flags().String("addr", "", "listen address, overrides server.addr")
}
