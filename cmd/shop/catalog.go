package main

import (
	"fmt"
	"html"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/microcosm-cc/bluemonday"
	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/spf13/cobra"
)

// plain strips markup before it reaches the terminal.
var plain = bluemonday.StrictPolicy()

func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(plain.Sanitize(s)))
}

func newProductsCmd(s *shop) *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		Long: `List the catalog page by page.

The first page is always shown; --pages loads more pages the way scrolling
to the end of the list does. Quantities already in the cart are shown next
to each product.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.listProducts(cmd, pages)
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to show")
	return cmd
}

func (s *shop) listProducts(cmd *cobra.Command, pages int) error {
	ctx := ctxOf(cmd)

	first, err := s.api.GetProducts(ctx, 1, s.cfg.PageSize)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	pager, err := catalog.NewPager(
		s.api, first.Items, first.Total, catalog.PageSizeOpt(s.cfg.PageSize),
	)
	if err != nil {
		return err
	}

	for i := 1; i < pages; i++ {
		if !pager.OnVisible(ctx, 1) {
			break
		}
	}

	st := pager.State()
	inCart := s.store.State(ctx)

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRICE\tIN CART")
	for _, p := range st.Products {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n",
			p.ID, plainText(p.Title), cart.FormatPrice(p.Price), inCart[p.ID],
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nshown %d of %d\n", len(st.Products), st.Total)
	if st.HasMore {
		fmt.Fprintf(out, "more with --pages %d\n", st.Page+1)
	}
	return nil
}

func newReviewsCmd(s *shop) *cobra.Command {
	return &cobra.Command{
		Use:   "reviews",
		Short: "Show customer reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reviews, err := s.api.GetReviews(ctxOf(cmd))
			if err != nil {
				return fmt.Errorf("failed to load reviews: %w", err)
			}
			printReviews(cmd.OutOrStdout(), reviews)
			return nil
		},
	}
}

func printReviews(out io.Writer, reviews []domain.Review) {
	for i, r := range reviews {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "#%d\n%s\n", r.ID, plainText(r.Text))
	}
}
