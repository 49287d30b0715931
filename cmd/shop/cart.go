package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/spf13/cobra"
)

// maxResolvePages bounds the catalog walk done to price the cart.
const maxResolvePages = 50

func newCartCmd(s *shop) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the saved cart",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <product-id> [delta]",
			Short: "Change the quantity of a product by delta (1 by default)",
			Args:  cobra.RangeArgs(1, 2),
			RunE:  s.cartAdd,
		},
		&cobra.Command{
			Use:   "set <product-id> <quantity>",
			Short: "Set the quantity of a product, 0 removes it",
			Args:  cobra.ExactArgs(2),
			RunE:  s.cartSet,
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show cart lines and totals",
			Args:  cobra.NoArgs,
			RunE:  s.cartShow,
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart and forget the phone number",
			Args:  cobra.NoArgs,
			RunE:  s.cartClear,
		},
	)
	return cmd
}

func (s *shop) cartAdd(cmd *cobra.Command, args []string) error {
	id, err := parseInt("product id", args[0])
	if err != nil {
		return err
	}
	delta := 1
	if len(args) == 2 {
		if delta, err = parseInt("delta", args[1]); err != nil {
			return err
		}
	}

	qty, err := s.store.Add(ctxOf(cmd), id, delta)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "product %d: %d in cart\n", id, qty)
	return nil
}

func (s *shop) cartSet(cmd *cobra.Command, args []string) error {
	id, err := parseInt("product id", args[0])
	if err != nil {
		return err
	}
	qty, err := parseInt("quantity", args[1])
	if err != nil {
		return err
	}

	if err := s.store.SetQuantity(ctxOf(cmd), id, qty); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "product %d: %d in cart\n", id, max(qty, 0))
	return nil
}

func (s *shop) cartShow(cmd *cobra.Command, _ []string) error {
	ctx := ctxOf(cmd)
	out := cmd.OutOrStdout()

	state := s.store.State(ctx)
	products := resolveProducts(ctx, s.api, state, s.cfg.PageSize)
	c := cart.New(state, products)

	if c.IsEmpty() {
		fmt.Fprintln(out, "cart is empty")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tQTY\tSUBTOTAL")
	for _, l := range c.Items() {
		title := "(not loaded)"
		if l.Found {
			title = plainText(l.Product.Title)
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n",
			l.ID, title, l.Quantity, cart.FormatPrice(l.Subtotal()),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nitems: %d\ntotal: %s\n", c.TotalItems(), cart.FormatPrice(c.TotalPrice()))
	return nil
}

func (s *shop) cartClear(cmd *cobra.Command, _ []string) error {
	if err := s.store.Clear(ctxOf(cmd)); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "cart is cleared")
	return nil
}

// resolveProducts walks the catalog until every product in state is found
// or the catalog ends. A failed page stops the walk; unresolved lines are
// priced at zero.
func resolveProducts(
	ctx context.Context, fetcher port.ProductsFetcher, state domain.CartState, pageSize int,
) []domain.Product {
	missing := make(map[int]struct{}, len(state))
	for id, qty := range state {
		if qty > 0 {
			missing[id] = struct{}{}
		}
	}

	var found []domain.Product
	for page := 1; len(missing) > 0 && page <= maxResolvePages; page++ {
		res, err := fetcher.GetProducts(ctx, page, pageSize)
		if err != nil {
			return found
		}
		for _, p := range res.Items {
			if _, ok := missing[p.ID]; ok {
				found = append(found, p)
				delete(missing, p.ID)
			}
		}
		if len(res.Items) == 0 || page*pageSize >= res.Total {
			break
		}
	}
	return found
}

func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return n, nil
}
