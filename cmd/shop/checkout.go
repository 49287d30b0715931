package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/niksmo/storefront/internal/core/checkout"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/phone"
	"github.com/spf13/cobra"
)

var errOrderRejected = errors.New("order is not placed")

func newPhoneCmd(s *shop) *cobra.Command {
	return &cobra.Command{
		Use:   "phone [number]",
		Short: "Show or enter the phone number for checkout",
		Long: `Without arguments prints the saved phone number.

With a number, focuses the phone field and types the number into it key by
key, so the saved value follows the +7 (xxx) xxx-xx-xx mask. The field
starts with +7 ( already filled in: type the ten digits after the country
code. A leading 7 is taken as the first digit of the area code. Keys other
than digits are ignored and anything beyond eleven digits is dropped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxOf(cmd)
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				fmt.Fprintln(out, phone.Pretty(s.store.Phone(ctx)))
				return nil
			}

			value := typePhone(args[0])
			if err := s.store.SetPhone(ctx, value); err != nil {
				return err
			}
			fmt.Fprintln(out, value)
			if !phone.Valid(value) {
				fmt.Fprintln(out, checkout.MsgPhoneInvalid)
			}
			return nil
		},
	}
}

// typePhone focuses an empty phone field and feeds the digit keys of raw
// into it one at a time.
func typePhone(raw string) string {
	field := phone.Focus("")
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		field = phone.Input(field, field+string(r))
	}
	return field
}

func newCheckoutCmd(s *shop) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Place an order with the saved cart and phone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o := checkout.New(s.api, s.store)

			res, err := o.Submit(ctxOf(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			if res.Status != checkout.StatusSuccess {
				return errOrderRejected
			}
			return nil
		},
	}
}

func newHealthCmd(s *shop) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the storefront API answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !s.api.HealthCheck(ctxOf(cmd)) {
				fmt.Fprintln(cmd.OutOrStdout(), "unavailable")
				return errors.New("storefront API is unavailable")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newDemandCmd(s *shop) *cobra.Command {
	return &cobra.Command{
		Use:   "demand <product-id>",
		Short: "Show how many units of a product were ordered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseInt("product id", args[0])
			if err != nil {
				return err
			}

			endpoint := fmt.Sprintf("/products/%d/demand", id)
			data, err := s.api.Forward(ctxOf(cmd), http.MethodGet, endpoint, nil, 0)
			if err != nil {
				return fmt.Errorf("failed to load demand: %w", err)
			}

			var d domain.ProductDemand
			if err := json.Unmarshal(data, &d); err != nil {
				return fmt.Errorf("failed to load demand: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"product %d: %d ordered in %d order lines\n", d.ProductID, d.Quantity, d.Lines,
			)
			return nil
		},
	}
}
