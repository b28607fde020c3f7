package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"storefront/internal/cart"
	"storefront/internal/model"
)

func newProductsCmd(a *app) *cobra.Command {
	var (
		collection string
		req        model.ListRequest
	)
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List catalog products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				page *model.ProductConnection
				err  error
			)
			if collection != "" {
				page, err = a.svc.CollectionProducts(cmd.Context(), collection, req)
			} else {
				page, err = a.svc.Products(cmd.Context(), req)
			}
			if err != nil {
				return err
			}
			return a.print(page, func(w io.Writer) {
				for i := range page.Products {
					p := &page.Products[i]
					price := ""
					if v := p.DefaultVariant(); v != nil {
						price = v.Price.String()
					}
					fmt.Fprintf(w, "%s%s%s  %s  %s\n", colorBold, p.Title, colorReset, p.Handle, price)
				}
				if page.PageInfo.HasNextPage {
					fmt.Fprintf(w, "%snext page: --after %s%s\n", colorGray, page.PageInfo.EndCursor, colorReset)
				}
			})
		},
	}
	cmd.Flags().StringVar(&collection, "collection", "", "collection handle")
	cmd.Flags().IntVar(&req.First, "first", cart.DefaultPageSize, "page size")
	cmd.Flags().StringVar(&req.After, "after", "", "cursor of the previous page")
	return cmd
}

func newProductCmd(a *app) *cobra.Command {
	var (
		id, handle string
		options    map[string]string
	)
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Show a product and pick a variant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.svc.Product(cmd.Context(), id, handle)
			if err != nil {
				return err
			}
			selected := p.FindVariant(options)
			out := struct {
				Product         *model.Product `json:"product"`
				SelectedVariant *model.Variant `json:"selected_variant"`
			}{p, selected}

			return a.print(out, func(w io.Writer) {
				fmt.Fprintf(w, "%s%s%s (%s)\n", colorBold, p.Title, colorReset, p.ID)
				for _, v := range p.Variants {
					mark := " "
					if selected != nil && v.ID == selected.ID {
						mark = "*"
					}
					avail := ""
					if !v.AvailableForSale {
						avail = colorGray + " sold out" + colorReset
					}
					fmt.Fprintf(w, "%s %s  %s  %s%s\n", mark, v.ID, v.Title, v.Price, avail)
				}
				if selected == nil {
					fmt.Fprintf(w, "%sno variant matches the selected options%s\n", colorRed, colorReset)
				}
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "product ID")
	cmd.Flags().StringVar(&handle, "handle", "", "product handle")
	cmd.Flags().StringToStringVar(&options, "option", nil, "selected option, e.g. Size=M (repeatable)")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:   "add VARIANT_ID",
		Short: "Add a variant to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.page(cmd.Context()).AddItem(cmd.Context(), args[0], quantity)
			if err != nil {
				return err
			}
			return a.printSync(res)
		},
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "units to add")
	return cmd
}

func newQuickAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "quick-add VARIANT_ID",
		Short: "Add one unit of a variant to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.page(cmd.Context()).QuickAdd(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printSync(res)
		},
	}
}

func newCartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.page(cmd.Context()).LoadCart(cmd.Context())
			if model.IsNotFound(res.Err) {
				res.Err = nil
			}
			return a.printSync(res)
		},
	}
}

func newCountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of items in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, remote := a.page(cmd.Context()).CartCount(cmd.Context())
			source := "local"
			if remote {
				source = "remote"
			}
			out := struct {
				Count  int    `json:"count"`
				Source string `json:"source"`
			}{count, source}
			return a.print(out, func(w io.Writer) {
				fmt.Fprintln(w, count)
			})
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update LINE_ID QUANTITY",
		Short: "Set the quantity of a cart line (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return model.NewValidationError("quantity", "must be an integer")
			}
			res, err := a.page(cmd.Context()).UpdateQuantity(cmd.Context(), args[0], quantity)
			if err != nil {
				return err
			}
			return a.printSync(res)
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove LINE_ID",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.page(cmd.Context()).RemoveItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printSync(res)
		},
	}
}

func newCheckoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Reconcile the cart and print the checkout URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			checkoutURL, err := a.page(cmd.Context()).Checkout(cmd.Context())
			a.printNotices()
			if err != nil {
				return err
			}
			out := struct {
				CheckoutURL string `json:"checkout_url"`
			}{checkoutURL}
			return a.print(out, func(w io.Writer) {
				fmt.Fprintln(w, checkoutURL)
			})
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the local cart and the remote cart session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.page(cmd.Context()).Reset(cmd.Context())
		},
	}
}

// === Output ===

// print writes v as JSON with --json, otherwise calls text.
func (a *app) print(v any, text func(w io.Writer)) error {
	if a.asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(a.out)
	return nil
}

// printSync prints the outcome of a page operation and its notices.
func (a *app) printSync(res cart.SyncResult) error {
	a.printNotices()

	out := struct {
		Lines     []cart.Line `json:"lines"`
		Cart      *model.Cart `json:"cart,omitempty"`
		SyncError string      `json:"sync_error,omitempty"`
	}{Lines: res.Lines, Cart: res.Cart}
	if out.Lines == nil {
		out.Lines = []cart.Line{}
	}
	if res.Err != nil {
		out.SyncError = res.Err.Error()
	}

	return a.print(out, func(w io.Writer) {
		if res.Cart != nil && len(res.Cart.Lines) > 0 {
			for _, l := range res.Cart.Lines {
				fmt.Fprintf(w, "%s  %s %s  x%d  %s\n",
					l.ID, l.Merchandise.ProductTitle, l.Merchandise.VariantTitle, l.Quantity, l.Total)
			}
			fmt.Fprintf(w, "%stotal: %d items  %s%s\n", colorBold, res.Cart.TotalQuantity, res.Cart.Total, colorReset)
		} else {
			for _, l := range res.Lines {
				fmt.Fprintf(w, "%s  x%d %s(not synced)%s\n", l.VariantID, l.Quantity, colorGray, colorReset)
			}
			if len(res.Lines) == 0 {
				fmt.Fprintln(w, "cart is empty")
			}
		}
		if res.Err != nil {
			fmt.Fprintf(w, "%ssync failed: %v%s\n", colorRed, res.Err, colorReset)
		}
	})
}

// printNotices writes collected notices to stderr so stdout stays parseable.
func (a *app) printNotices() {
	for _, n := range a.notices.Notices() {
		color := colorGreen
		if n.Level == cart.LevelError {
			color = colorRed
		}
		fmt.Fprintf(a.errOut, "%s%s%s\n", color, n.Message, colorReset)
	}
}
