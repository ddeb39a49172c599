package shop

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"MiniShop/internal/basket"
	"MiniShop/internal/catalog"
)

// renderCatalog prints a grid of collections side by side, one
// product name per row.
func renderCatalog(ctx context.Context, out io.Writer, store catalog.Store) error {
	names, err := store.Collections(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "The catalog is empty.")
		return nil
	}

	columns := make([][]string, len(names))
	rows := 0
	for i, name := range names {
		docs, err := store.ListAll(ctx, name)
		if err != nil {
			return err
		}
		col := make([]string, 0, len(docs))
		for _, doc := range docs {
			col = append(col, doc.Name())
		}
		columns[i] = col
		if len(col) > rows {
			rows = len(col)
		}
	}

	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "%s\t", name)
	}
	fmt.Fprintln(w)

	for r := 0; r < rows; r++ {
		for _, col := range columns {
			if r < len(col) {
				fmt.Fprintf(w, "%s\t", col[r])
			} else {
				fmt.Fprintf(w, "\t")
			}
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

// renderProduct prints every field of a document, aligned, in a
// stable order.
func renderProduct(out io.Writer, doc catalog.Document) {
	fmt.Fprintln(out, "Product Information:")
	fmt.Fprintln(out, "=====================")

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%v\n", k, doc[k])
	}
	_ = w.Flush()
	fmt.Fprintln(out, "=====================")
}

func renderBasket(out io.Writer, items []basket.Item) {
	if len(items) == 0 {
		fmt.Fprintln(out, "The basket is empty.")
		return
	}
	for _, item := range items {
		fmt.Fprintf(out, "collection: %s\n_id: %d\nname: %s\n---\n",
			item.Collection, item.ID, item.Name)
	}
}
