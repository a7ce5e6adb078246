package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/ardanlabs/conf/v3"
	"github.com/google/uuid"

	"github.com/ghuser/storefront/services/storefront/cart"
	"github.com/ghuser/storefront/services/storefront/catalogclient"
	"github.com/ghuser/storefront/services/storefront/checkout"
)

type shop struct {
	cfg     config
	out     io.Writer
	catalog *catalogclient.Client
	cart    *cart.Cart
	history *checkout.History
	flow    *checkout.Flow
}

func (s *shop) dispatch(ctx context.Context, args conf.Args) error {
	switch cmd := args.Num(0); cmd {
	case "", "browse":
		return s.browse(ctx)
	case "item":
		id, err := parseID(args.Num(1))
		if err != nil {
			return err
		}
		item, err := s.catalog.GetOne(ctx, id)
		if err != nil {
			return err
		}
		printItems(s.out, []catalogclient.Item{*item})
		return nil
	case "add":
		id, err := parseID(args.Num(1))
		if err != nil {
			return err
		}
		line, err := s.cart.Add(ctx, id)
		if errors.Is(err, cart.ErrAlreadyInCart) {
			fmt.Fprintf(s.out, "%s is already in your cart\n", line.Name)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "added %s (%s) x%d\n", line.Name, line.Size, line.Quantity)
		return nil
	case "remove":
		id, err := parseID(args.Num(1))
		if err != nil {
			return err
		}
		if err := s.cart.Remove(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "item removed")
		return nil
	case "qty":
		id, err := parseID(args.Num(1))
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(args.Num(2))
		if err != nil {
			return fmt.Errorf("quantity %q is not a number", args.Num(2))
		}
		return s.cart.SetQuantity(ctx, id, n)
	case "cart":
		lines, err := s.cart.View(ctx)
		if err != nil {
			return err
		}
		printCart(s.out, lines)
		return nil
	case "clear":
		if err := s.cart.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "cart cleared")
		return nil
	case "checkout":
		return s.checkout(ctx)
	case "history":
		orders, err := s.history.List(ctx)
		if err != nil {
			return err
		}
		printHistory(s.out, orders)
		return nil
	case "history-clear":
		return s.history.Clear(ctx)
	case "admin-list":
		items, err := s.catalog.ListAll(ctx)
		if err != nil {
			return err
		}
		printItems(s.out, items)
		return nil
	case "admin-add":
		return s.adminAdd(ctx, args.Num(1))
	case "admin-update":
		id, err := parseID(args.Num(1))
		if err != nil {
			return err
		}
		return s.adminUpdate(ctx, id, args.Num(2))
	case "admin-delete":
		id, err := parseID(args.Num(1))
		if err != nil {
			return err
		}
		return s.catalog.Delete(ctx, id)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}

func (s *shop) browse(ctx context.Context) error {
	items, err := s.catalog.ListForUsers(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(s.out, "no items available")
		return nil
	}

	feed := cart.NewFeed(s.cfg.PageSize)
	feed.Reset(items)
	shown := 0
	for page := 1; ; page++ {
		visible := feed.Visible()
		fmt.Fprintf(s.out, "-- page %d --\n", page)
		printItems(s.out, visible[shown:])
		shown = len(visible)
		if !feed.Next() {
			return nil
		}
	}
}

func (s *shop) checkout(ctx context.Context) error {
	order, err := s.flow.Submit(ctx, checkout.Customer{
		Name:     s.cfg.Customer.Name,
		Phone:    s.cfg.Customer.Phone,
		Location: s.cfg.Customer.Location,
		Hostel:   s.cfg.Customer.Hostel,
	})
	switch {
	case errors.Is(err, checkout.ErrCartChanged):
		fmt.Fprintf(s.out, "%v\nyour cart was updated, review it and check out again\n", err)
		return nil
	case errors.Is(err, checkout.ErrHandoff):
		fmt.Fprintf(s.out, "order %s recorded and items reserved, but the message could not be sent\n", order.ID)
		return err
	case err != nil:
		return err
	}
	fmt.Fprintf(s.out, "order %s submitted\n", order.ID)
	return nil
}

func (s *shop) adminAdd(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("admin-add needs an image path")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	item, err := s.catalog.Create(ctx, catalogclient.NewItem{
		Name:     s.cfg.Item.Name,
		Price:    s.cfg.Item.Price,
		Size:     s.cfg.Item.Size,
		Filename: filepath.Base(path),
		Image:    f,
	})
	if err != nil {
		return err
	}
	printItems(s.out, []catalogclient.Item{*item})
	return nil
}

// adminUpdate applies the --item-* flags that are set and, when imagePath is
// given, replaces the picture.
func (s *shop) adminUpdate(ctx context.Context, id uuid.UUID, imagePath string) error {
	changes := catalogclient.ItemChanges{
		Name:  s.cfg.Item.Name,
		Price: s.cfg.Item.Price,
		Size:  s.cfg.Item.Size,
	}
	if imagePath != "" {
		f, err := os.Open(imagePath)
		if err != nil {
			return err
		}
		defer f.Close()
		changes.Filename, changes.Image = filepath.Base(imagePath), f
	}
	if changes.Name == "" && changes.Price == "" && changes.Size == "" && changes.Image == nil {
		return errors.New("admin-update needs --item-* flags or an image path")
	}

	item, err := s.catalog.Update(ctx, id, changes)
	if err != nil {
		return err
	}
	printItems(s.out, []catalogclient.Item{*item})
	return nil
}

func parseID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, errors.New("missing item id")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("item id %q: %w", s, err)
	}
	return id, nil
}

func printItems(w io.Writer, items []catalogclient.Item) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tPRICE\tSTATUS")
	for _, it := range items {
		status := "available"
		switch {
		case it.Deleted:
			status = "deleted"
		case !it.Available:
			status = "sold"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\tKsh %s\t%s\n", it.ID, it.Name, it.Size, it.Price, status)
	}
	_ = tw.Flush()
}

func printCart(w io.Writer, lines []cart.Line) {
	if len(lines) == 0 {
		fmt.Fprintln(w, "your cart is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tQTY\tSUBTOTAL")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\tKsh %s\n", l.ID, l.Name, l.Size, l.Quantity, l.Subtotal())
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Total: Ksh %s\n", cart.Total(lines))
}

func printHistory(w io.Writer, orders []checkout.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "no orders yet")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLACED\tORDER\tITEMS\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%d\tKsh %s\n", o.PlacedAt.Local().Format("2006-01-02 15:04"), o.ID, len(o.Lines), o.Total)
	}
	_ = tw.Flush()
}
