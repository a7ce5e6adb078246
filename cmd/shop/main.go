// Command shop is the storefront client: it browses the catalog, keeps a
// local cart and submits orders through a messaging deep link.
//
// Usage:
//
//	shop browse
//	shop add <item-id>
//	shop cart
//	shop checkout --customer-name=... --customer-phone=... --customer-location=...
//
// Run `shop --help` for every setting; each flag can also be set as a
// SHOP_* environment variable.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"

	"github.com/ghuser/storefront/pkg/logger"
	"github.com/ghuser/storefront/services/storefront/cart"
	"github.com/ghuser/storefront/services/storefront/catalogclient"
	"github.com/ghuser/storefront/services/storefront/checkout"
	"github.com/ghuser/storefront/services/storefront/localstore"
)

type config struct {
	Args conf.Args

	API struct {
		URL     string        `conf:"default:http://localhost:8080/api"`
		Timeout time.Duration `conf:"default:10s"`
	}
	DBPath     string `conf:"default:storefront.sqlite3"`
	CartPolicy string `conf:"default:reject,enum:reject|increment"`
	Recipient  string `conf:"default:254114303482"`
	PageSize   int    `conf:"default:10"`
	LogLevel   string `conf:"default:warn"`

	Customer struct {
		Name     string
		Phone    string
		Location string
		Hostel   string
	}
	Item struct {
		Name  string
		Price string
		Size  string
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config
	_ = godotenv.Load()
	help, err := conf.Parse("SHOP", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			fmt.Println(usage)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	policy, err := cart.ParsePolicy(cfg.CartPolicy)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.NewConsole(os.Stderr, cfg.LogLevel)

	store, err := localstore.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	client := catalogclient.New(cfg.API.URL, cfg.API.Timeout)
	c := cart.New(store, client, policy, log)
	history := checkout.NewHistory(store)

	app := &shop{
		cfg:     cfg,
		out:     os.Stdout,
		catalog: client,
		cart:    c,
		history: history,
		flow:    checkout.NewFlow(c, client, history, checkout.PrintMessenger{W: os.Stdout}, cfg.Recipient, log),
	}
	return app.dispatch(ctx, cfg.Args)
}

const usage = `Commands:
  browse                      list purchasable items, one page per --page-size
  item <id>                   show one item
  add <id>                    add an item to the cart
  remove <id>                 remove an item from the cart
  qty <id> <n>                set a line's quantity (increment policy only)
  cart                        show the cart, dropping items that sold out
  clear                       empty the cart
  checkout                    submit the cart (--customer-* flags)
  history                     list past orders
  history-clear               forget past orders
  admin-list                  list every live item, sold ones included
  admin-add <image-path>      create an item (--item-* flags)
  admin-update <id> [image]   change the set --item-* flags, optionally the image
  admin-delete <id>           delete an item`
