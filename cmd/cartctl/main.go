// Command cartctl inspects line ids and backend carts from the shell.
//
//	cartctl encode -id p1 -size L -customizations "no onion"
//	cartctl decode 'p1::eyJzaXplSWQiOiJMIn0'
//	cartctl fetch -user u1
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"fooddelivery-cart/internal/cartapi"
	"fooddelivery-cart/internal/cartparse"
	"fooddelivery-cart/internal/cartstore"
	"fooddelivery-cart/internal/config"
	"fooddelivery-cart/internal/domain"
	"fooddelivery-cart/internal/linekey"
)

func main() {
	logger := log.New(os.Stderr, "[cartctl] ", log.LstdFlags|log.LUTC)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "encode":
		err = runEncode(os.Args[2:])
	case "decode":
		err = runDecode(os.Args[2:])
	case "fetch":
		err = runFetch(os.Args[2:], logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatalf("%s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cartctl encode|decode|fetch [flags]")
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	var attrs domain.VariantAttrs
	id := fs.String("id", "", "Base product id")
	fs.StringVar(&attrs.CategoryID, "category-id", "", "Category id")
	fs.StringVar(&attrs.CategoryName, "category", "", "Category name")
	fs.StringVar(&attrs.SizeID, "size", "", "Size id")
	fs.StringVar(&attrs.SizeName, "size-name", "", "Size name")
	fs.StringVar(&attrs.Customizations, "customizations", "", "Customization text")
	fs.StringVar(&attrs.ImageURL, "image", "", "Image URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		fs.Usage()
		os.Exit(2)
	}
	fmt.Println(linekey.Encode(*id, attrs))
	return nil
}

func runDecode(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one line id")
	}
	base, attrs := linekey.Decode(args[0])
	return printJSON(struct {
		BaseProductID string              `json:"baseProductId"`
		Attrs         domain.VariantAttrs `json:"attrs"`
	}{base, attrs})
}

func runFetch(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	userID := fs.String("user", "", "User id whose cart to fetch")
	raw := fs.Bool("raw", false, "Print parsed lines instead of the grouped summary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID == "" {
		fs.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	client := cartapi.New(cfg.CartAPIBaseURL, cfg.CartAPITimeout, logger)
	env, err := client.GetCart(context.Background(), *userID)
	if err != nil {
		return err
	}
	lines, ok := cartparse.Lines(env)
	if !ok {
		return fmt.Errorf("backend answered with a %s envelope", env.Kind)
	}
	if *raw {
		return printJSON(lines)
	}
	return printJSON(cartstore.Summarize(lines))
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
