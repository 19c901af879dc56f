// bridge-cli is a small command-line client for a running bridge-server.
//
// Usage:
//
//	bridge-cli [-server URL] submit -symbol AAPL -size 10 -type limit -limit 150.00
//	bridge-cli [-server URL] cancel -id 1
//	bridge-cli [-server URL] orders
//	bridge-cli [-server URL] order -id 1
//	bridge-cli [-server URL] account [-refresh]
//	bridge-cli [-server URL] positions
//	bridge-cli [-server URL] history -symbol AAPL
//	bridge-cli [-server URL] bars -symbol AAPL [-start 2025-01-01] [-end 2025-06-30]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"tradebridge/internal/httpapi"
	"tradebridge/pkg/tradebridge"
)

func main() {
	serverURL := flag.String("server", "http://127.0.0.1:8080", "bridge-server base URL")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client := tradebridge.NewClient(*serverURL)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "submit":
		err = runSubmit(ctx, client, rest)
	case "cancel":
		err = runCancel(ctx, client, rest)
	case "orders":
		err = runOrders(ctx, client)
	case "order":
		err = runOrder(ctx, client, rest)
	case "account":
		err = runAccount(ctx, client, rest)
	case "positions":
		err = client.RefreshPositions(ctx)
	case "history":
		err = runHistory(ctx, client, rest)
	case "bars":
		err = runBars(ctx, client, rest)
	default:
		log.Fatalf("unknown command %q", cmd)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func runSubmit(ctx context.Context, client *tradebridge.Client, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	symbol := fs.String("symbol", "", "instrument symbol")
	size := fs.Int64("size", 0, "signed size (positive buys, negative sells)")
	typ := fs.String("type", "market", "order type: market, limit, stop, stop_limit")
	limit := fs.Float64("limit", 0, "limit price")
	stop := fs.Float64("stop", 0, "stop price")
	fs.Parse(args)

	resp, err := client.SubmitOrder(ctx, httpapi.SubmitOrderRequest{
		Symbol:     *symbol,
		Size:       *size,
		Type:       *typ,
		LimitPrice: *limit,
		StopPrice:  *stop,
	})
	if err != nil {
		return err
	}
	if resp.Warning != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", resp.Warning)
	}
	fmt.Printf("order %d submitted\n", resp.OrderID)
	return nil
}

func runCancel(ctx context.Context, client *tradebridge.Client, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	id := fs.Int64("id", 0, "order id")
	fs.Parse(args)

	if err := client.CancelOrder(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("order %d canceled\n", *id)
	return nil
}

func runOrders(ctx context.Context, client *tradebridge.Client) error {
	orders, err := client.ListOrders(ctx)
	if err != nil {
		return err
	}
	printJSON(orders)
	return nil
}

func runOrder(ctx context.Context, client *tradebridge.Client, args []string) error {
	fs := flag.NewFlagSet("order", flag.ExitOnError)
	id := fs.Int64("id", 0, "order id")
	fs.Parse(args)

	order, err := client.GetOrder(ctx, *id)
	if err != nil {
		return err
	}
	printJSON(order)
	return nil
}

func runAccount(ctx context.Context, client *tradebridge.Client, args []string) error {
	fs := flag.NewFlagSet("account", flag.ExitOnError)
	refresh := fs.Bool("refresh", false, "refresh from the brokerage before printing")
	fs.Parse(args)

	if *refresh {
		summary, err := client.RefreshAccount(ctx)
		if err != nil {
			return err
		}
		printJSON(summary)
		return nil
	}
	summary, err := client.GetAccount(ctx)
	if err != nil {
		return err
	}
	printJSON(summary)
	return nil
}

func runHistory(ctx context.Context, client *tradebridge.Client, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	symbol := fs.String("symbol", "", "instrument symbol")
	fs.Parse(args)

	n, err := client.FetchHistory(ctx, *symbol)
	if err != nil {
		return err
	}
	fmt.Printf("replayed %d ticks for %s\n", n, *symbol)
	return nil
}

func runBars(ctx context.Context, client *tradebridge.Client, args []string) error {
	fs := flag.NewFlagSet("bars", flag.ExitOnError)
	symbol := fs.String("symbol", "", "instrument symbol")
	startStr := fs.String("start", "", "start date (YYYY-MM-DD)")
	endStr := fs.String("end", "", "end date (YYYY-MM-DD)")
	fs.Parse(args)

	var start, end time.Time
	var err error
	if *startStr != "" {
		if start, err = time.Parse("2006-01-02", *startStr); err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
	}
	if *endStr != "" {
		if end, err = time.Parse("2006-01-02", *endStr); err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}

	bars, err := client.GetBars(ctx, *symbol, start, end)
	if err != nil {
		return err
	}
	printJSON(bars)
	return nil
}
