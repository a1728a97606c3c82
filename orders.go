package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type OrderRow struct {
	OrderNumber string
	Head        string
	Body        string
	Legs        string
	Address     string
}

type OrderTable []OrderRow

var requiredColumns = []string{"Head", "Body", "Legs", "Address"}

const orderNumberColumn = "Order number"

// getOrders downloads the order list next to the configured download dir,
// overwriting any earlier copy, and parses it in file order.
func getOrders(config *Config, client *http.Client, log *Logger) (OrderTable, error) {
	url := config.OrdersURL()
	dest := filepath.Join(config.DownloadDir, filepath.Base(config.OrdersPath))

	log.Info(T("orders_downloading", url))
	if err := downloadOrders(client, url, dest); err != nil {
		return nil, err
	}

	f, err := os.Open(dest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer f.Close()

	orders, err := parseOrders(f)
	if err != nil {
		return nil, err
	}

	log.Info(T("orders_loaded", len(orders)))
	return orders, nil
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
	}
}

func downloadOrders(client *http.Client, url, dest string) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDownload, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned HTTP %d", ErrDownload, url, resp.StatusCode)
	}

	if dir := filepath.Dir(dest); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: %v", ErrFileSystem, err)
		}
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileSystem, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrDownload, url, err)
	}
	return nil
}

// parseOrders reads a header row followed by one row per order. Head, Body,
// Legs and Address must be present and non-empty on every row.
func parseOrders(r io.Reader) (OrderTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header row", ErrParse)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrParse, col)
		}
	}

	var orders OrderTable
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row := OrderRow{
			OrderNumber: field(orderNumberColumn),
			Head:        field("Head"),
			Body:        field("Body"),
			Legs:        field("Legs"),
			Address:     field("Address"),
		}
		for _, col := range requiredColumns {
			if field(col) == "" {
				return nil, fmt.Errorf("%w: line %d: empty %s", ErrParse, line, col)
			}
		}

		orders = append(orders, row)
	}

	return orders, nil
}
