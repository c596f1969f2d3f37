package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/dispatchtracker/internal/sheet"
)

var (
	serveAddr string
	serveFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a row store backed by a local spreadsheet",
	Long: `Serves the row store protocol over HTTP, keeping the rows in an .xlsx
workbook. Point the endpoint at it to work without the hosted spreadsheet:

  dispatchtracker serve --file rows.xlsx --addr :8080
  dispatchtracker endpoint http://localhost:8080/`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&serveFile, "file", "rows.xlsx", "workbook holding the rows (created if missing)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	book, err := sheet.Open(serveFile)
	if err != nil {
		return err
	}
	defer book.Close()

	server := &http.Server{
		Addr:              serveAddr,
		Handler:           sheet.NewHandler(book, logLine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	fmt.Printf("Serving %s on %s (Ctrl+C to stop)\n", book.Path(), serveAddr)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-cmd.Context().Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	fmt.Println("Stopped")
	return nil
}
