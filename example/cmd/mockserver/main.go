// Standalone mock lecture service for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/lectureassist upload lecture.wav --follow
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jpalmerr/lectureassist/example/mockservice"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5000", "listen address")
	pending := flag.Duration("pending", 3*time.Second, "time each job reports PENDING")
	processing := flag.Duration("processing", 12*time.Second, "time each job then reports PROCESSING")
	flag.Parse()

	fmt.Printf("Mock lecture service starting on %s\n", *addr)
	fmt.Println("Jobs go PENDING -> PROCESSING -> COMPLETED (file names containing \"fail\" end in FAILED)")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	svc := mockservice.New(mockservice.Config{Pending: *pending, Processing: *processing})
	server := &http.Server{Addr: *addr, Handler: svc.Handler(), ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
