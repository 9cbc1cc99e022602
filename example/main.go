package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/lectureassist"
	"github.com/jpalmerr/lectureassist/example/mockservice"
)

const serviceAddr = "127.0.0.1:5055"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// start the mock lecture service
	svc := mockservice.New(mockservice.Config{Logger: logger})
	mock := &http.Server{Addr: serviceAddr, Handler: svc.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := mock.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("mock service error", "error", err)
		}
	}()
	defer func() { _ = mock.Close() }()
	time.Sleep(100 * time.Millisecond)

	client, err := lectureassist.NewClient("http://"+serviceAddr,
		lectureassist.WithRequestTimeout(5*time.Second),
		lectureassist.WithClientLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create client", "error", err)
		os.Exit(1)
	}

	la, err := lectureassist.New(
		lectureassist.WithClient(client),
		lectureassist.WithPort(8080),
		lectureassist.WithTitle("LectureAssist Demo"),
		lectureassist.WithLogger(logger),
		lectureassist.WithSnapshotCallback(func(s lectureassist.Snapshot) {
			if s.Status.IsTerminal() {
				fmt.Printf("\n%s\n", s.Text(lectureassist.ViewSummary))
			}
		}),
	)
	if err != nil {
		logger.Error("failed to create lectureassist", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  LectureAssist Demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser")
	fmt.Println("  Two demo lectures are uploaded; one of them fails on purpose.")
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		// let the dashboard come up before the first uploads
		time.Sleep(500 * time.Millisecond)
		for _, name := range []string{"intro-to-biology.wav", "fail-recording.mp3"} {
			if _, err := la.UploadFile(ctx, name, bytes.NewReader([]byte("RIFF demo audio"))); err != nil {
				logger.Error("demo upload failed", "file", name, "error", err)
			}
		}
	}()

	if err := la.Start(ctx); err != nil {
		logger.Error("lectureassist error", "error", err)
		os.Exit(1)
	}
}
