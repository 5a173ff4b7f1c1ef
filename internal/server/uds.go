// Package server exposes the router over a Unix domain socket (one
// length-prefixed JSON object per request and response) and over HTTP for
// development. Handler execution is bounded by a worker semaphore so blocking
// decoder calls cannot stall connection accept.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"os"
	"time"

	"github.com/tendant/simple-media-preproc/internal/router"
	"github.com/tendant/simple-media-preproc/pkg/mediaproc"
)

// UDSServer serves requests over a Unix domain socket
type UDSServer struct {
	socketPath string
	router     *router.Router
	version    string
	sem        chan struct{}
	startTime  time.Time
}

// NewUDSServer creates a server bound to socketPath with at most maxWorkers
// requests executing concurrently.
func NewUDSServer(socketPath string, r *router.Router, version string, maxWorkers int) *UDSServer {
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	return &UDSServer{
		socketPath: socketPath,
		router:     r,
		version:    version,
		sem:        make(chan struct{}, maxWorkers),
		startTime:  time.Now(),
	}
}

// Serve accepts connections until ctx is cancelled. Each connection gets its
// own goroutine; individual requests additionally contend on the worker
// semaphore.
func (s *UDSServer) Serve(ctx context.Context) error {
	if _, err := os.Stat(s.socketPath); err == nil {
		if err := os.Remove(s.socketPath); err != nil {
			return err
		}
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return err
	}
	log.Printf("✓ Listening on %s", s.socketPath)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("Accept error: %v", err)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *UDSServer) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	for {
		frame, err := readFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("Connection read error: %v", err)
			}
			return
		}

		var req mediaproc.Request
		if err := json.Unmarshal(frame, &req); err != nil {
			s.writeOutcome(conn, errorOutcome("request is not valid JSON: "+err.Error()))
			continue
		}

		var outcome mediaproc.Outcome
		if req.Op == "health" || req.Op == "health.check" {
			// Answered before routing; health never touches the metrics
			outcome = s.healthOutcome()
		} else {
			s.sem <- struct{}{}
			res := s.router.Dispatch(ctx, req)
			<-s.sem
			outcome = toWire(res)
		}

		if err := s.writeOutcome(conn, outcome); err != nil {
			log.Printf("Connection write error: %v", err)
			return
		}
	}
}

func (s *UDSServer) healthOutcome() mediaproc.Outcome {
	payload, _ := json.Marshal(map[string]any{
		"status":    "healthy",
		"service":   "simple-media-preproc",
		"version":   s.version,
		"uptime_ms": time.Since(s.startTime).Milliseconds(),
	})
	return mediaproc.Outcome{OK: true, Output: payload}
}

func (s *UDSServer) writeOutcome(conn net.Conn, outcome mediaproc.Outcome) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	return writeFrame(conn, payload)
}

// toWire converts a router result to the wire outcome shape
func toWire(res router.Result) mediaproc.Outcome {
	output, err := json.Marshal(res.Output)
	if err != nil {
		return errorOutcome("response serialization failed: " + err.Error())
	}
	return mediaproc.Outcome{
		OK:        res.OK,
		Output:    output,
		LatencyMs: res.Latency.Milliseconds(),
		Cost:      res.Cost,
	}
}

func errorOutcome(message string) mediaproc.Outcome {
	payload, _ := json.Marshal(mediaproc.ErrorOutput{
		Error: message,
		Kind:  mediaproc.KindValidationError,
	})
	return mediaproc.Outcome{OK: false, Output: payload}
}
