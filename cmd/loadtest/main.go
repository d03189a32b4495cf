// Command loadtest drives a running searcher with a fixed set of Reuters
// queries and prints throughput, latency percentiles and status codes.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var queries = []string{
	"cocoa exports",
	"crude oil prices",
	"wheat shipments",
	"grain",
	"interest rates",
	"bank of japan",
	"trade deficit",
	"coffee quota",
	"gold mining",
	"sugar production",
	"merger acquisition",
	"dollar yen",
	"the and of",
	"zyzzyva",
}

type stats struct {
	total   atomic.Int64
	failed  atomic.Int64
	mu      sync.Mutex
	latency []time.Duration
	codes   map[int]int64
}

func (s *stats) record(d time.Duration, code int, err error) {
	s.total.Add(1)
	if err != nil || code < 200 || code >= 300 {
		s.failed.Add(1)
	}
	if err != nil {
		return
	}
	s.mu.Lock()
	s.latency = append(s.latency, d)
	s.codes[code]++
	s.mu.Unlock()
}

func main() {
	baseURL := flag.String("url", "http://localhost:5000", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	mode := flag.String("mode", "api", "api (GET /api/v1/search) or post (POST /search)")
	flag.Parse()
	if *mode != "api" && *mode != "post" {
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}

	fmt.Printf("target=%s mode=%s concurrency=%d duration=%s queries=%d\n",
		*baseURL, *mode, *concurrency, *duration, len(queries))

	s := &stats{codes: make(map[int]int64)}
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        *concurrency * 2,
			MaxIdleConnsPerHost: *concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < *concurrency; w++ {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				req, err := newRequest(ctx, *baseURL, *mode, queries[i%len(queries)])
				if err != nil {
					return err
				}
				start := time.Now()
				resp, err := client.Do(req)
				if err != nil {
					if ctx.Err() == nil {
						s.record(time.Since(start), 0, err)
					}
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				s.record(time.Since(start), resp.StatusCode, nil)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "load test aborted: %v\n", err)
		os.Exit(1)
	}
	report(s, *duration)
}

func newRequest(ctx context.Context, base, mode, query string) (*http.Request, error) {
	if mode == "post" {
		body, err := json.Marshal(map[string]string{"query": query})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/search", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}
	return http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/v1/search?q=%s", base, url.QueryEscape(query)), nil)
}

func report(s *stats, d time.Duration) {
	total, failed := s.total.Load(), s.failed.Load()
	fmt.Printf("\nrequests=%d failed=%d rps=%.1f\n", total, failed, float64(total)/d.Seconds())
	if total == 0 {
		fmt.Println("no requests completed; is the service running?")
		os.Exit(1)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	slices.Sort(s.latency)
	if len(s.latency) > 0 {
		fmt.Printf("latency min=%s p50=%s p90=%s p99=%s max=%s\n",
			s.latency[0], percentile(s.latency, 50), percentile(s.latency, 90),
			percentile(s.latency, 99), s.latency[len(s.latency)-1])
	}
	codes := make([]int, 0, len(s.codes))
	for c := range s.codes {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	for _, c := range codes {
		fmt.Printf("  %d: %d\n", c, s.codes[c])
	}
}

func percentile(sorted []time.Duration, p int) time.Duration {
	idx := (p*len(sorted)+99)/100 - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
