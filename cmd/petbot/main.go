// Package main - petbot
// Load generator: many WebSocket clients spamming care actions at one pet server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/pocketmonster/internal/network"
)

// Config for the bot run
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	Lang           string
	OutPath        string
}

// Stats tracks performance metrics
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	Errors           int64
	GameOvers        int64
	Latencies        []time.Duration
	Notices          map[string]int64
	mu               sync.Mutex
}

var actionTypes = []string{"FEED", "PLAY", "CLEAN", "TRAIN"}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 20, "Number of concurrent clients")
	interval := flag.Duration("interval", 300*time.Millisecond, "Action interval per client")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	lang := flag.String("lang", "en", "Notice language requested by the clients")
	out := flag.String("out", "petbot_results.json", "Where to write the JSON results (empty to skip)")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		Lang:           *lang,
		OutPath:        *out,
	}

	fmt.Println("=========================================")
	fmt.Println("PETBOT - Pocket Monster load driver")
	fmt.Println("=========================================")
	fmt.Printf("Server: %s\n", config.ServerURL)
	fmt.Printf("Clients: %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt received, stopping...")
		cancel()
	}()

	stats := runStressTest(ctx, config)
	printResults(stats, config)
}

func runStressTest(ctx context.Context, config Config) *Stats {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
		Notices:   make(map[string]int64),
	}

	var wg sync.WaitGroup

	fmt.Println("\nStarting clients...")

	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}

	fmt.Printf("All %d clients started\n\n", config.NumClients)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sent := atomic.LoadInt64(&stats.MessagesSent)
				recv := atomic.LoadInt64(&stats.MessagesReceived)
				errs := atomic.LoadInt64(&stats.Errors)
				fmt.Printf("Progress: Sent=%s Recv=%s Errors=%d\n", humanize.Comma(sent), humanize.Comma(recv), errs)
			}
		}
	}()

	wg.Wait()
	return stats
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	u, err := url.Parse(config.ServerURL)
	if err != nil {
		log.Printf("Client %d: URL parse error: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	q := u.Query()
	q.Set("lang", config.Lang)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		log.Printf("Client %d: Connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	gameOver := make(chan struct{})
	go receive(conn, stats, gameOver)

	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-gameOver:
			return
		case <-ticker.C:
			msg := network.ClientMessage{Type: actionTypes[rand.Intn(len(actionTypes))]}
			start := time.Now()

			if err := conn.WriteJSON(msg); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}

			latency := time.Since(start)
			atomic.AddInt64(&stats.MessagesSent, 1)

			stats.mu.Lock()
			stats.Latencies = append(stats.Latencies, latency)
			stats.mu.Unlock()
		}
	}
}

// receive counts incoming messages and closes gameOver when the monster dies.
func receive(conn *websocket.Conn, stats *Stats, gameOver chan<- struct{}) {
	closed := false
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		atomic.AddInt64(&stats.MessagesReceived, 1)

		var notice network.NoticeMessage
		if err := json.Unmarshal(data, &notice); err != nil {
			atomic.AddInt64(&stats.Errors, 1)
			continue
		}
		switch notice.Type {
		case network.MsgNotice, network.MsgGameOver:
			stats.mu.Lock()
			stats.Notices[notice.Code]++
			stats.mu.Unlock()
		}
		if notice.Type == network.MsgGameOver && !closed {
			atomic.AddInt64(&stats.GameOvers, 1)
			close(gameOver)
			closed = true
		}
	}
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n=========================================")
	fmt.Println("PETBOT RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Messages Sent:     %s\n", humanize.Comma(sent))
	fmt.Printf("Messages Received: %s\n", humanize.Comma(recv))
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Error Rate:        %.2f%%\n", float64(errs)/float64(sent+1)*100)
	fmt.Printf("Game Over Seen:    %d clients\n", atomic.LoadInt64(&stats.GameOvers))

	throughput := float64(sent) / config.TestDuration.Seconds()
	fmt.Printf("Throughput:        %.2f msg/sec\n", throughput)

	if len(stats.Latencies) > 0 {
		var total time.Duration
		var min, max time.Duration = stats.Latencies[0], stats.Latencies[0]

		for _, l := range stats.Latencies {
			total += l
			if l < min {
				min = l
			}
			if l > max {
				max = l
			}
		}

		avg := total / time.Duration(len(stats.Latencies))

		fmt.Printf("\nWrite latency:\n")
		fmt.Printf("  Min: %v\n", min)
		fmt.Printf("  Avg: %v\n", avg)
		fmt.Printf("  Max: %v\n", max)
	}

	stats.mu.Lock()
	codes := make([]string, 0, len(stats.Notices))
	for code := range stats.Notices {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	if len(codes) > 0 {
		fmt.Printf("\nNotices:\n")
		for _, code := range codes {
			fmt.Printf("  %-18s %s\n", code, humanize.Comma(stats.Notices[code]))
		}
	}
	notices := make(map[string]int64, len(stats.Notices))
	for k, v := range stats.Notices {
		notices[k] = v
	}
	stats.mu.Unlock()

	fmt.Println("\n-----------------------------------------")
	if float64(errs)/float64(sent+1) < 0.05 {
		fmt.Println("PASSED: server handled the load")
	} else {
		fmt.Println("FAILED: high error rate")
	}
	fmt.Println("=========================================")

	if config.OutPath == "" {
		return
	}
	results := map[string]interface{}{
		"messages_sent":      sent,
		"messages_received":  recv,
		"errors":             errs,
		"throughput_per_sec": throughput,
		"notices":            notices,
		"config": map[string]interface{}{
			"clients":  config.NumClients,
			"interval": config.ActionInterval.String(),
			"duration": config.TestDuration.String(),
		},
	}

	jsonData, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(config.OutPath, jsonData, 0644); err != nil {
		fmt.Printf("failed to write results: %v\n", err)
		return
	}
	fmt.Printf("\nResults saved to %s\n", config.OutPath)
}
