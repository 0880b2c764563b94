package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "Muse server URL")
	kind := flag.String("kind", "text", "Capture kind: text or image")
	status := flag.Bool("status", false, "Show pipeline status and exit")
	records := flag.Int("records", 0, "Show the N most recent records and exit")
	watch := flag.Bool("watch", false, "Keep polling and print each new record")
	flag.Parse()

	if *status {
		fetchStatus(*server)
		return
	}
	if *records > 0 {
		fetchRecords(*server, *records)
		return
	}
	if *watch {
		watchRecords(*server)
		return
	}

	switch *kind {
	case "text":
		content := strings.Join(flag.Args(), " ")
		if content == "" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				printError("Failed to read stdin: %v", err)
				os.Exit(1)
			}
			content = strings.TrimSpace(string(data))
		}
		if content == "" {
			printError("Nothing to send: pass text as arguments or on stdin")
			os.Exit(1)
		}
		sendCapture(*server, "text", content, "")
	case "image":
		if flag.NArg() != 1 {
			printError("Usage: muse-feed -kind image <file>")
			os.Exit(1)
		}
		path := flag.Arg(0)
		data, err := os.ReadFile(path)
		if err != nil {
			printError("Failed to read %s: %v", path, err)
			os.Exit(1)
		}
		sendCapture(*server, "image", base64.StdEncoding.EncodeToString(data), filepath.Base(path))
	default:
		printError("Unknown kind %q: use text or image", *kind)
		os.Exit(1)
	}
}

func sendCapture(server, kind, content, path string) {
	body, _ := json.Marshal(map[string]string{
		"content": content,
		"kind":    kind,
		"path":    path,
	})

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Post(server+"/api/capture", "application/json", bytes.NewReader(body))
	if err != nil {
		printError("Request failed: %v", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		data, _ := io.ReadAll(resp.Body)
		printError("Server error (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
		os.Exit(1)
	}

	var ack struct {
		Fingerprint string `json:"fingerprint"`
		Kind        string `json:"kind"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		printError("Failed to parse response: %v", err)
		os.Exit(1)
	}
	fmt.Printf("\033[32m✓\033[0m accepted %s %s\n", ack.Kind, ack.Fingerprint[:8])
}

func fetchStatus(server string) {
	resp, err := http.Get(server + "/api/status")
	if err != nil {
		printError("Failed to fetch status: %v", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var st struct {
		UptimeSeconds float64 `json:"uptime_seconds"`
		QueueLen      int     `json:"queue_len"`
		QueueCap      int     `json:"queue_cap"`
		Pipeline      struct {
			Captured           uint64 `json:"captured"`
			Duplicates         uint64 `json:"duplicates"`
			TooShort           uint64 `json:"too_short"`
			Enqueued           uint64 `json:"enqueued"`
			QueueDrops         uint64 `json:"queue_drops"`
			ItemsProcessed     uint64 `json:"items_processed"`
			ItemsFailed        uint64 `json:"items_failed"`
			GenerationCalls    uint64 `json:"generation_calls"`
			GenerationFailures uint64 `json:"generation_failures"`
			RecordsWritten     uint64 `json:"records_written"`
			SinkErrors         uint64 `json:"sink_errors"`
		} `json:"pipeline"`
		Novelty struct {
			UniqueKeys   int    `json:"unique_keys"`
			UniqueValues int    `json:"unique_values"`
			Observations uint64 `json:"observations"`
		} `json:"novelty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		printError("Failed to parse status: %v", err)
		os.Exit(1)
	}

	fmt.Printf("Uptime: %s | Queue: %d/%d\n",
		time.Duration(st.UptimeSeconds*float64(time.Second)).Round(time.Second),
		st.QueueLen, st.QueueCap)
	fmt.Printf("Captured: %d (dup %d, short %d) | Enqueued: %d (dropped %d)\n",
		st.Pipeline.Captured, st.Pipeline.Duplicates, st.Pipeline.TooShort,
		st.Pipeline.Enqueued, st.Pipeline.QueueDrops)
	fmt.Printf("Processed: %d (failed %d) | Written: %d (sink errors %d)\n",
		st.Pipeline.ItemsProcessed, st.Pipeline.ItemsFailed,
		st.Pipeline.RecordsWritten, st.Pipeline.SinkErrors)
	fmt.Printf("Generation: %d calls (%d failed)\n",
		st.Pipeline.GenerationCalls, st.Pipeline.GenerationFailures)
	fmt.Printf("Novelty: %d keys, %d values over %d observations\n",
		st.Novelty.UniqueKeys, st.Novelty.UniqueValues, st.Novelty.Observations)
}

type recordView struct {
	ID   string `json:"id"`
	Item struct {
		Kind        string `json:"kind"`
		Fingerprint string `json:"fingerprint"`
		Path        string `json:"path,omitempty"`
	} `json:"item"`
	Results []struct {
		Agent string `json:"agent"`
		Text  string `json:"text"`
	} `json:"results"`
	ProducedAt time.Time `json:"produced_at"`
}

func getRecords(server string, limit int) ([]recordView, error) {
	resp, err := http.Get(fmt.Sprintf("%s/api/records?limit=%d", server, limit))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var recs []recordView
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}
	return recs, nil
}

func printRecord(r recordView) {
	fp := r.Item.Fingerprint
	if len(fp) > 8 {
		fp = fp[:8]
	}
	fmt.Printf("\033[36m%s\033[0m %s %s (%s)\n",
		fp, r.Item.Kind, r.ProducedAt.Local().Format("15:04:05"), r.ID)
	for _, res := range r.Results {
		line := res.Text
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		fmt.Printf("  %s: %s\n", res.Agent, line)
	}
}

func fetchRecords(server string, limit int) {
	recs, err := getRecords(server, limit)
	if err != nil {
		printError("Failed to fetch records: %v", err)
		os.Exit(1)
	}
	if len(recs) == 0 {
		fmt.Println("No records yet.")
		return
	}
	for _, r := range recs {
		printRecord(r)
	}
}

// watchRecords tails the recent-records endpoint, printing each record
// once as it appears. A failing first poll exits; later failures are
// ridden out until the server comes back.
func watchRecords(server string) {
	seen := make(map[string]bool)
	firstPoll := true
	for {
		recs, err := getRecords(server, 50)
		if err != nil {
			if firstPoll {
				printError("Failed to fetch records: %v", err)
				os.Exit(1)
			}
		} else {
			if firstPoll {
				fmt.Println("Watching for records... Ctrl-C to stop.")
				firstPoll = false
			}
			// Newest first from the server; print unseen ones oldest first.
			for i := len(recs) - 1; i >= 0; i-- {
				if !seen[recs[i].ID] {
					seen[recs[i].ID] = true
					printRecord(recs[i])
				}
			}
		}
		time.Sleep(2 * time.Second)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\033[31m"+format+"\033[0m\n", args...)
}
