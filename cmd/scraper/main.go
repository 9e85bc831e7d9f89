// Command scraper populates the stories/ directory cmd/gametest drives its
// smoke-test harness against: it indexes the IF-Archive's zcode directory
// and downloads every story file cmd/gametest doesn't already have on disk.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const indexURL = "https://www.ifarchive.org/indexes/if-archive/games/zcode/"

var gameFileRE = regexp.MustCompile(`\.z([1-8])$`)

type game struct {
	name    string
	url     string
	version uint8
}

type fetchResult struct {
	game    game
	bytes   int
	skipped bool
	err     error
}

func main() {
	outputDir := flag.String("output", "stories", "Directory to download story files into")
	versions := flag.String("versions", "", "Comma-separated zcode versions to fetch (e.g. 3,5,8); empty means all")
	concurrency := flag.Int("concurrency", 4, "Number of games to download at once")
	flag.Parse()

	wanted := parseVersions(*versions)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Printf("failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client := &http.Client{Timeout: 30 * time.Second}

	games, err := fetchIndex(ctx, client, wanted)
	if err != nil {
		fmt.Printf("failed to fetch index: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("found %d games to consider\n", len(games))

	results := downloadAll(ctx, client, games, *outputDir, *concurrency)

	downloaded, skipped, failed := 0, 0, 0
	for _, r := range results {
		switch {
		case r.err != nil:
			failed++
			fmt.Printf("FAILED %s: %v\n", r.game.name, r.err)
		case r.skipped:
			skipped++
		default:
			downloaded++
			fmt.Printf("OK %s (%d bytes)\n", r.game.name, r.bytes)
		}
	}
	fmt.Printf("\ndone: downloaded %d, skipped %d, failed %d\n", downloaded, skipped, failed)

	if err := writeManifest(*outputDir, results); err != nil {
		fmt.Printf("failed to write manifest: %v\n", err)
	}
}

func parseVersions(flagValue string) map[uint8]bool {
	if flagValue == "" {
		return nil
	}
	wanted := make(map[uint8]bool)
	for _, field := range splitComma(flagValue) {
		var v uint8
		if _, err := fmt.Sscanf(field, "%d", &v); err == nil {
			wanted[v] = true
		}
	}
	return wanted
}

func splitComma(s string) []string {
	var fields []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			fields = append(fields, s[start:i])
			start = i + 1
		}
	}
	return append(fields, s[start:])
}

func fetchIndex(ctx context.Context, client *http.Client, wanted map[uint8]bool) ([]game, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return nil, err
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close() // nolint:errcheck
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status code: %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, err
	}

	var games []game
	doc.Find("dl dt").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Find("a").Attr("href")
		if !exists {
			return
		}
		m := gameFileRE.FindStringSubmatch(href)
		if m == nil {
			return
		}
		version := uint8(m[1][0] - '0')
		if wanted != nil && !wanted[version] {
			return
		}
		games = append(games, game{
			name:    filepath.Base(href),
			url:     "https://www.ifarchive.org" + href,
			version: version,
		})
	})
	return games, nil
}

func downloadAll(ctx context.Context, client *http.Client, games []game, outputDir string, concurrency int) []fetchResult {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]fetchResult, len(games))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, g := range games {
		wg.Add(1)
		go func(i int, g game) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = fetchOne(ctx, client, g, outputDir)
		}(i, g)
	}
	wg.Wait()
	return results
}

func fetchOne(ctx context.Context, client *http.Client, g game, outputDir string) fetchResult {
	destPath := filepath.Join(outputDir, g.name)
	if _, err := os.Stat(destPath); err == nil {
		return fetchResult{game: g, skipped: true}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return fetchResult{game: g, err: err}
	}
	res, err := client.Do(req)
	if err != nil {
		return fetchResult{game: g, err: err}
	}
	defer res.Body.Close() // nolint:errcheck
	if res.StatusCode != http.StatusOK {
		return fetchResult{game: g, err: fmt.Errorf("status %d", res.StatusCode)}
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fetchResult{game: g, err: err}
	}
	if err := os.WriteFile(destPath, data, 0644); err != nil {
		return fetchResult{game: g, err: err}
	}
	return fetchResult{game: g, bytes: len(data)}
}

type manifestEntry struct {
	Name    string `json:"name"`
	Version uint8  `json:"version"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// writeManifest records what cmd/gametest will find in outputDir, in the
// same JSON style as cmd/gametest's own test_results.json.
func writeManifest(outputDir string, results []fetchResult) error {
	entries := make([]manifestEntry, 0, len(results))
	for _, r := range results {
		status := "downloaded"
		errMsg := ""
		switch {
		case r.err != nil:
			status = "failed"
			errMsg = r.err.Error()
		case r.skipped:
			status = "skipped"
		}
		entries = append(entries, manifestEntry{
			Name:    r.game.name,
			Version: r.game.version,
			Status:  status,
			Error:   errMsg,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, "manifest.json"), data, 0644)
}
