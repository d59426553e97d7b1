// Command inspect parses saved feed files offline and prints the resulting
// observation and rule outcomes as JSON. It touches no network or backend.
//
// Usage:
//
//	go run ./cmd/inspect -feed testdata/41117.txt [-spec testdata/41117.spec] [-station 41117]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/swell-alert-etl/internal/domain"
)

type result struct {
	Observation domain.Observation   `json:"observation"`
	Alerts      []domain.AlertResult `json:"alerts"`
}

func main() {
	feed := flag.String("feed", "", "path to a standard (.txt) or JSON feed file")
	spec := flag.String("spec", "", "optional path to a spectral (.spec) feed file")
	station := flag.String("station", "", "station id (default: feed file name without extension)")
	flag.Parse()

	if *feed == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(os.Stdout, *feed, *spec, *station); err != nil {
		fmt.Fprintln(os.Stderr, "inspect:", err)
		os.Exit(1)
	}
}

func run(w io.Writer, feedPath, specPath, station string) error {
	if station == "" {
		station = strings.TrimSuffix(filepath.Base(feedPath), filepath.Ext(feedPath))
	}

	body, err := os.ReadFile(feedPath)
	if err != nil {
		return err
	}
	obs, err := domain.ParseFeed(string(body), station)
	if err != nil {
		return err
	}

	if specPath != "" {
		body, err := os.ReadFile(specPath)
		if err != nil {
			return err
		}
		spectral, err := domain.ParseText(string(body), station)
		if err != nil {
			return err
		}
		obs = domain.MergeSpectral(obs, spectral)
	}

	out := result{
		Observation: obs,
		Alerts:      domain.NewEvaluator(domain.DefaultThresholds()).EvaluateObservation(obs),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
