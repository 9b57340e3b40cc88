// Command gensample writes a synthetic AirQualityUCI-style CSV file for
// exercising the ingestion pipeline, and prints the row and index statistics
// the pipeline should report for it.
//
// Usage:
//
//	go run ./cmd/gensample --rows 2000 --malformed 0.02 -o testdata/sample.csv
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
)

// missingValue is how the source dataset marks an absent reading.
const missingValue = -200

var header = []string{
	"Date", "Time", "CO(GT)", "PT08.S1(CO)", "NMHC(GT)", "C6H6(GT)", "PT08.S2(NMHC)",
	"NOx(GT)", "PT08.S3(NOx)", "NO2(GT)", "PT08.S4(NO2)", "PT08.S5(O3)", "T", "RH", "AH", "", "",
}

type genConfig struct {
	rows      int
	start     time.Time
	seed      uint64
	missing   float64
	malformed float64
}

type stats struct {
	rows      int
	malformed int
	aqiValid  int
	aqiMin    int
	aqiMax    int
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rows := flag.IntP("rows", "n", 1000, "number of data rows")
	start := flag.String("start", "2004-03-10T18:00:00Z", "timestamp of the first row (RFC 3339)")
	seed := flag.Uint64("seed", 1, "random seed")
	missing := flag.Float64("missing", 0.05, "share of readings replaced by the -200 marker")
	malformed := flag.Float64("malformed", 0.01, "share of rows with an unusable date or time")
	out := flag.StringP("out", "o", "", "output path (stdout if empty)")
	flag.Parse()

	startAt, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	cfg := genConfig{rows: *rows, start: startAt, seed: *seed, missing: *missing, malformed: *malformed}

	w := io.Writer(os.Stdout)
	if *out != "" {
		if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
			return err
		}
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	s, err := generate(w, cfg)
	if err != nil {
		return err
	}

	log.Printf("rows=%d malformed=%d expected_processed=%d", s.rows, s.malformed, s.rows-s.malformed)
	log.Printf("air_quality_index defined=%d min=%d max=%d", s.aqiValid, s.aqiMin, s.aqiMax)
	return nil
}

func generate(w io.Writer, cfg genConfig) (stats, error) {
	rng := rand.New(rand.NewPCG(cfg.seed, cfg.seed^0x9e3779b97f4a7c15))
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(header); err != nil {
		return stats{}, err
	}

	s := stats{aqiMin: -1, aqiMax: -1}
	for i := range cfg.rows {
		ts := cfg.start.Add(time.Duration(i) * time.Hour)
		date, clock := ts.Format("02/01/2006"), ts.Format("15.04.05")
		if rng.Float64() < cfg.malformed {
			s.malformed++
			if rng.IntN(2) == 0 {
				date = ts.Format("2006-01-02")
			} else {
				clock = ""
			}
		}

		co := reading(rng, cfg.missing, 0.1, 11.9, 1)
		no2 := reading(rng, cfg.missing, 2, 340, 0)
		o3 := reading(rng, cfg.missing, 221, 2523, 0)

		record := []string{
			date, clock,
			co,
			reading(rng, cfg.missing, 647, 2040, 0),
			reading(rng, cfg.missing, 7, 1189, 0),
			reading(rng, cfg.missing, 0.1, 63.7, 1),
			reading(rng, cfg.missing, 383, 2214, 0),
			reading(rng, cfg.missing, 2, 1479, 0),
			reading(rng, cfg.missing, 322, 2683, 0),
			no2,
			reading(rng, cfg.missing, 551, 2775, 0),
			o3,
			reading(rng, cfg.missing, -1.9, 44.6, 1),
			reading(rng, cfg.missing, 9.2, 88.7, 1),
			reading(rng, cfg.missing, 0.1847, 2.231, 4),
			"", "",
		}
		if err := cw.Write(record); err != nil {
			return s, err
		}

		s.rows++
		if date != "" && clock != "" && !strings.Contains(date, "-") {
			s.observe(domain.CompositeIndex(domain.ParseFloat(co), domain.ParseFloat(no2), domain.ParseFloat(o3)))
		}
	}

	cw.Flush()
	return s, cw.Error()
}

func (s *stats) observe(idx domain.Index) {
	v, ok := idx.Get()
	if !ok {
		return
	}
	s.aqiValid++
	if s.aqiMin < 0 || v < s.aqiMin {
		s.aqiMin = v
	}
	if v > s.aqiMax {
		s.aqiMax = v
	}
}

// reading draws a value in [lo, hi] formatted with a comma decimal mark, or
// the missing marker.
func reading(rng *rand.Rand, missing, lo, hi float64, decimals int) string {
	if rng.Float64() < missing {
		return strconv.Itoa(missingValue)
	}
	v := lo + rng.Float64()*(hi-lo)
	return strings.Replace(strconv.FormatFloat(v, 'f', decimals, 64), ".", ",", 1)
}
