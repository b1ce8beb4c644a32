package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// target describes one endpoint called on both deployments. When RowsPath is set the
// responses are compared row by row on Key instead of byte for byte.
type target struct {
	Method   string   `json:"method"`
	Path     string   `json:"path"`
	Critical bool     `json:"critical"`
	RowsPath string   `json:"rowsPath"`
	Key      string   `json:"key"`
	Fields   []string `json:"fields"`
}

type config struct {
	Targets []target `json:"targets"`
}

type comparison struct {
	Target         target
	LegacyStatus   int
	GoStatus       int
	StatusMatch    bool
	BodyMatch      bool
	RowDiffs       []string
	Error          error
	DurationGo     time.Duration
	DurationLegacy time.Duration
}

func main() {
	var (
		goBase      string
		legacyBase  string
		targetsPath string
		timeout     time.Duration
		tolerance   float64
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:3000", "Legacy tryout service base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.Float64Var(&tolerance, "tolerance", 1e-6, "Allowed absolute difference between numeric fields")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)

	for _, t := range targets {
		comp := compareTarget(client, goBase, legacyBase, t, tolerance)
		if comp.Error != nil || !comp.StatusMatch || !comp.BodyMatch {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func compareTarget(client *http.Client, goBase, legacyBase string, tgt target, tolerance float64) comparison {
	comp := comparison{Target: tgt}
	goBody, goStatus, goDur, goErr := fetch(client, goBase, tgt)
	legacyBody, legacyStatus, legacyDur, legacyErr := fetch(client, legacyBase, tgt)
	comp.DurationGo = goDur
	comp.DurationLegacy = legacyDur

	if goErr != nil {
		comp.Error = fmt.Errorf("go request failed: %w", goErr)
		return comp
	}
	if legacyErr != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", legacyErr)
		return comp
	}

	comp.GoStatus = goStatus
	comp.LegacyStatus = legacyStatus
	comp.StatusMatch = goStatus == legacyStatus

	if tgt.RowsPath == "" {
		comp.BodyMatch = bodiesEqual(goBody, legacyBody)
		return comp
	}
	comp.RowDiffs = compareRows(goBody, legacyBody, tgt, tolerance)
	comp.BodyMatch = len(comp.RowDiffs) == 0
	return comp
}

func fetch(client *http.Client, base string, tgt target) ([]byte, int, time.Duration, error) {
	if client == nil {
		return nil, 0, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, time.Since(start), fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, time.Since(start), nil
}

// compareRows indexes both row sets by key and reports rows present on one side only
// and fields whose values differ.
func compareRows(goBody, legacyBody []byte, tgt target, tolerance float64) []string {
	key := tgt.Key
	if key == "" {
		key = "id_user"
	}
	fields := tgt.Fields
	if len(fields) == 0 {
		fields = []string{"rank", "total"}
	}

	goRows := indexRows(gjson.GetBytes(goBody, tgt.RowsPath), key)
	legacyRows := indexRows(gjson.GetBytes(legacyBody, tgt.RowsPath), key)

	var diffs []string
	for id, legacyRow := range legacyRows {
		goRow, ok := goRows[id]
		if !ok {
			diffs = append(diffs, fmt.Sprintf("%s=%s missing from go", key, id))
			continue
		}
		for _, field := range fields {
			if !valuesEqual(goRow.Get(field), legacyRow.Get(field), tolerance) {
				diffs = append(diffs, fmt.Sprintf("%s=%s %s: go=%s legacy=%s", key, id, field, goRow.Get(field).Raw, legacyRow.Get(field).Raw))
			}
		}
	}
	for id := range goRows {
		if _, ok := legacyRows[id]; !ok {
			diffs = append(diffs, fmt.Sprintf("%s=%s missing from legacy", key, id))
		}
	}
	sort.Strings(diffs)
	return diffs
}

func indexRows(rows gjson.Result, key string) map[string]gjson.Result {
	out := make(map[string]gjson.Result)
	rows.ForEach(func(_, row gjson.Result) bool {
		out[row.Get(key).String()] = row
		return true
	})
	return out
}

func valuesEqual(a, b gjson.Result, tolerance float64) bool {
	if a.Type == gjson.Number && b.Type == gjson.Number {
		return math.Abs(a.Float()-b.Float()) <= tolerance
	}
	return a.String() == b.String()
}

func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	return reflect.DeepEqual(aj, bj)
}

func printReport(results []comparison) {
	fmt.Println("Ranking Shadow Compare Report")
	fmt.Println("=============================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		fmt.Printf("  Go Status: %d (%s)\n", res.GoStatus, res.DurationGo)
		fmt.Printf("  Legacy Status: %d (%s)\n", res.LegacyStatus, res.DurationLegacy)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
		for _, diff := range res.RowDiffs {
			fmt.Printf("    - %s\n", diff)
		}
	}
}
