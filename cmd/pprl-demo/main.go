// Command pprl-demo exercises the embed/compare/match pipeline end to end
// against either a configured pair of real datasets or a synthetic pair.
// For the configured pair it reports the number of matched pairs; for the
// synthetic pair it also reports precision/recall/F1 against the
// generator's known ground truth. It is a
// thin driver over internal/pprl, not the production interface: real
// deployments call the library from their own orchestration. Grounded on
// cmd/agent/main.go (flag-or-prompt mode and config
// selection) and cmd/validate/main.go (interactive-vs-flag evaluation
// reporting), with cmd/cohort-bridge's promptui menu-selection idiom kept
// for interactive use.
package main

import (
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/manifoldco/promptui"

	"github.com/auroradata-ai/pprl-core/internal/config"
	"github.com/auroradata-ai/pprl-core/internal/pprl"
	"github.com/auroradata-ai/pprl-core/internal/pprllog"
	"github.com/auroradata-ai/pprl-core/internal/table"
)

func main() {
	fmt.Println("pprl-core demo")

	configFlag := flag.String("config", "", "Path to config YAML file")
	syntheticFlag := flag.Bool("synthetic", false, "Run against a generated synthetic dataset pair instead of config's datasets")
	interactiveFlag := flag.Bool("interactive", false, "Drop into an interactive match-lookup prompt after matching")
	flag.Parse()

	if *syntheticFlag {
		runSynthetic(*interactiveFlag)
		return
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = promptForConfigPath()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading config:", err)
		os.Exit(1)
	}
	logOut := io.Writer(os.Stderr)
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error opening log file:", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	pprllog.Init(pprllog.ParseLevel(cfg.Logging.Level), logOut)

	runConfigured(cfg, *interactiveFlag)
}

func promptForConfigPath() string {
	var yamlFiles []string
	_ = filepath.Walk(".", func(path string, info fs.FileInfo, err error) error {
		if err == nil && !info.IsDir() && strings.HasSuffix(info.Name(), ".yaml") {
			yamlFiles = append(yamlFiles, path)
		}
		return nil
	})
	if len(yamlFiles) == 0 {
		yamlFiles = append(yamlFiles, "config.yaml")
	}

	prompt := promptui.Select{Label: "Select config file", Items: yamlFiles}
	_, path, err := prompt.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "prompt failed:", err)
		os.Exit(1)
	}
	return path
}

func runConfigured(cfg *config.Config, interactive bool) {
	salt, err := cfg.Embedder.SaltBytes()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid salt:", err)
		os.Exit(1)
	}
	embedderCfg, err := pprl.NewEmbedderConfig(cfg.Embedder.M, cfg.Embedder.K, salt, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid embedder config:", err)
		os.Exit(1)
	}

	t1, err := openTable(cfg.Dataset1)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dataset1:", err)
		os.Exit(1)
	}
	t2, err := openTable(cfg.Dataset2)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dataset2:", err)
		os.Exit(1)
	}

	factory := pprl.NewFeatureFactory()
	embedder := pprl.NewEmbedder(embedderCfg, factory)

	ds1, err := embedder.Embed(t1, cfg.Dataset1.ToColumnSpec(), true)
	if err != nil {
		fmt.Fprintln(os.Stderr, "embed dataset1:", err)
		os.Exit(1)
	}
	ds2, err := embedder.Embed(t2, cfg.Dataset2.ToColumnSpec(), true)
	if err != nil {
		fmt.Fprintln(os.Stderr, "embed dataset2:", err)
		os.Exit(1)
	}

	sim, err := pprl.Compare(ds1, ds2)
	if err != nil {
		fmt.Fprintln(os.Stderr, "compare:", err)
		os.Exit(1)
	}

	matching, err := pprl.Match(sim, cfg.Matching.ToMatchOptions())
	if err != nil {
		fmt.Fprintln(os.Stderr, "match:", err)
		os.Exit(1)
	}

	fmt.Printf("matched %d pairs out of %d x %d rows\n", len(matching.Left), ds1.Len(), ds2.Len())
	if interactive {
		runLookupPrompt(sim, matching)
	}
}

func openTable(ds config.DatasetSettings) (pprl.Table, error) {
	switch ds.Source {
	case "csv":
		return table.LoadCSV(ds.Path)
	case "postgres":
		return table.OpenPostgresTable(ds.DSN, ds.Table)
	default:
		return nil, fmt.Errorf("unknown dataset source %q", ds.Source)
	}
}

func runSynthetic(interactive bool) {
	pair := pprl.GenerateSyntheticPair(pprl.SyntheticConfig{
		Records1: 200, Records2: 220, OverlapRate: 0.8, NoiseRate: 0.15, Seed: 1,
	})

	embedderCfg, err := pprl.NewEmbedderConfig(4096, 20, []byte("pprl-demo-salt"), nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "embedder config:", err)
		os.Exit(1)
	}
	factory := pprl.NewFeatureFactory()
	embedder := pprl.NewEmbedder(embedderCfg, factory)

	spec := pprl.ColumnSpec{
		"first_name": {Type: "name", Label: "name"},
		"last_name":  {Type: "name", Label: "name"},
		"dob":        {Type: "dob"},
		"sex":        {Type: "sex"},
		"address":    {Type: "token", Label: "address"},
	}

	ds1, err := embedder.Embed(pair.Left, spec, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, "embed left:", err)
		os.Exit(1)
	}
	ds2, err := embedder.Embed(pair.Right, spec, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, "embed right:", err)
		os.Exit(1)
	}

	sim, err := pprl.Compare(ds1, ds2)
	if err != nil {
		fmt.Fprintln(os.Stderr, "compare:", err)
		os.Exit(1)
	}
	matching, err := pprl.Match(sim, pprl.MatchOptions{RequireThresholds: true})
	if err != nil {
		fmt.Fprintln(os.Stderr, "match:", err)
		os.Exit(1)
	}

	eval := pprl.Evaluate(matching, pair.GroundTruth)
	fmt.Printf("matched %d pairs; precision=%.3f recall=%.3f f1=%.3f\n",
		len(matching.Left), eval.Precision, eval.Recall, eval.F1Score)

	if interactive {
		runLookupPrompt(sim, matching)
	}
}

// runLookupPrompt opens a small REPL for inspecting match results
// interactively, keyed by left row index.
func runLookupPrompt(sim *pprl.SimilarityMatrix, matching *pprl.Matching) {
	rl, err := readline.New("pprl> ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "readline:", err)
		return
	}
	defer rl.Close()

	byLeft := make(map[int]int, len(matching.Left))
	for k := range matching.Left {
		byLeft[matching.Left[k]] = matching.Right[k]
	}

	fmt.Println("enter a left row index to see its match, or 'quit'")
	for {
		line, err := rl.Readline()
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		var idx int
		if _, err := fmt.Sscanf(line, "%d", &idx); err != nil {
			fmt.Println("not a row index:", line)
			continue
		}
		if idx < 0 || idx >= sim.Rows {
			fmt.Println("row out of range")
			continue
		}
		right, ok := byLeft[idx]
		if !ok {
			fmt.Println("no match for that row")
			continue
		}
		fmt.Printf("row %d -> row %d (score %.4f)\n", idx, right, sim.At(idx, right))
	}
}
