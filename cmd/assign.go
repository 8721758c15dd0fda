package cmd

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldops/dispatch/config"
	"github.com/fieldops/dispatch/core/dispatch"
	"github.com/fieldops/dispatch/core/model"
	"github.com/fieldops/dispatch/core/score"
	"github.com/fieldops/dispatch/infra/logger"
	"github.com/fieldops/dispatch/pkg/export"
)

var (
	ticketsPath   string
	executorsPath string
	algorithmFlag string
	formatFlag    string
	seedFlag      int64
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Run a batch assignment over tickets and executors from JSON files",
	RunE:  runAssign,
}

func init() {
	assignCmd.Flags().StringVar(&ticketsPath, "tickets", "", "JSON file with the ticket list")
	assignCmd.Flags().StringVar(&executorsPath, "executors", "", "JSON file with the executor list")
	assignCmd.Flags().StringVar(&algorithmFlag, "algorithm", "", "greedy, population, annealing or hybrid (empty selects automatically)")
	assignCmd.Flags().StringVar(&formatFlag, "format", "json", "output format: json or csv")
	assignCmd.Flags().Int64Var(&seedFlag, "seed", 0, "random seed, 0 uses a time-based seed")
	if err := assignCmd.MarkFlagRequired("tickets"); err != nil {
		panic(err)
	}
	if err := assignCmd.MarkFlagRequired("executors"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(assignCmd)
}

func runAssign(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var tickets []model.Ticket
	if err := readJSON(ticketsPath, &tickets); err != nil {
		return fmt.Errorf("tickets: %w", err)
	}
	var executors []model.Executor
	if err := readJSON(executorsPath, &executors); err != nil {
		return fmt.Errorf("executors: %w", err)
	}
	for _, t := range tickets {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	for _, e := range executors {
		if err := e.Validate(); err != nil {
			return err
		}
	}

	alg, err := dispatch.ParseAlgorithm(algorithmFlag)
	if err != nil {
		return err
	}

	scorer, err := score.NewScorer(cfg.Scoring, cfg.ZoneMap())
	if err != nil {
		return fmt.Errorf("scorer: %w", err)
	}
	var rng *rand.Rand
	if seedFlag != 0 {
		rng = rand.New(rand.NewSource(seedFlag))
	}
	optimizer, err := dispatch.NewBatchOptimizer(cfg.Optimizer, scorer, logger.New("optimizer"), rng)
	if err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}

	decisions, err := optimizer.Optimize(tickets, executors, alg)
	if err != nil {
		return err
	}
	return export.Write(cmd.OutOrStdout(), formatFlag, decisions)
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
