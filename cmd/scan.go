package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pyneda/gqlsentinel/pkg/graphqlaudit"

	"github.com/fatih/color"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var scanConfigPath string
var validate = validator.New()

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a GraphQL API for introspection exposure, DoS and BOLA issues",
	Run:   runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanConfigPath, "config", "c", "", "path to the scan target config (YAML or JSON)")
	scanCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(scanCmd)
}

func loadScanTarget(path string) (graphqlaudit.ScanTarget, error) {
	var target graphqlaudit.ScanTarget

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return target, fmt.Errorf("reading config file: %w", err)
	}
	if err := v.Unmarshal(&target); err != nil {
		return target, fmt.Errorf("parsing scan target: %w", err)
	}
	if err := validate.Struct(target); err != nil {
		return target, fmt.Errorf("invalid scan target: %w", err)
	}
	return target, nil
}

func runScan(cmd *cobra.Command, args []string) {
	target, err := loadScanTarget(scanConfigPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load scan target")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("Received signal, cancelling scan")
		cancel()
	}()

	scanLog := log.With().Str("url", target.URL).Logger()
	scanLog.Info().Msg("Starting scan")

	result := graphqlaudit.RunScan(ctx, target)

	scanLog.Info().Str("status", string(result.Status)).Int("findings", len(result.Findings)).Msg("Scan finished")

	printFindings(result)

	if result.Status == graphqlaudit.ScanStatusFailed {
		os.Exit(1)
	}
	for _, f := range result.Findings {
		if f.Severity == graphqlaudit.SeverityCritical || f.Severity == graphqlaudit.SeverityHigh {
			os.Exit(1)
		}
	}
}

func severityColor(s graphqlaudit.Severity) *color.Color {
	switch s {
	case graphqlaudit.SeverityCritical:
		return color.New(color.FgRed, color.Bold)
	case graphqlaudit.SeverityHigh:
		return color.New(color.FgRed)
	case graphqlaudit.SeverityMedium:
		return color.New(color.FgYellow)
	case graphqlaudit.SeverityLow:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgBlue)
	}
}

func printFindings(result graphqlaudit.ScanResult) {
	if result.Error != "" {
		fmt.Fprintf(os.Stderr, "%s\n", color.New(color.FgRed, color.Bold).Sprintf("error: %s", result.Error))
	}

	sorted := graphqlaudit.SortedFindings(result.Findings)
	if len(sorted) == 0 {
		fmt.Println("No findings.")
		return
	}

	for _, f := range sorted {
		c := severityColor(f.Severity)
		fmt.Printf("[%s] %s\n", c.Sprint(f.Severity), f.Title)
		fmt.Printf("  %s\n", f.Description)
		if f.Recommendation != "" {
			fmt.Printf("  recommendation: %s\n", f.Recommendation)
		}
	}
}
