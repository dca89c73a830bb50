package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/astralisone/astralis-core/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify astralis configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/astralis/config.yaml
Project-specific overrides can be placed in .astralis.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s (%s)\n",
		config.MaskAPIKey(cfg.Anthropic.APIKey), config.GetAPIKeySource(cfg))
	fmt.Printf("anthropic.model: %s\n", orNotSet(cfg.Anthropic.Model))
	fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", orNotSet(cfg.Anthropic.AWSRegion))
	fmt.Printf("anthropic.aws_profile: %s\n", orNotSet(cfg.Anthropic.AWSProfile))
	fmt.Printf("orchestrator.evaluation_timeout: %s\n", cfg.Orchestrator.EvaluationTimeout)
	fmt.Printf("orchestrator.bus_buffer_size: %d\n", cfg.Orchestrator.BusBufferSize)
	fmt.Printf("scheduling.work_start_hour: %d\n", cfg.Scheduling.WorkStartHour)
	fmt.Printf("scheduling.work_end_hour: %d\n", cfg.Scheduling.WorkEndHour)
	fmt.Printf("scheduling.granularity_minutes: %d\n", cfg.Scheduling.GranularityMinutes)
	fmt.Printf("scheduling.scan_days: %d\n", cfg.Scheduling.ScanDays)
	fmt.Printf("scheduling.max_candidates: %d\n", cfg.Scheduling.MaxCandidates)
	fmt.Printf("scheduling.top_n: %d\n", cfg.Scheduling.TopN)
	fmt.Printf("database.path: %s\n", orNotSet(cfg.Database.Path))
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return orNotSet(cfg.Anthropic.Model), nil
	case "anthropic.use_aws_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseAWSBedrock), nil
	case "anthropic.aws_region":
		return orNotSet(cfg.Anthropic.AWSRegion), nil
	case "anthropic.aws_profile":
		return orNotSet(cfg.Anthropic.AWSProfile), nil
	case "orchestrator.evaluation_timeout":
		return cfg.Orchestrator.EvaluationTimeout.String(), nil
	case "orchestrator.bus_buffer_size":
		return strconv.Itoa(cfg.Orchestrator.BusBufferSize), nil
	case "scheduling.work_start_hour":
		return strconv.Itoa(cfg.Scheduling.WorkStartHour), nil
	case "scheduling.work_end_hour":
		return strconv.Itoa(cfg.Scheduling.WorkEndHour), nil
	case "scheduling.granularity_minutes":
		return strconv.Itoa(cfg.Scheduling.GranularityMinutes), nil
	case "scheduling.scan_days":
		return strconv.Itoa(cfg.Scheduling.ScanDays), nil
	case "scheduling.max_candidates":
		return strconv.Itoa(cfg.Scheduling.MaxCandidates), nil
	case "scheduling.top_n":
		return strconv.Itoa(cfg.Scheduling.TopN), nil
	case "database.path":
		return orNotSet(cfg.Database.Path), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_aws_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_aws_bedrock: %w", err)
		}
		cfg.Anthropic.UseAWSBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "orchestrator.evaluation_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for evaluation_timeout: %w", err)
		}
		cfg.Orchestrator.EvaluationTimeout = d
	case "orchestrator.bus_buffer_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for bus_buffer_size: %w", err)
		}
		cfg.Orchestrator.BusBufferSize = n
	case "scheduling.work_start_hour":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for work_start_hour: %w", err)
		}
		cfg.Scheduling.WorkStartHour = n
	case "scheduling.work_end_hour":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for work_end_hour: %w", err)
		}
		cfg.Scheduling.WorkEndHour = n
	case "scheduling.granularity_minutes":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for granularity_minutes: %w", err)
		}
		cfg.Scheduling.GranularityMinutes = n
	case "scheduling.scan_days":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for scan_days: %w", err)
		}
		cfg.Scheduling.ScanDays = n
	case "scheduling.max_candidates":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_candidates: %w", err)
		}
		cfg.Scheduling.MaxCandidates = n
	case "scheduling.top_n":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for top_n: %w", err)
		}
		cfg.Scheduling.TopN = n
	case "database.path":
		cfg.Database.Path = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
