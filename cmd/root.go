package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pyneda/gqlsentinel/lib"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string
var debugLogging bool
var prettyLogs bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gqlsentry",
	Short: "GraphQL BOLA/DoS security scanner",
	Long: `gqlsentry probes a GraphQL API for introspection exposure,
depth/pagination denial-of-service and broken object level
authorization, given a target URL and a set of authenticated user
contexts.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gqlsentry.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Use debug level logging")
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty", true, "Use pretty logging instead JSON")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("pretty") {
			format := "json"
			if prettyLogs {
				format = "pretty"
			}
			viper.Set("logging.console.format", format)
		}
		lib.ZeroConsoleAndFileLog()
		if debugLogging {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
		return nil
	}

	configCmd.AddCommand(configDumpCmd)
	configDumpCmd.Flags().StringP("output", "o", "config.yml", "Output file path")
	configDumpCmd.Flags().BoolP("force", "f", false, "Force overwrite existing file")
	rootCmd.AddCommand(configCmd)
}

// configCmd prints the scanner's effective configuration (defaults
// merged with whatever --config/env overrides are in effect).
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the scanner's effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		file := viper.ConfigFileUsed()
		fmt.Printf("Using config file: %s\n", file)
		fmt.Println("Current configuration:")
		settings := viper.AllSettings()
		output, _ := yaml.Marshal(settings)
		fmt.Println(string(output))
	},
}

// configDumpCmd writes the effective configuration to a file, useful
// for seeding a .gqlsentry.yaml from the built-in defaults.
var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the scanner's configuration to file",
	Run: func(cmd *cobra.Command, args []string) {
		outputPath, _ := cmd.Flags().GetString("output")
		force, _ := cmd.Flags().GetBool("force")

		if outputPath == "" {
			fmt.Println("Output path is required")
			os.Exit(1)
		}

		if _, err := os.Stat(outputPath); err == nil && !force {
			fmt.Printf("File %s already exists. Use --force to overwrite.\n", outputPath)
			os.Exit(1)
		}

		dir := filepath.Dir(outputPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("Error creating directory %s: %s\n", dir, err)
			os.Exit(1)
		}

		viper.SetConfigFile(outputPath)
		if err := viper.WriteConfigAs(outputPath); err != nil {
			fmt.Printf("Error writing config: %s\n", err)
			os.Exit(1)
		}

		fmt.Printf("Configuration saved to %s\n", outputPath)
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".gqlsentry" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".gqlsentry")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
