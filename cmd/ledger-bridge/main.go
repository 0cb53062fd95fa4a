package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/nimec77/ledger-bridge/pkg/config"
	"github.com/nimec77/ledger-bridge/pkg/parser"
)

var (
	cfgFile   string
	inputPath string
	outPath   string
	debugDump bool
)

var rootCmd = &cobra.Command{
	Use:   "ledger-bridge",
	Short: "Convert bank statements between CSV, MT940 and CAMT.053",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert [flags]",
	Short: "Decode a statement and re-encode it in another format",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = log.InfoLevel
		}
		logger := log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "ledger-bridge",
			Level:           level,
		})

		inFormat, err := parser.ParseFormat(cfg.InFormat)
		if err != nil {
			return err
		}
		outFormat, err := parser.ParseFormat(cfg.OutFormat)
		if err != nil {
			return err
		}

		data, err := readInput(inputPath)
		if err != nil {
			return err
		}

		p := parser.New(logger)
		if cfg.CSVLayout != "" {
			layout, err := parser.ParseCSVLayout(cfg.CSVLayout)
			if err != nil {
				return err
			}
			p = p.WithCSVLayout(layout)
		}
		if cfg.DialectProfile != "" {
			dialect, err := parser.LoadDialect(cfg.DialectProfile)
			if err != nil {
				return err
			}
			p = p.WithDialect(dialect)
		}

		st, err := p.Decode(data, inFormat)
		if err != nil {
			return err
		}
		logger.Info("decoded statement",
			"format", inFormat,
			"account", st.AccountNumber,
			"transactions", len(st.Transactions))

		if debugDump {
			pp.Fprintln(os.Stderr, st)
		}

		out, closeOut, err := openOutput(outPath)
		if err != nil {
			return err
		}
		defer closeOut()

		return p.Encode(st, out, outFormat)
	},
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is config.yaml)")

	convertCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input file (default stdin)")
	convertCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default stdout)")
	convertCmd.Flags().String("in-format", "", "Input format: csv, mt940, camt053")
	convertCmd.Flags().String("out-format", "", "Output format: csv, mt940, camt053")
	convertCmd.Flags().String("csv-layout", "", "CSV layout written by the encoder: simple or heuristic")
	convertCmd.Flags().String("dialect-profile", "", "YAML dialect profile for positional CSV exports")
	convertCmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")
	convertCmd.Flags().BoolVar(&debugDump, "debug", false, "Dump the decoded statement to stderr")

	rootCmd.AddCommand(convertCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
