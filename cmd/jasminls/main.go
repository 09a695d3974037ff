package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"jasminls/internal/config"
	"jasminls/internal/lsp"
	"jasminls/internal/workspace"
)

const version = "0.1.0"

var (
	rootCmd = &cobra.Command{
		Use:   "jasminls",
		Short: "Language server for Jasmin assembly sources",
	}
	verbosity int
	logFile   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbose", "v", 0, "Log verbosity (0-2)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to a file instead of stderr")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(symbolsCmd)
}

func configureLogging() {
	if logFile != "" {
		commonlog.Configure(verbosity, &logFile)
		return
	}
	commonlog.Configure(verbosity, nil)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server on stdin/stdout",
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging()

		ws := workspace.New("")
		server := lsp.NewServer(ws, version)
		if err := server.RunStdio(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [master-file]",
	Short: "Report diagnostics for a master file and its dependency tree",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging()

		root, err := os.Getwd()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		ws := workspace.New(root)
		master := ""
		if cfg, _ := config.LoadWorkspaceConfig(root); cfg != nil {
			if len(cfg.NamespacePaths) > 0 {
				ws.SetNamespacePaths(cfg.NamespaceMap(), nil)
			}
			master = cfg.Project.MasterFile
		}
		if len(args) > 0 {
			master, err = filepath.Abs(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		}
		if master == "" {
			fmt.Fprintln(os.Stderr, "no master file: pass one or set project.master_file in jasminls.yaml")
			os.Exit(1)
		}

		ws.SetMasterFile(master)

		total := 0
		for _, path := range ws.MasterTree() {
			for _, d := range ws.Diagnostics(path) {
				total++
				level := "error"
				if d.Severity == workspace.SeverityWarning {
					level = "warning"
				}
				fmt.Printf("%s:%d:%d: %s: %s\n", path, d.Range.Start.Line+1, d.Range.Start.Col+1, level, d.Message)
			}
		}
		if total > 0 {
			fmt.Printf("%d problem(s) in %d file(s)\n", total, len(ws.MasterTree()))
			os.Exit(1)
		}
		fmt.Printf("no problems in %d file(s)\n", len(ws.MasterTree()))
	},
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file>",
	Short: "Dump the symbol outline of a source file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging()

		path, err := filepath.Abs(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		ws := workspace.New(filepath.Dir(path))
		syms := ws.DocumentSymbols(path)
		if syms == nil {
			fmt.Fprintf(os.Stderr, "cannot read %s\n", path)
			os.Exit(1)
		}
		for _, sym := range syms {
			fmt.Printf("%-9s %s", sym.Kind, sym.Name)
			if sym.Detail != "" {
				fmt.Printf(" %s", sym.Detail)
			}
			fmt.Printf(" [line %d]\n", sym.SelectionRange.Start.Line+1)
			for _, child := range sym.Children {
				fmt.Printf("  %-9s %s: %s\n", child.Kind, child.Name, child.Detail)
			}
		}
	},
}
