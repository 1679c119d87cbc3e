package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/quilldb/quill/internal/engine"
)

var (
	flagDB      string
	flagOrder   int
	flagCommand string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "quill is an embedded SQL engine with an interactive prompt",
	Long: `quill persists a collection of typed tables to a single binary file and
accepts a small SQL dialect: table DDL, row DML, and SELECT with
projection, filtering, aggregation, and grouping.

Run with no -c flag to enter the interactive prompt.`,
	RunE: runRoot,
}

func init() {
	rootCmd.Flags().StringVar(&flagDB, "db", "", "path to the database file (in-memory if unset)")
	rootCmd.Flags().IntVar(&flagOrder, "order", engine.DefaultOrder, "B+ tree order for new tables")
	rootCmd.Flags().StringVarP(&flagCommand, "command", "c", "", "execute a single SQL statement and exit")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log engine internals at debug level")
}

func runRoot(cmd *cobra.Command, args []string) error {
	v, err := loadConfig()
	if err != nil {
		return fmt.Errorf("quill: load config: %w", err)
	}

	if !cmd.Flags().Changed("db") {
		flagDB = v.GetString("db")
	}
	if !cmd.Flags().Changed("order") {
		flagOrder = v.GetInt("order")
	}

	log := logrus.New()
	if flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	}

	e, err := engine.New(
		engine.WithFile(flagDB),
		engine.WithOrder(flagOrder),
		engine.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("quill: %w", err)
	}

	if flagCommand != "" {
		fmt.Println(e.Execute(flagCommand))
		return nil
	}

	return runREPL(e)
}
