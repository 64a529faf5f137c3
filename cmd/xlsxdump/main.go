package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anfilat/xlsx-read"
)

var rootCmd = &cobra.Command{
	Use:   "xlsxdump [flags] FILE",
	Short: "Prints the sheets of an xlsx workbook",
	Long: `Prints the sheets of an xlsx workbook.

Output:
  json      one array of row objects per sheet (default)
  csv       comma separated values
  formulae  cell formulae and constants
  names     sheet names

Every flag can also be set in the config file or as an XLSXDUMP_ variable,
e.g. XLSXDUMP_OUTPUT=csv.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          dump,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.Flags()
	flags.String("config", "", "config file")
	flags.StringSliceP("sheet", "s", nil, "sheets to print (default all)")
	flags.StringP("output", "o", "json", "output format: json, csv, formulae or names")
	flags.Bool("base64", false, "FILE holds the workbook base64 encoded")
	flags.Bool("raw", false, "do not apply number formats")
	flags.Int("rows", 0, "read only the first N rows of each sheet")
	flags.BoolP("verbose", "v", false, "log skipped sheets and cells")

	for _, name := range []string{"sheet", "output", "base64", "raw", "rows", "verbose"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			log.Fatal(err)
		}
	}
}

func initConfig() {
	viper.SetEnvPrefix("XLSXDUMP")
	viper.AutomaticEnv()

	cfg, _ := rootCmd.Flags().GetString("config")
	if cfg == "" {
		return
	}
	viper.SetConfigFile(cfg)
	if err := viper.ReadInConfig(); err != nil {
		log.WithError(err).Fatalf("Failed to read config %q", cfg)
	}
}

func dump(cmd *cobra.Command, args []string) error {
	logger := log.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	if viper.GetBool("verbose") {
		logger.SetLevel(log.DebugLevel)
	}

	opts := []xlsx.Option{
		xlsx.WithLogger(logger),
		xlsx.WithSheetRows(viper.GetInt("rows")),
	}
	if viper.GetBool("raw") {
		opts = append(opts, xlsx.WithRawValues())
	}
	sheets := viper.GetStringSlice("sheet")
	if len(sheets) > 0 {
		opts = append(opts, xlsx.WithSheets(sheets...))
	}

	doc, err := open(args[0], viper.GetBool("base64"), opts)
	if err != nil {
		return err
	}
	return write(cmd.OutOrStdout(), doc, sheets, viper.GetString("output"))
}

func open(filename string, isBase64 bool, opts []xlsx.Option) (*xlsx.Document, error) {
	if !isBase64 {
		return xlsx.Open(filename, opts...)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return xlsx.OpenBase64(string(data), opts...)
}

func write(w io.Writer, doc *xlsx.Document, names []string, output string) error {
	if len(names) == 0 {
		names = doc.SheetNames
	}

	switch strings.ToLower(output) {
	case "names":
		for _, name := range doc.SheetNames {
			fmt.Fprintln(w, name)
		}
		return nil
	case "json":
		result := make(map[string][]map[string]any, len(names))
		for _, name := range names {
			sheet, err := doc.Sheet(name)
			if err != nil {
				return err
			}
			result[name] = sheet.RowObjects()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "csv":
		for i, name := range names {
			sheet, err := doc.Sheet(name)
			if err != nil {
				return err
			}
			if len(names) > 1 {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "# %s\n", name)
			}
			if err := sheet.WriteCSV(w); err != nil {
				return err
			}
		}
		return nil
	case "formulae":
		for _, name := range names {
			sheet, err := doc.Sheet(name)
			if err != nil {
				return err
			}
			for _, f := range sheet.Formulae() {
				fmt.Fprintf(w, "%s!%s\n", name, f)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown output format %q", output)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
