package cmd

import (
	"io"

	"replex/internal/formatting"
	pkgstrings "replex/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var librariesOutput string

var librariesCmd = &cobra.Command{
	Use:     "libraries",
	Aliases: []string{"libs"},
	Short:   "List the library sections of the media server",
	Long: `Connect to the stored media server with the account token and list
its library sections. Discovery runs first when no server has been
selected yet.`,
	Args: cobra.NoArgs,
	RunE: runLibraries,
}

func init() {
	rootCmd.AddCommand(librariesCmd)
	librariesCmd.Flags().StringVarP(&librariesOutput, "output", "o", "table", "Output format (table, json, yaml)")
}

func runLibraries(cmd *cobra.Command, args []string) error {
	format, err := formatting.ParseFormat(librariesOutput)
	if err != nil {
		return err
	}

	application, err := newApplication(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	server, err := application.MediaServer(ctx)
	if err != nil {
		return asAuthRequired(err)
	}

	identity, err := server.Identity(ctx)
	if err != nil {
		return asAuthRequired(err)
	}

	sections, err := server.Sections(ctx)
	if err != nil {
		return asAuthRequired(err)
	}

	return formatting.Write(cmd.OutOrStdout(), format, sections, func(out io.Writer) {
		quietPrintf(out, "Server: %s (version %s)\n", text.FgHiCyan.Sprint(server.BaseURL()), identity.Version)
		if len(sections) == 0 {
			formatting.Empty(out, "No libraries found")
			return
		}

		t := formatting.NewTable(out, "KEY", "TITLE", "TYPE")
		for _, s := range sections {
			t.AppendRow([]interface{}{s.Key, formatting.Name(pkgstrings.Truncate(s.Title, pkgstrings.DefaultCellMaxLen)), s.Type})
		}
		t.Render()

		if !quiet {
			formatting.Total(out, len(sections), "libraries")
		}
	})
}
