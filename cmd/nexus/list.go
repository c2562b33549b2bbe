package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored model artifacts",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func runList(cmd *cobra.Command, args []string) error {
	svc, _, err := newService(false)
	if err != nil {
		return err
	}

	artifacts, err := svc.List(context.Background())
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		fmt.Println("No model artifacts found. Use 'nexus store' to add one.")
		return nil
	}

	sort.Slice(artifacts, func(i, j int) bool {
		if artifacts[i].ModelName != artifacts[j].ModelName {
			return artifacts[i].ModelName < artifacts[j].ModelName
		}
		return artifacts[i].Timestamp < artifacts[j].Timestamp
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tCOMMIT\tSTORAGE URI\tSIZE\tTIMESTAMP\tLATEST")
	for _, a := range artifacts {
		latest := ""
		if a.IsLatest {
			latest = "*"
		}
		ts := a.Timestamp
		if len(ts) > 19 {
			ts = ts[:19]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ModelName, a.CommitHash, a.StorageURI, formatSize(a.FileSize), ts, latest)
	}
	return w.Flush()
}

func formatSize(bytes int64) string {
	const mb = 1024 * 1024
	return fmt.Sprintf("%.2f MB", float64(bytes)/float64(mb))
}
