// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/blinklabs-io/aftermarket/database"
	"github.com/blinklabs-io/aftermarket/database/models"
	"github.com/spf13/cobra"
)

func historyCommand() *cobra.Command {
	var opts database.ListOptions
	var asc bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded listing attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromCmd(cmd)
			if err != nil {
				return err
			}
			logger := commonRun()
			db, err := database.New(cfg.DatabasePath, logger)
			if db != nil {
				defer db.Close()
			}
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			opts.Descending = !asc
			attempts, total, err := db.ListAttempts(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return writeHistory(cmd.OutOrStdout(), attempts, total)
		},
	}
	cmd.Flags().IntVar(&opts.Count, "count", 20, "attempts per page")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().BoolVar(&asc, "asc", false, "show oldest attempts first")
	return cmd
}

func writeHistory(
	out io.Writer,
	attempts []models.ListingAttempt,
	total int64,
) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTATE\tCONDITION\tTX\tFINGERPRINTS")
	for _, attempt := range attempts {
		condition := attempt.Condition
		if condition == "" {
			condition = "-"
		}
		txId := attempt.TxId
		if txId == "" {
			txId = "-"
		}
		fmt.Fprintf(
			tw,
			"%d\t%s\t%s\t%s\t%s\t%s\n",
			attempt.ID,
			attempt.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			attempt.State,
			condition,
			txId,
			attempt.Fingerprints,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d of %d attempt(s)\n", len(attempts), total)
	return err
}
