package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/cli"

	"github.com/spf13/cobra"
)

var (
	flagHistoryLimit int
	flagPruneKeep    int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List ingested uploads, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored model snapshots",
	Args:  cobra.NoArgs,
	RunE:  runSnapshots,
}

var snapshotsRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Make an older snapshot current again (ID prefixes work)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotsRestore,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Max rows to show (0 for all)")
	snapshotsCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Max rows to show (0 for all)")
	snapshotsCmd.Flags().IntVar(&flagPruneKeep, "prune", 0, "Delete all but the newest N snapshots")
	snapshotsCmd.AddCommand(snapshotsRestoreCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

var errNeedStore = errors.New("this command needs the snapshot store; drop --no-store")

func runHistory(_ *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	if st == nil {
		return errNeedStore
	}
	defer closeStore(st)

	ups, err := st.ListUploads(flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(ups) == 0 {
		fmt.Println("\n  No uploads yet. Try `budgetdash upload <file>`.")
		return nil
	}

	var rows [][]string
	for _, u := range ups {
		rows = append(rows, []string{
			u.CreatedAt.Local().Format("2006-01-02 15:04"),
			u.Name,
			u.Origin,
			u.Format,
			strconv.Itoa(u.Rows),
			strconv.Itoa(u.Applied),
			strconv.Itoa(u.Dropped),
			strings.Join(u.Units, ","),
			shortID(u.SnapshotID),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Upload history",
		Headers:  []string{"When", "Name", "Origin", "Format", "Rows", "Applied", "Dropped", "Units", "Snapshot"},
		Rows:     rows,
		LeftCols: 4,
	}))
	return nil
}

func runSnapshots(_ *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	if st == nil {
		return errNeedStore
	}
	defer closeStore(st)

	if flagPruneKeep > 0 {
		n, err := st.Prune(flagPruneKeep)
		if err != nil {
			return err
		}
		fmt.Printf("  Pruned %d snapshot(s)\n", n)
	}

	snaps, err := st.ListSnapshots(flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println("\n  No snapshots stored. The built-in or file seed is in use.")
		return nil
	}

	var rows [][]string
	for _, s := range snaps {
		rows = append(rows, []string{
			shortID(s.ID),
			strconv.FormatInt(s.Seq, 10),
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			cli.FormatAge(s.CreatedAt),
			s.FinancialYear,
			strconv.Itoa(s.Units),
			s.Note,
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Snapshots",
		Headers:  []string{"ID", "Seq", "Created", "Age", "FY", "Units", "Note"},
		Rows:     rows,
		LeftCols: 1,
	}))
	return nil
}

func runSnapshotsRestore(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	if st == nil {
		return errNeedStore
	}
	defer closeStore(st)

	b, snap, err := st.LoadSnapshot(args[0])
	if err != nil {
		return err
	}
	return saveBudget(st, b, "restore "+shortID(snap.ID))
}
