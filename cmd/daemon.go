package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/theirongolddev/budgetdash/internal/cli"
	"github.com/theirongolddev/budgetdash/internal/daemon"
	"github.com/theirongolddev/budgetdash/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonInbox        string
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the budget daemon with HTTP/SSE endpoints and an upload inbox",
	Long: "Serve the model over a local HTTP API and, when an inbox directory is\n" +
		"configured, reconcile files dropped into it on every scan.",
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and model status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default: config daemon.addr)")
	pf.DurationVar(&flagDaemonInterval, "interval", 0, "Inbox scan interval (default: config daemon.interval_sec)")
	pf.StringVar(&flagDaemonInbox, "inbox", "", "Inbox directory to reconcile from (default: config daemon.inbox_dir)")
	pf.StringVar(&flagDaemonPIDFile, "pid-file", "", "Runtime file holding pid and address (default: <data-dir>/budgetdashd.json)")
	pf.StringVar(&flagDaemonLogFile, "log-file", "", "Log file for detached mode (default: <data-dir>/budgetdashd.log)")
	pf.IntVar(&flagDaemonEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default: config daemon.events_buffer)")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// resolveDaemonFlags fills daemon flags the user left unset from the config
// and the data directory.
func resolveDaemonFlags() {
	dir := flagDataDir
	if dir == "" {
		dir = pipeline.DataDir()
	}
	if flagDaemonPIDFile == "" {
		flagDaemonPIDFile = filepath.Join(dir, "budgetdashd.json")
	}
	if flagDaemonLogFile == "" {
		flagDaemonLogFile = filepath.Join(dir, "budgetdashd.log")
	}
	if flagDaemonAddr == "" {
		flagDaemonAddr = cfg.Daemon.Addr
	}
	if flagDaemonInterval <= 0 && cfg.Daemon.IntervalSec > 0 {
		flagDaemonInterval = time.Duration(cfg.Daemon.IntervalSec) * time.Second
	}
	if flagDaemonInbox == "" {
		flagDaemonInbox = cfg.Daemon.InboxDir
	}
	if flagDaemonEventsBuffer <= 0 {
		flagDaemonEventsBuffer = cfg.Daemon.EventsBuffer
	}
}

func runDaemon(_ *cobra.Command, _ []string) error {
	resolveDaemonFlags()
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("--detach and --child cannot be combined")
	}
	if err := ensureNoDaemon(flagDaemonPIDFile); err != nil {
		return err
	}

	if flagDaemonDetach {
		pid, err := spawnDetached(os.Args[1:], flagDaemonLogFile)
		if err != nil {
			return err
		}
		fmt.Printf("  Started daemon (pid %d)\n", pid)
		fmt.Printf("  API: http://%s/v1/status\n", flagDaemonAddr)
		fmt.Printf("  Log: %s\n", flagDaemonLogFile)
		return nil
	}
	return serveDaemon()
}

func serveDaemon() error {
	r, err := newReconciler()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	svc, err := daemon.New(daemon.Config{
		DataDir:      flagDataDir,
		SeedPath:     flagSeed,
		InboxDir:     flagDaemonInbox,
		DefaultUnit:  cfg.General.DefaultUnit,
		Interval:     flagDaemonInterval,
		Addr:         flagDaemonAddr,
		EventsBuffer: flagDaemonEventsBuffer,
		Reconciler:   r,
		Observer:     daemon.NewLogObserver(os.Stderr),
	}, st)
	if err != nil {
		return err
	}

	rt := daemonRuntime{
		PID:       os.Getpid(),
		Addr:      flagDaemonAddr,
		StartedAt: time.Now(),
		DataDir:   flagDataDir,
		InboxDir:  flagDaemonInbox,
	}
	if err := rt.write(flagDaemonPIDFile); err != nil {
		return err
	}
	defer func() { _ = os.Remove(flagDaemonPIDFile) }()

	fmt.Printf("  budgetdash daemon listening on http://%s\n", flagDaemonAddr)
	if flagDaemonInbox != "" {
		fmt.Printf("  Scanning %s every %s\n", flagDaemonInbox, flagDaemonInterval)
	} else {
		fmt.Println("  Inbox disabled; uploads via POST /v1/uploads")
	}
	if st == nil {
		fmt.Println("  --no-store: changes are kept in memory only")
	}
	fmt.Println("  Stop with: budgetdash daemon stop")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	resolveDaemonFlags()
	rt, err := readDaemonRuntime(flagDaemonPIDFile)
	if err != nil {
		fmt.Println("  Daemon: not running")
		return nil
	}
	if !rt.alive() {
		fmt.Printf("  Daemon: stale runtime file (pid %d not alive)\n", rt.PID)
		return nil
	}

	fmt.Printf("  Daemon PID: %d (up %s)\n", rt.PID, time.Since(rt.StartedAt).Round(time.Second))
	fmt.Printf("  Address: http://%s\n", rt.Addr)

	st, err := fetchStatus(rt.Addr)
	if err != nil {
		fmt.Printf("  API: %v\n", err)
		return nil
	}

	if st.LastScanAt.IsZero() {
		fmt.Println("  Last scan: pending")
	} else {
		fmt.Printf("  Last scan: %s (%d scans)\n", st.LastScanAt.Local().Format(time.RFC3339), st.ScanCount)
	}
	if st.InboxDir != "" {
		fmt.Printf("  Inbox: %s (%d file(s) ingested)\n", st.InboxDir, st.Ingested)
	}
	sum := st.Summary
	fmt.Printf("  Model: %s, %d unit(s), %d record(s) from %s %s\n",
		sum.FinancialYear, sum.Units, sum.Records, sum.Origin, shortID(sum.SnapshotID))
	fmt.Print(cli.RenderKV([][2]string{
		{"Actual", cli.FormatMoney(sum.Actual)},
		{"Anticipated", cli.FormatMoney(sum.Anticipated)},
		{"Variance", cli.RenderVariance(sum.Variance)},
		{"Events", fmt.Sprintf("%d (%d subscriber(s))", st.EventCount, st.SubscriberCount)},
	}))
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func fetchStatus(addr string) (daemon.Status, error) {
	var st daemon.Status
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short status request
	if err != nil {
		return st, fmt.Errorf("unreachable (%w)", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response (%w)", err)
	}
	return st, nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	resolveDaemonFlags()
	rt, err := readDaemonRuntime(flagDaemonPIDFile)
	if err != nil {
		return errors.New("daemon is not running")
	}
	if err := rt.stop(8 * time.Second); err != nil {
		return err
	}
	_ = os.Remove(flagDaemonPIDFile)
	fmt.Printf("  Stopped daemon (pid %d)\n", rt.PID)
	return nil
}
