// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"time"

	"github.com/outrigdev/stdiolog"
	"github.com/outrigdev/stdiolog/pkg/base"
	"github.com/outrigdev/stdiolog/pkg/bridge"
	"github.com/outrigdev/stdiolog/pkg/bridge/membridge"
	"github.com/outrigdev/stdiolog/pkg/config"
	"github.com/outrigdev/stdiolog/pkg/ds"
	"github.com/outrigdev/stdiolog/pkg/redirect"
	"github.com/spf13/cobra"
)

const drainTimeout = 5 * time.Second

// demoBridge stands in for the managed runtime: the callback prints to a copy
// of the original stdout so its output does not loop back into the redirect
func demoBridge(out io.Writer) *membridge.MemBridge {
	mb := membridge.New()
	mb.RegisterLogFn(bridge.DefaultTarget(), func(msg string) error {
		_, err := fmt.Fprintf(out, "[bridge] %s\n", msg)
		return err
	})
	return mb
}

func makeConfig(cmd *cobra.Command) (*ds.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("sinks") {
		sinksStr, _ := flags.GetString("sinks")
		if cfg.Sinks, err = ds.ParseSinkSelection(sinksStr); err != nil {
			return nil, err
		}
	}
	if flags.Changed("tag") {
		cfg.Tag, _ = flags.GetString("tag")
	}
	if flags.Changed("charset") {
		cfg.Charset, _ = flags.GetString("charset")
	}
	if terminate, _ := flags.GetBool("terminate-on-bridge-error"); terminate {
		cfg.OnBridgeError = ds.OnBridgeErrorTerminate
	}
	return cfg, nil
}

// startSession must run before anything else touches stdout: it keeps a copy of
// the original stdout for the demo's own report
func startSession(cmd *cobra.Command) (*stdiolog.Session, *os.File, error) {
	cfg, err := makeConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	origStdout, err := redirect.DupFile(os.Stdout, "orig-stdout")
	if err != nil {
		return nil, nil, err
	}
	opts := stdiolog.Options{Config: cfg}
	if cfg.Sinks.UsesBridge() {
		opts.Bridge = demoBridge(origStdout)
	}
	session, err := stdiolog.Init(opts)
	if err != nil {
		origStdout.Close()
		return nil, nil, err
	}
	return session, origStdout, nil
}

// waitForLines polls until the pump has framed want lines (pump stops are reported)
func waitForLines(session *stdiolog.Session, want int64) error {
	deadline := time.Now().Add(drainTimeout)
	for session.LineCount() < want {
		select {
		case <-session.Done():
			return fmt.Errorf("log pump stopped: %v", session.Err())
		default:
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out after %d/%d lines", session.LineCount(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

func printReport(out io.Writer, session *stdiolog.Session) {
	cfg := session.Config()
	fmt.Fprintf(out, "session %s sinks=%s tag=%s lines=%d state=%s\n", session.Id(), cfg.Sinks, cfg.Tag, session.LineCount(), session.State())
	for _, stats := range session.Stats() {
		fmt.Fprintf(out, "  %-7s delivered=%d skipped=%d failed=%d\n", stats.Name, stats.Delivered, stats.Skipped, stats.Failed)
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	numLines, _ := cmd.Flags().GetInt("lines")
	session, origStdout, err := startSession(cmd)
	if err != nil {
		return err
	}
	defer origStdout.Close()

	log.SetFlags(0)
	for i := 1; i <= numLines; i++ {
		if i%2 == 0 {
			fmt.Fprintf(os.Stderr, "stderr line %d\n", i)
		} else {
			fmt.Printf("stdout line %d\n", i)
		}
	}
	log.Printf("log package line")
	session.Logger().Infof("framework logger writes to the native log directly")

	if err := waitForLines(session, int64(numLines)+1); err != nil {
		return err
	}
	printReport(origStdout, session)
	return nil
}

func runExec(cmd *cobra.Command, args []string) error {
	session, origStdout, err := startSession(cmd)
	if err != nil {
		return err
	}
	defer origStdout.Close()

	// the child inherits fds 1 and 2, which now point into the redirect
	child := exec.Command(args[0], args[1:]...)
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	runErr := child.Run()
	// give the pump a moment to drain what the child wrote
	time.Sleep(100 * time.Millisecond)
	printReport(origStdout, session)
	return runErr
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().String("sinks", "native", "Sinks to forward to: native, bridge or both")
	cmd.Flags().String("tag", base.DefaultTag, "Native log tag")
	cmd.Flags().String("charset", "", "Charset of the process output (default utf-8)")
	cmd.Flags().Bool("terminate-on-bridge-error", false, "Stop forwarding on the first failed bridge call")
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "stdiolog-demo",
		Short:         "Exercise stdout/stderr redirection into the native log and a bridge callback",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Redirect this process's output and write some lines",
		RunE:  runDemo,
	}
	addSessionFlags(runCmd)
	runCmd.Flags().Int("lines", 10, "Number of lines to write (alternating stdout/stderr)")

	execCmd := &cobra.Command{
		Use:   "exec [flags] -- command [args]",
		Short: "Redirect this process's output, then run a child that inherits it",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runExec,
	}
	addSessionFlags(execCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(base.StdioLogVersion)
		},
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// stderr may already be redirected; the error also lands in the native log that way
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
