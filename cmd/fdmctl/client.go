package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/fdmctl/internal/client"
	"github.com/san-kum/fdmctl/internal/config"
	"github.com/san-kum/fdmctl/internal/viz"
	"github.com/spf13/cobra"
)

var (
	idle         time.Duration
	pollInterval time.Duration
	iterateSteps int
	theme        string
	watch        []string
)

func defaultAddr() string { return fmt.Sprintf("localhost:%d", config.DefaultPort) }

func dial(ctx context.Context) (*client.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return client.Dial(ctx, addr, idle)
}

func newClientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client [command...]",
		Short: "send commands to a server, interactively when none are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			if len(args) > 0 {
				reply, err := c.Exchange(strings.Join(args, " "))
				fmt.Print(strings.ReplaceAll(reply, "\r\n", "\n"))
				return err
			}

			home, _ := os.UserHomeDir()
			src := client.NewLineSource(os.Stdin, os.Stdout, filepath.Join(home, ".fdmctl_history"))
			defer src.Close()
			return client.REPL(c, src, os.Stdout, "fdm> ")
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr(), "server address")
	cmd.Flags().DurationVar(&idle, "idle", client.DefaultIdle, "reply idle timeout")
	return cmd
}

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "live terminal view of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			m := viz.NewMonitor(c, viz.Options{
				Properties: watch,
				Interval:   pollInterval,
				Iterate:    iterateSteps,
				Theme:      theme,
			})
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", defaultAddr(), "server address")
	f.DurationVar(&idle, "idle", 50*time.Millisecond, "reply idle timeout")
	f.DurationVar(&pollInterval, "interval", 250*time.Millisecond, "poll interval")
	f.IntVar(&iterateSteps, "iterate", 1, "frames per iterate key press")
	f.StringVar(&theme, "theme", "cyberpunk", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	f.StringSliceVar(&watch, "watch", nil, "properties to poll")
	return cmd
}
