package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or empty the render cache",
	}
	cmd.AddCommand(newCacheStatsCmd(a), newCachePruneCmd(a), newCacheClearCmd(a))
	return cmd
}

func newCacheStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the number of cached renders and their PNG size",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			stats, err := c.GetStats()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.stdout, "path: %s\nentries: %d\npng_bytes: %d\n",
				c.Path(), stats.Entries, stats.PNGBytes)
			return nil
		},
	}
}

func newCachePruneCmd(a *app) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove cached renders older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if olderThan < 0 {
				return fmt.Errorf("--older-than must not be negative")
			}
			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := c.Prune(time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			a.log.Debug("pruned cache", zap.Int64("removed", n), zap.Duration("older_than", olderThan))
			_, _ = fmt.Fprintf(a.stdout, "removed %d\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "remove entries created longer ago than this")
	return cmd
}

func newCacheClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached render",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Clear(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.stdout, "cleared")
			return nil
		},
	}
}
