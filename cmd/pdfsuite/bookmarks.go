package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/pdfsuite/internal/bookmarks"
)

func newBookmarksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "Bookmark import/export helpers",
	}
	cmd.AddCommand(newBookmarksDumpCmd())
	cmd.AddCommand(newBookmarksApplyCmd())
	cmd.AddCommand(newBookmarksShowCmd())
	return cmd
}

func newBookmarksDumpCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "dump <input>",
		Short: "Export bookmarks to pdftk-compatible dump format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := requireTools(cfg.Tools.Pdftk); err != nil {
				return err
			}
			if err := ensureFile(args[0], "input PDF"); err != nil {
				return err
			}
			return runTool(cmd.Context(), cmd.OutOrStdout(), cfg.Tools.Pdftk, args[0], "dump_data_utf8", "output", output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination UTF-8 text file")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newBookmarksApplyCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "apply <input> <bookmark-file>",
		Short: "Apply exported bookmarks back to a PDF",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := requireTools(cfg.Tools.Pdftk); err != nil {
				return err
			}
			if err := ensureFile(args[0], "input PDF"); err != nil {
				return err
			}
			if err := ensureFile(args[1], "bookmark file"); err != nil {
				return err
			}
			return runTool(cmd.Context(), cmd.OutOrStdout(), cfg.Tools.Pdftk, args[0], "update_info_utf8", args[1], "output", output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "updated PDF with bookmarks")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newBookmarksShowCmd() *cobra.Command {
	var normalize bool
	cmd := &cobra.Command{
		Use:   "show <bookmark-file>",
		Short: "Print the bookmark tree of a dump file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nodes, err := bookmarks.ParseFile(args[0])
			if err != nil {
				return err
			}
			if normalize {
				_, err = io.WriteString(cmd.OutOrStdout(), bookmarks.Serialize(nodes))
				return err
			}
			return printBookmarkTree(cmd.OutOrStdout(), nodes, 0)
		},
	}
	cmd.Flags().BoolVar(&normalize, "normalize", false, "print the canonical dump text instead of a tree")
	return cmd
}

func printBookmarkTree(w io.Writer, nodes []*bookmarks.Node, depth int) error {
	for _, node := range nodes {
		if _, err := fmt.Fprintf(w, "%s%s (p. %d)\n", strings.Repeat("  ", depth), node.Title, node.Page); err != nil {
			return err
		}
		if err := printBookmarkTree(w, node.Children, depth+1); err != nil {
			return err
		}
	}
	return nil
}
