// Package main provides the zerb CLI entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/richinex/zerb/cli"
	"github.com/richinex/zerb/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	provider  string
	sessionID string
	dbPath    string
	verbose   bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "zerb",
		Short: "Chat with an AI architect that writes your project files",
		Long: `Zerb streams replies from a language model and turns the file blocks
they contain into project files as they arrive.

Replies are either plain chat or a "Plan:" followed by one or more blocks:

  <file name="index.html" language="html">
  ...
  </file>

Sessions (transcript and files) are stored in SQLite.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", fmt.Sprintf("LLM provider %v (default from ZERB_PROVIDER, else %s)", config.SupportedProviders(), config.DefaultProvider))
	rootCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", cli.DefaultSessionID, "Session ID")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default from ZERB_DB, else .zerb/zerb.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(filesCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(writeCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(sessionsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options() cli.Options {
	return cli.Options{
		Provider:  provider,
		SessionID: sessionID,
		DBPath:    dbPath,
		Verbose:   verbose,
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Files are applied to the project while the reply streams. Press Ctrl-C to
abandon a reply; files already applied are kept.

Commands inside the chat:
  /files [PREFIX] list project files (* marks the active file)
  /show NAME      print a file
  /open NAME      make a file active
  /rm NAME        remove a file
  /preview FILE   write the HTML preview to FILE
  /key [API_KEY]  reconnect with a new key (default: reload .env and the environment)
  exit            quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Chat(context.Background(), options())
		},
	}
}

func extractCmd() *cobra.Command {
	var chunkSize int

	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Run the block extractor over a reply",
		Long: `Parse file blocks out of a model reply read from a file or stdin and
print the result as JSON.

With --stream N the reply is replayed in N-byte chunks and each step is
printed as one JSON line, the way a streaming reply is processed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return cli.Extract(in, cmd.OutOrStdout(), chunkSize)
		},
	}

	cmd.Flags().IntVar(&chunkSize, "stream", 0, "Replay the input in chunks of this many bytes")

	return cmd
}

func filesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files [prefix]",
		Short: "List the files of a session's project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return cli.Files(context.Background(), options(), prefix, cmd.OutOrStdout())
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Print a project file (the active file by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return cli.Show(context.Background(), options(), name, cmd.OutOrStdout())
		},
	}
}

func writeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write name [file]",
		Short: "Replace the content of a project file from a file or stdin",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 2 {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return cli.Write(context.Background(), options(), args[0], in)
		},
	}
}

func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a session's project as a YAML snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutput(cmd, out, func(w io.Writer) error {
				return cli.Export(context.Background(), options(), w)
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")

	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Replace a session's project with a YAML snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return cli.Import(context.Background(), options(), f)
		},
	}
}

func previewCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render a session's project as one HTML document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutput(cmd, out, func(w io.Writer) error {
				return cli.Preview(context.Background(), options(), w)
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")

	return cmd
}

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Sessions(context.Background(), options(), cmd.OutOrStdout())
		},
	}
}

// withOutput runs fn against the file at path, or stdout when path is empty.
func withOutput(cmd *cobra.Command, path string, fn func(io.Writer) error) error {
	if path == "" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
