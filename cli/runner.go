// Command execution for CLI commands.
//
// Information Hiding:
// - Session, storage and provider setup hidden
// - Chat loop and slash commands hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	"github.com/richinex/zerb/config"
	"github.com/richinex/zerb/extract"
	"github.com/richinex/zerb/llm"
	"github.com/richinex/zerb/log"
	"github.com/richinex/zerb/preview"
	"github.com/richinex/zerb/project"
	"github.com/richinex/zerb/session"
	"github.com/richinex/zerb/storage"
)

// DefaultSessionID is used when no --session is given.
const DefaultSessionID = "default"

// Options holds CLI execution options.
type Options struct {
	Provider  string
	SessionID string
	// DBPath overrides the configured database path.
	DBPath  string
	Verbose bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{
		SessionID: DefaultSessionID,
	}
}

func (o Options) sessionID() string {
	if o.SessionID == "" {
		return DefaultSessionID
	}
	return o.SessionID
}

// Chat runs the interactive chat loop on stdin and stdout.
func Chat(ctx context.Context, opts Options) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}

	provider, err := createProvider(settings)
	if err != nil {
		return err
	}

	store, err := openStore(settings, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	logger, closeLog, err := newLogger(settings, opts, provider.Name())
	if err != nil {
		return err
	}
	defer closeLog()

	sess, err := session.Open(ctx, store, opts.sessionID(), provider)
	if err != nil {
		return err
	}
	sess.WithLogger(logger)
	logger.Sugar().Infof("chat opened with %d stored messages", len(sess.Transcript()))

	if n := len(sess.Transcript()); n > 0 {
		fmt.Printf("Resuming session '%s' (%d messages)\n\n", sess.ID(), n)
	}
	fmt.Printf("Zerb (%s/%s). Commands: %s. Type 'exit' to quit.\n\n",
		provider.Name(), provider.Model(), slashCommands)

	r := &repl{sess: sess, settings: settings, logger: logger.Sugar(), out: os.Stdout}
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}
		if strings.HasPrefix(input, "/") {
			if err := r.runSlashCommand(ctx, input); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			}
			continue
		}

		r.runTurn(ctx, input)
	}

	return scanner.Err()
}

const slashCommands = "/files [PREFIX], /show NAME, /open NAME, /rm NAME, /preview FILE, /key [API_KEY]"

// repl is the state of one interactive chat.
type repl struct {
	sess     *session.Session
	settings config.Settings
	logger   *log.SugaredLogger
	out      io.Writer
}

// runTurn sends one message. Ctrl-C during the stream abandons the turn
// instead of exiting.
func (r *repl) runTurn(ctx context.Context, input string) {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-interrupts:
			r.sess.Abandon()
		case <-finished:
		}
	}()

	reply, err := r.sess.Send(ctx, input, func(u session.Update) {
		for _, name := range u.Inserted {
			fmt.Fprintln(r.out, insertLine(name))
		}
		for _, name := range u.NewlyCompleted {
			fmt.Fprintln(r.out, doneBadge(name))
		}
	})

	var turnErr *session.TurnError
	switch {
	case errors.As(err, &turnErr) && turnErr.Kind == session.FailureAbandoned:
		r.logger.Warnf("turn %s abandoned", turnErr.TurnID)
		fmt.Fprintf(r.out, "\n(turn abandoned)\n\n")
		return
	case errors.Is(err, session.ErrAuthRequired):
		fmt.Fprintf(r.out, "\n%s\n%s\n\n", failureStyle.Render(session.AuthLostMessage), reconnectHint)
		return
	case errors.As(err, &turnErr):
		r.logger.Errorf("turn %s failed (%s): %v", turnErr.TurnID, turnErr.Kind, turnErr.Err)
	case err != nil:
		fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
		if reply.ID == "" {
			return
		}
	}

	active := ""
	if f, ok := r.sess.Project().ActiveFile(); ok {
		active = f.Name
	}
	fmt.Fprintf(r.out, "\n%s\n", renderReply(reply, active))
	if turnErr != nil && turnErr.Kind == session.FailureAuth {
		fmt.Fprintf(r.out, "%s\n\n", reconnectHint)
	}
}

const reconnectHint = "Use /key API_KEY, or update the environment or .env and use /key, to reconnect."

func (r *repl) runSlashCommand(ctx context.Context, input string) error {
	command, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	r.logger.Debugf("slash command %s", command)

	switch command {
	case "/files":
		printFiles(r.sess.Project(), arg, r.out)
		return nil
	case "/show":
		return showFile(r.sess.Project(), arg, r.out)
	case "/open":
		if arg == "" {
			return fmt.Errorf("usage: /open NAME")
		}
		if err := r.sess.SetActive(ctx, arg); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "Active: %s\n\n", arg)
		return nil
	case "/rm":
		if arg == "" {
			return fmt.Errorf("usage: /rm NAME")
		}
		if err := r.sess.RemoveFile(ctx, arg); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "Removed %s\n\n", arg)
		return nil
	case "/preview":
		if arg == "" {
			return fmt.Errorf("usage: /preview FILE")
		}
		if err := writePreview(r.sess.Project(), arg); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "Preview written to %s\n\n", arg)
		return nil
	case "/key":
		provider, err := r.reconnect(arg)
		if err != nil {
			return err
		}
		r.sess.SetProvider(provider)
		fmt.Fprintf(r.out, "Connected to %s/%s\n\n", provider.Name(), provider.Model())
		return nil
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// reconnect builds a fresh provider. An explicit key is used as given;
// otherwise .env is reloaded and the key is read from the environment.
func (r *repl) reconnect(apiKey string) (llm.Provider, error) {
	if apiKey != "" {
		return providerWithKey(r.settings, apiKey)
	}

	if err := godotenv.Overload(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reloading .env: %w", err)
	}
	settings, err := config.New(r.settings.LLM.Provider)
	if err != nil {
		return nil, err
	}
	provider, err := createProvider(settings)
	if err != nil {
		return nil, err
	}
	r.settings = settings
	return provider, nil
}

// extractStep is one line of `extract --stream` output.
type extractStep struct {
	Chunk          int                 `json:"chunk"`
	Prose          string              `json:"prose"`
	Files          []extract.FileBlock `json:"files"`
	Completed      []string            `json:"completed"`
	NewlyCompleted []string            `json:"newly_completed,omitempty"`
}

// Extract runs the block extractor over r. With chunkSize > 0 the text is
// replayed in chunks of that many bytes and every step is printed as one
// JSON line.
func Extract(r io.Reader, w io.Writer, chunkSize int) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	text := string(data)

	enc := json.NewEncoder(w)
	if chunkSize <= 0 {
		enc.SetIndent("", "  ")
		return enc.Encode(extract.Extract(text))
	}

	turn := session.NewTurn()
	for i := 0; i < len(text); i += chunkSize {
		end := min(i+chunkSize, len(text))
		result, newly := turn.Append(text[i:end])
		step := extractStep{
			Chunk:          i / chunkSize,
			Prose:          result.Prose,
			Files:          result.Files,
			Completed:      turn.Completed(),
			NewlyCompleted: newly,
		}
		if err := enc.Encode(step); err != nil {
			return err
		}
	}
	return nil
}

// Files lists the project files of a session whose name starts with prefix.
func Files(ctx context.Context, opts Options, prefix string, w io.Writer) error {
	return withSession(ctx, opts, func(sess *session.Session) error {
		printFiles(sess.Project(), prefix, w)
		return nil
	})
}

// Show prints one project file.
func Show(ctx context.Context, opts Options, name string, w io.Writer) error {
	return withSession(ctx, opts, func(sess *session.Session) error {
		return showFile(sess.Project(), name, w)
	})
}

// Write replaces the content of an existing project file with r.
func Write(ctx context.Context, opts Options, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading content: %w", err)
	}
	return withSession(ctx, opts, func(sess *session.Session) error {
		return sess.WriteFile(ctx, name, string(data))
	})
}

// Export writes the project of a session as a YAML snapshot.
func Export(ctx context.Context, opts Options, w io.Writer) error {
	return withSession(ctx, opts, func(sess *session.Session) error {
		return project.WriteSnapshot(w, sess.Project())
	})
}

// Import replaces the project of a session with a YAML snapshot.
func Import(ctx context.Context, opts Options, r io.Reader) error {
	p, err := project.ReadSnapshot(r)
	if err != nil {
		return err
	}
	return withSession(ctx, opts, func(sess *session.Session) error {
		return sess.ReplaceProject(ctx, p)
	})
}

// Preview writes the HTML preview of a session's project.
func Preview(ctx context.Context, opts Options, w io.Writer) error {
	return withSession(ctx, opts, func(sess *session.Session) error {
		doc, err := preview.Build(sess.Project().Files())
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, doc)
		return err
	})
}

// Sessions lists stored session ids, most recent first.
func Sessions(ctx context.Context, opts Options, w io.Writer) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}
	store, err := openStore(settings, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := store.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No sessions.")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

// withSession opens a stored session without a provider.
func withSession(ctx context.Context, opts Options, fn func(*session.Session) error) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}
	store, err := openStore(settings, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := session.Open(ctx, store, opts.sessionID(), nil)
	if err != nil {
		return err
	}
	return fn(sess)
}

func printFiles(p *project.Project, prefix string, w io.Writer) {
	files := p.WithPrefix(prefix)
	if len(files) == 0 {
		fmt.Fprintln(w, "No files.")
		return
	}
	active := ""
	if f, ok := p.ActiveFile(); ok {
		active = f.Name
	}
	for _, f := range files {
		marker := " "
		if f.Name == active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-24s %-12s %d bytes\n", marker, f.Name, f.Language, len(f.Content))
	}
}

func showFile(p *project.Project, name string, w io.Writer) error {
	if name == "" {
		f, ok := p.ActiveFile()
		if !ok {
			return fmt.Errorf("project has no files")
		}
		name = f.Name
	}
	f, ok := p.Get(name)
	if !ok {
		return fmt.Errorf("no file named %q", name)
	}
	_, err := io.WriteString(w, f.Content)
	if err == nil && !strings.HasSuffix(f.Content, "\n") {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

func writePreview(p *project.Project, path string) error {
	doc, err := preview.Build(p.Files())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}

func openStore(settings config.Settings, opts Options) (*storage.SqliteStorage, error) {
	path := opts.DBPath
	if path == "" {
		path = settings.Storage.DBPath
	}
	store, err := storage.OpenSqlite(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

func newLogger(settings config.Settings, opts Options, providerName string) (*log.Logger, func(), error) {
	level := settings.Log.Level
	if opts.Verbose {
		level = "debug"
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	if settings.Log.Path != "" {
		f, err := os.OpenFile(settings.Log.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closeFn = func() { f.Close() }
	}

	logger, err := log.NewLogger(log.Meta{SessionID: opts.sessionID(), Provider: providerName}, w, level)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return logger, func() {
		_ = logger.Sync()
		closeFn()
	}, nil
}

func createProvider(settings config.Settings) (llm.Provider, error) {
	apiKey, err := config.APIKeyFor(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}
	return providerWithKey(settings, apiKey)
}

func providerWithKey(settings config.Settings, apiKey string) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}
	return llm.NewProvider(providerType, apiKey, llm.Config{
		Model:       settings.LLM.Model,
		MaxTokens:   settings.LLM.MaxTokens,
		Temperature: float32(settings.LLM.Temperature),
	})
}
