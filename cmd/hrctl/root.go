package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/JonMunkholm/hradmin/internal/apiclient"
	"github.com/JonMunkholm/hradmin/internal/config"
	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/logging"
	"github.com/JonMunkholm/hradmin/internal/session"
)

// cliSessionID names the single session namespace the CLI keeps in its store.
const cliSessionID = "hrctl"

var (
	errNotSignedIn  = errors.New("not signed in")
	errInvalidLogin = errors.New("invalid username or password")
)

// cli holds the state shared by all hrctl commands.
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// Flags
	apiURL      string
	sessionPath string
	verbose     bool

	// Set up before each command runs
	cfg     *config.Config
	logger  *slog.Logger
	service *core.Service
	store   session.Store
	sess    *session.Session

	newAPI    func(cfg *config.Config) core.API
	openStore func(ctx context.Context, path string) (session.Store, error)
	now       func() time.Time
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	return &cli{
		in:     in,
		out:    out,
		errOut: errOut,
		newAPI: func(cfg *config.Config) core.API {
			return apiclient.New(cfg.API.BaseURL, cfg.API.Timeout)
		},
		openStore: openSQLite,
		now:       time.Now,
	}
}

func openSQLite(ctx context.Context, path string) (session.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	store, err := session.OpenSQLiteStore(ctx, path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "hrctl-session.db"
	}
	return filepath.Join(dir, "hradmin", "hrctl-session.db")
}

func (c *cli) root() *cobra.Command {
	root := &cobra.Command{
		Use:   "hrctl",
		Short: "Browse and manage HR records from the terminal",
		Long: `hrctl talks to the same HR API as the web console.

Sign in once with 'hrctl login'; the token is kept in a local SQLite file
until it expires or you run 'hrctl logout'.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.PersistentFlags().StringVar(&c.apiURL, "api", "", "HR API base URL (default $API_BASE_URL)")
	root.PersistentFlags().StringVar(&c.sessionPath, "session-file", defaultSessionPath(), "SQLite file holding the CLI session")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.themeCmd(),
		c.resetCmd(),
		c.resourcesCmd(),
		c.listCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.decideCmd(),
		c.browseCmd(),
	)
	return root
}

// execute runs the command line, reports any error and closes the store.
func (c *cli) execute(args []string) error {
	cmd := c.root()
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) && c.sess != nil {
			if cerr := c.sess.ClearAuth(context.Background()); cerr != nil {
				c.log().Warn("failed to clear expired token", "error", cerr)
			}
		}
		fmt.Fprintln(c.errOut, "Error: "+describe(err))
	}
	if c.store != nil {
		if cerr := c.store.Close(); cerr != nil {
			c.log().Warn("failed to close session store", "error", cerr)
		}
	}
	return err
}

func (c *cli) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// setup loads configuration and opens the session store.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	// Load keeps variables already set in the environment
	_ = godotenv.Load()
	if c.apiURL != "" {
		os.Setenv("API_BASE_URL", c.apiURL)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Warnings only unless -v
	level := "warn"
	if c.verbose {
		level = "debug"
	}
	c.cfg = cfg
	c.logger = logging.New(c.errOut, level, cfg.Logging.Format)
	slog.SetDefault(c.logger)

	c.service = core.NewService(c.newAPI(cfg), core.ServiceConfig{
		MaxExportRows:      cfg.Export.MaxRows,
		ExportPageSize:     cfg.Export.PageSize,
		OrgEndpoint:        cfg.API.OrgEndpoint,
		AttendanceEndpoint: cfg.API.AttendanceEndpoint,
	})

	ctx := cmd.Context()
	store, err := c.openStore(ctx, c.sessionPath)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	c.store = store
	c.sess = session.NewManager(store, session.Options{TTL: cfg.Session.TTL}).Open(cliSessionID)

	theme, err := c.sess.Theme(ctx)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	lipgloss.SetHasDarkBackground(theme == session.ThemeDark)

	c.logger.Debug("hrctl ready", "api", cfg.API.BaseURL, "session_file", c.sessionPath)
	return nil
}

// token returns the stored API token or errNotSignedIn.
func (c *cli) token(ctx context.Context) (string, error) {
	tok, err := c.sess.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("session store: %w", err)
	}
	if tok == "" {
		return "", errNotSignedIn
	}
	return tok, nil
}

// describe turns err into the line printed after "Error: ".
func describe(err error) string {
	if errors.Is(err, errNotSignedIn) {
		return "Not signed in. Run 'hrctl login' first."
	}
	if ve, ok := core.AsValidationErrors(err); ok {
		return strings.TrimPrefix(ve.Error(), "invalid form: ")
	}
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}

// prompt reads one line from r after printing label. Terminal input for
// secret prompts is read without echo.
func (c *cli) prompt(r *bufio.Reader, label string, secret bool) (string, error) {
	fmt.Fprint(c.out, label)
	if f, ok := c.in.(*os.File); ok && secret && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.out)
		return string(b), err
	}
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
