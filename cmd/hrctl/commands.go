package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/hradmin/internal/admin"
	"github.com/JonMunkholm/hradmin/internal/apiclient"
	"github.com/JonMunkholm/hradmin/internal/core"
	"github.com/JonMunkholm/hradmin/internal/datatable"
	"github.com/JonMunkholm/hradmin/internal/export"
	"github.com/JonMunkholm/hradmin/internal/importer"
	"github.com/JonMunkholm/hradmin/internal/session"
	"github.com/JonMunkholm/hradmin/internal/tui"
)

/* ----------------------------------------
	AUTH
---------------------------------------- */

func (c *cli) loginCmd() *cobra.Command {
	var user, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the API token for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			r := bufio.NewReader(c.in)
			var err error
			if user == "" {
				if user, err = c.prompt(r, "Username: ", false); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = c.prompt(r, "Password: ", true); err != nil {
					return err
				}
			}

			auth, err := c.service.Login(ctx, user, password)
			if errors.Is(err, apiclient.ErrUnauthorized) {
				return errInvalidLogin
			}
			if err != nil {
				return err
			}
			if err := c.sess.SetAuth(ctx, auth.Token, auth.User); err != nil {
				return fmt.Errorf("session store: %w", err)
			}
			c.logger.Debug("signed in", "user", auth.User)
			fmt.Fprintf(c.out, "Signed in as %s\n", auth.User)
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "Username (prompted when empty)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when empty)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.sess.ClearAuth(cmd.Context()); err != nil {
				return fmt.Errorf("session store: %w", err)
			}
			fmt.Fprintln(c.out, "Signed out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := c.token(ctx); err != nil {
				return err
			}
			user, err := c.sess.User(ctx)
			if err != nil {
				return fmt.Errorf("session store: %w", err)
			}
			fmt.Fprintln(c.out, user)
			return nil
		},
	}
}

func (c *cli) themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Set or toggle the colour theme",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(session.ThemeLight), string(session.ThemeDark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var theme session.Theme
			var err error
			if len(args) == 1 {
				theme = session.ParseTheme(args[0])
				err = c.sess.SetTheme(ctx, theme)
			} else {
				theme, err = c.sess.ToggleTheme(ctx)
			}
			if err != nil {
				return fmt.Errorf("session store: %w", err)
			}
			fmt.Fprintf(c.out, "Theme: %s\n", theme)
			return nil
		},
	}
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget everything hrctl stored and purge expired sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := &admin.Reset{Store: c.store}
			res, err := r.Sessions(cmd.Context(), cliSessionID)
			if err != nil {
				return fmt.Errorf("session store: %w", err)
			}
			fmt.Fprintf(c.out, "Local session cleared (%d expired entries purged)\n", res.Purged)
			return nil
		},
	}
}

/* ----------------------------------------
	RECORDS
---------------------------------------- */

func (c *cli) resourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the resources hrctl can show",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, group := range core.Groups() {
				fmt.Fprintln(c.out, group)
				for _, def := range core.ByGroup(group) {
					var notes []string
					if def.Info.ServerPaged {
						notes = append(notes, "server-paged")
					}
					if def.Info.ReadOnly {
						notes = append(notes, "read-only")
					}
					line := fmt.Sprintf("  %-20s %s", def.Info.Key, def.Info.Label)
					if len(notes) > 0 {
						line += " (" + strings.Join(notes, ", ") + ")"
					}
					fmt.Fprintln(c.out, line)
				}
			}
			return nil
		},
	}
}

type listFlags struct {
	sort   string
	desc   bool
	page   int
	size   int
	search string
}

func (f *listFlags) bind(cmd *cobra.Command, paging bool) {
	cmd.Flags().StringVar(&f.sort, "sort", "", "Column to sort by (default: first sortable column)")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "Sort descending")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "Only rows containing this text")
	if paging {
		cmd.Flags().IntVar(&f.page, "page", 1, "Page number")
		cmd.Flags().IntVar(&f.size, "size", 0, "Rows per page (default $TABLE_ROWS_PER_PAGE)")
	}
}

// query builds the list state from flags, rejecting unknown sort columns.
func (f listFlags) query(def core.Resource, defaultSize int) (core.ListQuery, error) {
	q := core.ListQuery{
		Page:        max(f.page, 1),
		RowsPerPage: f.size,
		Search:      strings.TrimSpace(f.search),
		Sort:        def.DefaultSort(),
	}
	if q.RowsPerPage <= 0 {
		q.RowsPerPage = defaultSize
	}
	if f.sort != "" {
		if !slices.Contains(def.SortableColumns(), f.sort) {
			return q, fmt.Errorf("cannot sort %s by %q; sortable columns: %s",
				def.Info.Key, f.sort, strings.Join(def.SortableColumns(), ", "))
		}
		q.Sort = datatable.SortState{Key: f.sort, Direction: datatable.Asc}
	}
	if f.desc {
		q.Sort.Direction = datatable.Desc
	}
	return q, nil
}

// recordTable builds the table model for one fetched page.
func recordTable(def core.Resource, page core.ListPage, q core.ListQuery, locale language.Tag) *datatable.Table[core.Record] {
	idField := def.IDField()
	props := datatable.Props[core.Record]{
		Columns:      def.Columns,
		Rows:         page.Rows,
		Page:         q.Page,
		RowsPerPage:  q.RowsPerPage,
		PaginateRows: !page.Paged,
		RowKey:       func(r core.Record) string { return r.ID(idField) },
	}
	if page.Paged {
		total := page.Total
		props.TotalRows = &total
	}
	return datatable.New(props, datatable.WithLocale(locale), datatable.WithSort(q.Sort))
}

func (c *cli) listCmd() *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "Print one page of a resource as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			def, err := core.Lookup(args[0])
			if err != nil {
				return err
			}
			q, err := flags.query(def, c.cfg.Table.RowsPerPage)
			if err != nil {
				return err
			}
			tok, err := c.token(ctx)
			if err != nil {
				return err
			}

			page, err := c.service.ListRecords(ctx, tok, def.Info.Key, q)
			if err != nil {
				return err
			}
			tbl := recordTable(def, page, q, c.cfg.Table.Locale())
			fmt.Fprintln(c.out, tui.RenderTable(tbl.View(), -1))
			return nil
		},
	}
	flags.bind(cmd, true)
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var flags listFlags
	var output string
	cmd := &cobra.Command{
		Use:   "export <resource>",
		Short: "Write every row of a resource to an .xlsx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			def, err := core.Lookup(args[0])
			if err != nil {
				return err
			}
			q, err := flags.query(def, c.cfg.Table.RowsPerPage)
			if err != nil {
				return err
			}
			tok, err := c.token(ctx)
			if err != nil {
				return err
			}

			rows, err := c.service.AllRecords(ctx, tok, def.Info.Key, q)
			if err != nil {
				return err
			}
			sorted := datatable.New(datatable.Props[core.Record]{Columns: def.Columns, Rows: rows},
				datatable.WithLocale(c.cfg.Table.Locale()), datatable.WithSort(q.Sort)).Sorted()
			headers, cells := export.Table(def.Columns, sorted, func(rec core.Record, key string) string {
				return rec.Text(key)
			})

			var buf bytes.Buffer
			if err := export.WriteXLSX(&buf, export.SheetName(def.Info.Label), headers, cells); err != nil {
				return err
			}
			if output == "" {
				output = export.FileName(def.Info.Key, c.now().Format(core.DateLayout))
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			c.logger.Debug("export written", "resource", def.Info.Key, "rows", len(cells), "path", output)
			fmt.Fprintf(c.out, "Wrote %d rows to %s\n", len(cells), output)
			return nil
		},
	}
	flags.bind(cmd, false)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <resource>_<date>.xlsx)")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	var opts importer.Options
	var failedPath string
	cmd := &cobra.Command{
		Use:   "import <resource> <file.csv>",
		Short: "Create records from the rows of a CSV file",
		Long: `Create one record per CSV row. Columns are matched to form fields by
name or label; title lines above the header are skipped. Rows that fail
are reported and, with --failed, written to a CSV that can be fixed and
imported again.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			def, err := core.Lookup(args[0])
			if err != nil {
				return err
			}
			tok, err := c.token(ctx)
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			save := func(ctx context.Context, values map[string]string) (core.Record, error) {
				return c.service.SaveRecord(ctx, tok, def.Info.Key, "", values)
			}
			res, err := importer.Run(ctx, def, f, save, opts)
			if err != nil {
				return err
			}

			verb := "Imported"
			if opts.DryRun {
				verb = "Validated"
			}
			fmt.Fprintf(c.out, "%s %d of %d rows into %s\n", verb, res.Accepted, res.TotalRows, def.Info.Key)
			for _, row := range res.Failed {
				fmt.Fprintf(c.out, "  line %d: %s\n", row.Line, row.Reason)
			}
			c.logger.Debug("import finished", "resource", def.Info.Key, "accepted", res.Accepted,
				"failed", len(res.Failed), "duration", res.Duration)

			if failedPath != "" && len(res.Failed) > 0 {
				var buf bytes.Buffer
				if err := importer.WriteFailed(&buf, res); err != nil {
					return err
				}
				if err := os.WriteFile(failedPath, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write failed rows: %w", err)
				}
				fmt.Fprintf(c.out, "Failed rows written to %s\n", failedPath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Validate rows without creating records")
	cmd.Flags().IntVar(&opts.Workers, "workers", 4, "Concurrent create requests")
	cmd.Flags().StringVar(&failedPath, "failed", "", "Write rows that were not imported to this CSV")
	return cmd
}

func (c *cli) decideCmd() *cobra.Command {
	var remark string
	cmd := &cobra.Command{
		Use:       "decide <leave-request-id> approve|reject",
		Short:     "Approve or reject a leave request",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{core.DecisionApprove, core.DecisionReject},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tok, err := c.token(ctx)
			if err != nil {
				return err
			}
			id, decision := args[0], args[1]
			if _, err := c.service.DecideLeave(ctx, tok, id, decision, remark); err != nil {
				return err
			}
			outcome := "approved"
			if decision == core.DecisionReject {
				outcome = "rejected"
			}
			fmt.Fprintf(c.out, "Leave request %s %s\n", id, outcome)
			return nil
		},
	}
	cmd.Flags().StringVarP(&remark, "remark", "m", "", "Remark recorded with the decision")
	return cmd
}

/* ----------------------------------------
	INTERACTIVE
---------------------------------------- */

func (c *cli) browseCmd() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "browse [resource]",
		Short: "Page through resources interactively",
		Long: `Open an interactive table. Without a resource, a menu of all
resources grouped by area is shown first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tok, err := c.token(ctx)
			if err != nil {
				return err
			}

			open := func(def core.Resource) tui.Browser {
				key := def.Info.Key
				load := func(ctx context.Context, q core.ListQuery) (core.ListPage, error) {
					return c.service.ListRecords(ctx, tok, key, q)
				}
				return tui.NewBrowser(def, load, tui.BrowserOptions{
					Query:       core.ListQuery{RowsPerPage: c.cfg.Table.RowsPerPage, Search: strings.TrimSpace(search)},
					PageSizes:   c.cfg.Table.RowsPerPageOptions,
					Locale:      c.cfg.Table.Locale(),
					LoadTimeout: c.cfg.API.Timeout,
				})
			}

			var model tea.Model
			if len(args) == 1 {
				def, err := core.Lookup(args[0])
				if err != nil {
					return err
				}
				model = open(def)
			} else {
				model = tui.NewApp(tui.BuildMenu(), open)
			}

			_, err = tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithInput(c.in),
				tea.WithOutput(c.out),
			).Run()
			return err
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only rows containing this text")
	return cmd
}
