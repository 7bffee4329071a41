// Command blogctl runs operator tasks against the blog database: managing
// categories and tags, and activating accounts without the email link.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"go-blog-app/internal/config"
	"go-blog-app/internal/data"
	"go-blog-app/internal/form"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/mailer"
	"go-blog-app/internal/service"
	"go-blog-app/internal/token"
	"go-blog-app/web"

	"github.com/spf13/pflag"
)

const usage = `Usage: blogctl [flags] <command> [args]

Commands:
  category add <title>     create a category
  category list            list categories
  tag add <title>          create a tag
  tag list                 list tags
  user activate <username> activate an account

Flags:
`

var errUsage = errors.New("invalid arguments")

func main() {
	flags := pflag.NewFlagSet("blogctl", pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	skipMigrate := flags.Bool("skip-migrate", false, "do not apply pending migrations first")
	logLevel := flags.StringP("log-level", "l", "warn", "log level (debug, info, warn, error)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.Log.Level = *logLevel
	log := logger.New(cfg.Log, os.Stderr)

	if !*skipMigrate {
		if err := data.ApplyMigrations(cfg.DB); err != nil {
			log.Fatal(err, "Failed to apply migrations")
		}
	}
	db, err := data.NewDB(cfg.DB)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	tags := data.NewTagRepository(db)
	categories := data.NewCategoryRepository(db)
	taxonomy := service.NewTaxonomyService(tags, categories)
	accounts, err := service.NewAccountService(
		data.NewSQLUserRepository(db),
		token.NewGenerator(cfg.Session.SecretKey, cfg.Security.TokenTTL),
		mailer.NewConsoleSender(cfg.Mail.From, io.Discard),
		web.TemplateFS,
		cfg.Security.BcryptCost,
		log,
	)
	if err != nil {
		log.Fatal(err, "Failed to initialize account service")
	}

	err = run(context.Background(), os.Stdout, flags.Args(), taxonomy, accounts)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		flags.Usage()
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

// run dispatches one command. Output for humans goes to out.
func run(ctx context.Context, out io.Writer, args []string, taxonomy *service.TaxonomyService, accounts *service.AccountService) error {
	if len(args) < 2 {
		return errUsage
	}
	cmd, sub, rest := args[0], args[1], args[2:]

	switch cmd + " " + sub {
	case "category add":
		if len(rest) == 0 {
			return errUsage
		}
		c, err := taxonomy.CreateCategory(ctx, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Created category %q (%s)\n", c.Title, c.Slug)
	case "category list":
		all, err := taxonomy.Categories(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSLUG")
		for _, c := range all {
			fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Title, c.Slug)
		}
		return w.Flush()
	case "tag add":
		if len(rest) == 0 {
			return errUsage
		}
		t, err := taxonomy.CreateTag(ctx, &form.Tag{Title: strings.Join(rest, " ")})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Created tag %q (%s)\n", t.Title, t.Slug)
	case "tag list":
		all, err := taxonomy.Tags(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSLUG")
		for _, t := range all {
			fmt.Fprintf(w, "%d\t%s\t%s\n", t.ID, t.Title, t.Slug)
		}
		return w.Flush()
	case "user activate":
		if len(rest) != 1 {
			return errUsage
		}
		u, err := accounts.ActivateByUsername(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Account %s is active\n", u.Username)
	default:
		return errUsage
	}
	return nil
}

// describe flattens service errors, including per-field problems, into one line.
func describe(err error) string {
	fields := service.FieldErrors(err)
	if len(fields) == 0 {
		var svcErr *service.Error
		if errors.As(err, &svcErr) && svcErr.Message != "" {
			return svcErr.Message
		}
		return err.Error()
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(fields[k], " "))
	}
	return strings.Join(parts, "; ")
}
