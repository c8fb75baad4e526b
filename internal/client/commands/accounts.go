package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ritchy/BytePass/internal/client/config"
	"github.com/ritchy/BytePass/internal/client/document"
	"github.com/ritchy/BytePass/internal/client/output"
	"github.com/ritchy/BytePass/internal/client/storage"
	"github.com/ritchy/BytePass/internal/client/vault"
)

// NewAccountCommands returns the account management commands
func NewAccountCommands(getCfg func() *config.Config, getFiles func() (*storage.FileStore, error)) []*cobra.Command {
	return []*cobra.Command{
		newListCmd(getCfg, getFiles),
		newSearchCmd(getCfg, getFiles),
		newTagsCmd(getCfg, getFiles),
		newShowCmd(getCfg, getFiles),
		newAddCmd(getCfg, getFiles),
		newUpdateCmd(getCfg, getFiles),
		newDeleteCmd(getCfg, getFiles),
	}
}

// accountFields holds the editable account fields bound to flags
type accountFields struct {
	name          string
	username      string
	password      string
	accountNumber string
	url           string
	email         string
	hint          string
	notes         string
	tags          []string
}

func (f *accountFields) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Account name")
	cmd.Flags().StringVar(&f.username, "username", "", "Username")
	cmd.Flags().StringVar(&f.password, "password", "", "Password")
	cmd.Flags().StringVar(&f.accountNumber, "account-number", "", "Account number")
	cmd.Flags().StringVar(&f.url, "url", "", "Website or service URL")
	cmd.Flags().StringVar(&f.email, "email", "", "Email address")
	cmd.Flags().StringVar(&f.hint, "hint", "", "Password hint")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Additional notes")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "Tag (repeatable)")
}

// apply copies every flag the user set onto a
func (f *accountFields) apply(cmd *cobra.Command, a *document.Account) {
	set := func(flag string, dst *string, v string) {
		if cmd.Flags().Changed(flag) {
			*dst = v
		}
	}

	set("name", &a.Name, f.name)
	set("username", &a.Username, f.username)
	set("password", &a.Password, f.password)
	set("account-number", &a.AccountNumber, f.accountNumber)
	set("url", &a.URL, f.url)
	set("email", &a.Email, f.email)
	set("hint", &a.Hint, f.hint)
	set("notes", &a.Notes, f.notes)

	if cmd.Flags().Changed("tag") {
		a.Tags = []string{}
		for _, t := range f.tags {
			a.AddTag(t)
		}
	}
}

// account builds a new active record from every field
func (f *accountFields) account(now time.Time) document.Account {
	a := document.NewAccount(strings.TrimSpace(f.name), now)
	a.Username = f.username
	a.Password = f.password
	a.AccountNumber = f.accountNumber
	a.URL = f.url
	a.Email = f.email
	a.Hint = f.hint
	a.Notes = f.notes
	for _, t := range f.tags {
		a.AddTag(t)
	}
	return a
}

// saveVault stamps the collection and writes it to accounts.json
func saveVault(ctx context.Context, files *storage.FileStore, store *vault.Store, now time.Time) error {
	doc := store.Snapshot()
	doc.Stamp(now)
	if err := files.SaveAccounts(ctx, doc); err != nil {
		return fmt.Errorf("failed to save accounts: %w", err)
	}
	store.Load(doc)
	return nil
}

// taken reports whether id is used by an active or deleted record
func taken(store *vault.Store, id int64) bool {
	_, err := getAccount(store, id)
	return err == nil
}

func printAccounts(cmd *cobra.Command, cfg *config.Config, accounts []document.Account) error {
	out, err := output.FormatAccountList(accounts, cfg.Format)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func newListCmd(getCfg func() *config.Config, getFiles func() (*storage.FileStore, error)) *cobra.Command {
	var (
		showDeleted bool
		tag         string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List accounts",
		Long:    "Display active accounts sorted by name, or the deleted list with --deleted",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getCfg()

			return withVault(commandContext(cmd), getFiles, func(ctx context.Context, files *storage.FileStore, store *vault.Store) error {
				var accounts []document.Account
				switch {
				case showDeleted:
					accounts = store.SearchDeleted()
				case tag != "":
					accounts = store.FilterByTag(tag)
				default:
					accounts = store.SortedByName()
				}

				return printAccounts(cmd, cfg, accounts)
			})
		},
	}

	cmd.Flags().BoolVar(&showDeleted, "deleted", false, "List deleted accounts")
	cmd.Flags().StringVar(&tag, "tag", "", "Only list accounts with this tag")

	return cmd
}

func newSearchCmd(getCfg func() *config.Config, getFiles func() (*storage.FileStore, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Search active accounts",
		Long:  "Match QUERY case-insensitively against every text field and tag of active accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getCfg()

			return withVault(commandContext(cmd), getFiles, func(ctx context.Context, files *storage.FileStore, store *vault.Store) error {
				return printAccounts(cmd, cfg, store.Search(args[0]))
			})
		},
	}
}

func newTagsCmd(getCfg func() *config.Config, getFiles func() (*storage.FileStore, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List the tags of active accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getCfg()

			return withVault(commandContext(cmd), getFiles, func(ctx context.Context, files *storage.FileStore, store *vault.Store) error {
				out, err := output.FormatTags(store.AllTags(), cfg.Format)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newShowCmd(getCfg func() *config.Config, getFiles func() (*storage.FileStore, error)) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one account",
		Long:  "Display an account by id. The password is masked unless --reveal is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getCfg()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withVault(commandContext(cmd), getFiles, func(ctx context.Context, files *storage.FileStore, store *vault.Store) error {
				a, err := getAccount(store, id)
				if err != nil {
					return err
				}

				out, err := output.FormatAccount(a, cfg.Format, reveal)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show the password in clear text")

	return cmd
}

func newAddCmd(_ func() *config.Config, getFiles func() (*storage.FileStore, error)) *cobra.Command {
	var fields accountFields

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new account",
		Long:  "Create a new account from flags, or interactively when --name is not given",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("name") {
				if err := promptAccount(&fields); err != nil {
					return err
				}
			}

			return withVault(commandContext(cmd), getFiles, func(ctx context.Context, files *storage.FileStore, store *vault.Store) error {
				now := time.Now()
				a := fields.account(now)
				for taken(store, a.ID) {
					a.ID++
				}

				if !a.Valid() {
					return fmt.Errorf("%w: account name must be set and not %q", storage.ErrInvalidRecord, document.PlaceholderName)
				}

				store.Add(a)
				if err := saveVault(ctx, files, store, now); err != nil {
					return err
				}

				logrus.WithFields(logrus.Fields{"op": "add", "id": a.ID}).Debug("account added")
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Account added\n")
				fmt.Fprintf(cmd.OutOrStdout(), "  ID:   %d\n", a.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "  Name: %s\n", a.Name)
				return nil
			})
		},
	}

	fields.bind(cmd)

	return cmd
}

// promptAccount asks for the common account fields
func promptAccount(f *accountFields) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("A friendly name for this account (e.g., 'Bank')").
				Value(&f.name).
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" || s == document.PlaceholderName {
						return fmt.Errorf("name is required")
					}
					return nil
				}),

			huh.NewInput().
				Title("Username (optional)").
				Value(&f.username),

			huh.NewInput().
				Title("Password (optional)").
				Value(&f.password).
				EchoMode(huh.EchoModePassword),

			huh.NewInput().
				Title("URL (optional)").
				Description("Website or service URL").
				Value(&f.url),

			huh.NewInput().
				Title("Notes (optional)").
				Value(&f.notes),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("operation cancelled: %w", err)
	}

	return nil
}

func newUpdateCmd(_ func() *config.Config, getFiles func() (*storage.FileStore, error)) *cobra.Command {
	var fields accountFields

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update an account",
		Long:  "Change the fields given as flags and refresh the account's timestamp",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withVault(commandContext(cmd), getFiles, func(ctx context.Context, files *storage.FileStore, store *vault.Store) error {
				a, ok := store.FindByID(id)
				if !ok {
					return fmt.Errorf("account not found: %d", id)
				}

				updated := a.Clone()
				fields.apply(cmd, &updated)
				if updated.Equal(a) {
					fmt.Fprintln(cmd.OutOrStdout(), "No changes")
					return nil
				}
				if !updated.Valid() {
					return fmt.Errorf("%w: account name must be set and not %q", storage.ErrInvalidRecord, document.PlaceholderName)
				}

				now := time.Now()
				updated.Touch(now)
				store.Replace(updated)
				if err := saveVault(ctx, files, store, now); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "✓ Account updated (%s)\n", updated.LastUpdated)
				return nil
			})
		},
	}

	fields.bind(cmd)

	return cmd
}

func newDeleteCmd(_ func() *config.Config, getFiles func() (*storage.FileStore, error)) *cobra.Command {
	var noConfirm bool

	cmd := &cobra.Command{
		Use:     "delete ID",
		Short:   "Delete an account",
		Long:    "Move an account to the deleted list. Deleted accounts are kept and synced",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withVault(commandContext(cmd), getFiles, func(ctx context.Context, files *storage.FileStore, store *vault.Store) error {
				a, ok := store.FindByID(id)
				if !ok {
					return fmt.Errorf("account not found: %d", id)
				}

				confirmed, err := confirmDeletion(a.Name, noConfirm)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
					return nil
				}

				now := time.Now()
				store.Delete(a, now)
				if err := saveVault(ctx, files, store, now); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "✓ Account '%s' deleted\n", a.Name)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")

	return cmd
}
