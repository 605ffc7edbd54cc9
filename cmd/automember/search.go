package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/automember/internal/backend"
	"github.com/KilimcininKorOglu/automember/internal/filter"
	"github.com/KilimcininKorOglu/automember/internal/ldif"
	"github.com/KilimcininKorOglu/automember/internal/logging"
	"github.com/KilimcininKorOglu/automember/internal/overlay"
)

// searchParams is one search as typed on the command line or the console.
type searchParams struct {
	base      string
	scope     string
	filter    string
	attrs     []string
	bindDN    string
	root      bool
	sizeLimit int
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	p := &searchParams{}

	cmd := &cobra.Command{
		Use:   "search [flags] [attribute...]",
		Short: "Search the directory and print matching entries as LDIF",
		Example: `  automember search -c config.yaml -b ou=Groups,dc=example,dc=com member
  automember search -c config.yaml -f "(uid=alice)" memberOf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg, appOptions{logWriter: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()

			if p.base == "" {
				p.base = cfg.Directory.Suffix
			}
			p.attrs = args
			_, err = a.search(cmd.Context(), p, cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVarP(&p.base, "base", "b", "", "Search base (default: the directory suffix)")
	cmd.Flags().StringVarP(&p.scope, "scope", "s", "sub", "Search scope: base, one or sub")
	cmd.Flags().StringVarP(&p.filter, "filter", "f", "(objectClass=*)", "Search filter")
	cmd.Flags().StringVarP(&p.bindDN, "bind", "D", "", "Identity the search runs as")
	cmd.Flags().BoolVar(&p.root, "root", false, "Run the search as root, bypassing access rules")
	cmd.Flags().IntVarP(&p.sizeLimit, "size-limit", "z", 0, "Maximum number of entries (0 for no limit)")
	return cmd
}

// search runs p through the database and writes each returned entry to w.
func (a *app) search(ctx context.Context, p *searchParams, w io.Writer) (int, error) {
	scope, err := backend.ParseScope(p.scope)
	if err != nil {
		return 0, fmt.Errorf("scope %q: %w", p.scope, err)
	}
	f, err := filter.Parse(p.filter)
	if err != nil {
		return 0, err
	}

	requestID := logging.GenerateRequestID()
	op := &overlay.Operation{
		Request: &backend.SearchRequest{
			BaseDN:     p.base,
			Scope:      scope,
			Filter:     f,
			Attributes: p.attrs,
			SizeLimit:  p.sizeLimit,
		},
		BindDN:    p.bindDN,
		Root:      p.root,
		RequestID: requestID,
	}

	count := 0
	var outcome error
	err = a.db.Search(ctx, op, func(rep *overlay.Reply) error {
		switch rep.Type {
		case overlay.ReplyEntry:
			count++
			return ldif.Write(w, rep.Entry)
		case overlay.ReplyDone:
			outcome = rep.Err
		}
		return nil
	})
	if err == nil {
		err = outcome
	}

	fmt.Fprintf(w, "# numEntries: %d\n", count)
	if err != nil {
		fmt.Fprintf(w, "# result: %v\n", err)
	}
	return count, err
}
