package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/servar-dev/servar/internal/google"
	"github.com/servar-dev/servar/internal/logging"
)

type authOptions struct {
	commonFlags

	force bool
}

func newAuthCmd() *cobra.Command {
	opts := &authOptions{}

	cmd := &cobra.Command{
		Use:       "auth [mail|storage|courses|all]",
		Short:     "Authorize Google providers ahead of time",
		ValidArgs: []string{"mail", "storage", "courses", "all"},
		Long: `Run the browser consent flow for one provider, or all of them, and store
the token files so that "servar serve" starts without prompting.

Providers that already have a token file are left alone unless --force is
given, which deletes the token file and asks for consent again.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "all"
			if len(args) == 1 {
				target = args[0]
			}
			return runAuth(cmd, opts, target)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.force, "force", false, "Discard existing token files and authorize again")

	return cmd
}

func authTargets(target string) ([]google.Provider, error) {
	if target == "all" {
		return google.Providers(), nil
	}
	p, err := google.ParseProvider(target)
	if err != nil {
		return nil, err
	}
	return []google.Provider{p}, nil
}

func runAuth(cmd *cobra.Command, opts *authOptions, target string) error {
	providers, err := authTargets(target)
	if err != nil {
		return err
	}

	logger, err := opts.setupLogger()
	if err != nil {
		return err
	}
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	handshaker := newHandshaker(cfg, logger)
	out := cmd.OutOrStdout()

	var errs []error
	for _, p := range providers {
		credsPath, tokenPath, err := cfg.Paths(p.String())
		if err != nil {
			return err
		}

		if opts.force {
			if err := os.Remove(tokenPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to remove token file: %w", err)
			}
		}

		_, err = google.Acquire(cmd.Context(), p, credsPath, tokenPath,
			google.WithHandshaker(handshaker),
			google.WithLogger(logger),
		)
		if err != nil {
			logger.Error("authorization failed", logging.Provider(p.String()), logging.Err(err))
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(out, "%s: authorized (%s)\n", p, tokenPath)
	}

	return errors.Join(errs...)
}
