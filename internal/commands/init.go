package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gstbook-dev/gstbook/internal/config"
	"github.com/gstbook-dev/gstbook/internal/gitops"
	"github.com/gstbook-dev/gstbook/internal/numbering"
	"github.com/gstbook-dev/gstbook/internal/records"
)

func newInitCommand() *cobra.Command {
	var name string
	var gstin string
	var homeState string
	var noGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new gstbook project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, name, gstin, homeState, !noGit)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&gstin, "gstin", "", "seller GSTIN")
	cmd.Flags().StringVar(&homeState, "home-state", "Gujarat", "state the business is registered in")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "skip git init and the initial commit")

	return cmd
}

func runInit(w io.Writer, dir, name, gstin, homeState string, useGit bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	for _, d := range []string{"books", "logs", "exports"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(name, gstin)
	cfg.Business.HomeState = homeState
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	books := records.NewService(dir)
	files := map[string]string{
		books.InvoicesPath():                      records.InvoiceHeader + "\n",
		books.TransactionsPath():                  records.TransactionHeader + "\n",
		numbering.NewProvisionalLog(dir).Path():   numbering.ProvisionalHeader + "\n",
		filepath.Join(dir, ".gitignore"):          cfg.Numbering.SQLitePath + "\nexports/\n.env\n",
		filepath.Join(dir, "exports", ".gitkeep"): "",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
		}
	}

	if !useGit {
		fmt.Fprintf(w, "Initialized gstbook project at %s\n", dir)
		return nil
	}

	repo := gitops.Open(dir, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err := repo.Init(); err != nil {
		return err
	}
	hash, err := repo.Commit("init: " + name)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(w, "Initialized gstbook project at %s (%s)\n", dir, hash)
	return nil
}
