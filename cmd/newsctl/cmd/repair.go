package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/newsboard/newsboard/internal/repository"
	"github.com/newsboard/newsboard/internal/slug"
	"github.com/newsboard/newsboard/internal/textfix"
)

func RepairTextCmd() *cobra.Command {
	var apply bool

	repairCmd := &cobra.Command{
		Use:   "repair-text",
		Short: "Find and fix Thai text stored as mis-decoded Latin-1",
		Long: "Scans news titles, categories and attachment names for UTF-8 text that was\n" +
			"decoded as ISO-8859-1 before being stored. Without --apply only a report is printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			n, err := repairText(cmd.Context(), conn, apply, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			verb := "would be repaired"
			if apply {
				verb = "repaired"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d value(s) %s\n", n, verb)
			return nil
		},
	}
	repairCmd.Flags().BoolVar(&apply, "apply", false, "write the repaired values")

	return repairCmd
}

// repairText reports every value textfix would change and, with apply, writes
// the fixes in one transaction. Slugs follow repaired titles.
func repairText(ctx context.Context, conn *sqlx.DB, apply bool, out io.Writer) (int, error) {
	found := 0

	err := repository.InTx(ctx, conn, func(tx *sqlx.Tx) error {
		newsRepo := repository.NewNewsRepository(tx)
		attachmentRepo := repository.NewAttachmentRepository(tx)

		items, err := newsRepo.All(ctx)
		if err != nil {
			return err
		}
		for _, n := range items {
			changed := false
			if textfix.NeedsRepair(n.Title) {
				fixed := textfix.Repair(n.Title)
				fmt.Fprintf(out, "news %d title: %q -> %q\n", n.ID, n.Title, fixed)
				n.Title, n.Slug = fixed, slug.Make(fixed)
				changed = true
				found++
			}
			if textfix.NeedsRepair(n.Category) {
				fixed := textfix.Repair(n.Category)
				fmt.Fprintf(out, "news %d category: %q -> %q\n", n.ID, n.Category, fixed)
				n.Category = fixed
				changed = true
				found++
			}
			if changed && apply {
				err = newsRepo.Update(ctx, n)
				if err != nil {
					return fmt.Errorf("failed to update news %d: %w", n.ID, err)
				}
			}
		}

		attachments, err := attachmentRepo.All(ctx)
		if err != nil {
			return err
		}
		for _, a := range attachments {
			if !textfix.NeedsRepair(a.OriginalName) {
				continue
			}
			fixed := textfix.Repair(a.OriginalName)
			fmt.Fprintf(out, "attachment %d name: %q -> %q\n", a.ID, a.OriginalName, fixed)
			found++
			if apply {
				err = attachmentRepo.UpdateOriginalName(ctx, a.ID, fixed)
				if err != nil {
					return fmt.Errorf("failed to update attachment %d: %w", a.ID, err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}
	return found, nil
}
