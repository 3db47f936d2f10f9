package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"wedding-registry/internal/errs"
	"wedding-registry/internal/importer"
	"wedding-registry/internal/invite"
	"wedding-registry/internal/models"
	"wedding-registry/internal/whatsapp"
)

type invitationFlags struct {
	models.InvitationGuestDraft
}

func (f *invitationFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.Name, "name", "n", "", "Guest name")
	fs.StringVar(&f.NameKm, "name-km", "", "Guest name in Khmer")
	fs.StringVarP(&f.Phone, "phone", "p", "", "Phone number")
	fs.StringVarP(&f.Email, "email", "e", "", "Email address")
	fs.StringVar(&f.Address, "address", "", "Address")
	fs.StringVarP(&f.GroupCategory, "group", "g", "", "Group, e.g. Family")
	fs.StringVar(&f.Note, "note", "", "Note")
}

func (f *invitationFlags) overlay(fs *pflag.FlagSet, g models.InvitationGuest) models.InvitationGuestDraft {
	d := models.InvitationGuestDraft{
		Name:          g.Name,
		NameKm:        g.NameKm,
		Phone:         g.Phone,
		Email:         g.Email,
		Address:       g.Address,
		GroupCategory: g.GroupCategory,
		Note:          g.Note,
	}
	fields := map[string]*string{
		"name":    &d.Name,
		"name-km": &d.NameKm,
		"phone":   &d.Phone,
		"email":   &d.Email,
		"address": &d.Address,
		"group":   &d.GroupCategory,
		"note":    &d.Note,
	}
	for flag, dst := range fields {
		if fs.Changed(flag) {
			*dst = fs.Lookup(flag).Value.String()
		}
	}
	return d
}

type filterFlags struct {
	search, group         string
	imported, notImported bool
}

func (f *filterFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.search, "search", "s", "", "Match name, Khmer name, phone or email")
	fs.StringVarP(&f.group, "group", "g", "", "Only this group")
	fs.BoolVar(&f.imported, "imported", false, "Only guests already in the gift registry")
	fs.BoolVar(&f.notImported, "not-imported", false, "Only guests not yet in the gift registry")
}

func (f *filterFlags) filter() (models.InvitationFilter, error) {
	filter := models.InvitationFilter{Search: f.search, GroupCategory: f.group}
	switch {
	case f.imported && f.notImported:
		return filter, errors.New("--imported and --not-imported are exclusive")
	case f.imported:
		v := true
		filter.IsImported = &v
	case f.notImported:
		v := false
		filter.IsImported = &v
	}
	return filter, nil
}

func (a *app) invitationCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "invitation", Aliases: []string{"inv"}, Short: "Invitation list"}

	var add invitationFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add someone to the invitation list",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.store.AddInvitationGuest(cmd.Context(), add.InvitationGuestDraft)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Invitation guest %d added\n", id)
			return nil
		},
	}
	add.register(addCmd.Flags())
	_ = addCmd.MarkFlagRequired("name")

	var upd invitationFlags
	updateCmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change an invitation guest; only the given flags are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := a.store.GetInvitationGuest(cmd.Context(), id)
			if err != nil {
				return err
			}
			n, err := a.store.UpdateInvitationGuest(cmd.Context(), id, upd.overlay(cmd.Flags(), *current))
			if err != nil {
				return err
			}
			changedRows(a.out, n, "invitation guest")
			return nil
		},
	}
	upd.register(updateCmd.Flags())

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Remove someone from the invitation list; linked gifts are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, err := a.store.DeleteInvitationGuest(cmd.Context(), id)
			if err != nil {
				return err
			}
			changedRows(a.out, n, "invitation guest")
			return nil
		},
	}

	var lf filterFlags
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the invitation list",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := lf.filter()
			if err != nil {
				return err
			}
			guests, err := a.store.GetInvitationGuests(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(guests)
			}
			a.printInvitations(guests)
			return nil
		},
	}
	lf.register(listCmd.Flags())

	var dryRun bool
	importCmd := &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Import an invitation list from a CSV file",
		Long:  "The first line holds the headers. English or Khmer headers for name, Khmer name, phone, email, address, group and note are recognised; rows without a name are skipped.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			if dryRun {
				drafts, err := importer.Preview(f)
				if err != nil {
					return err
				}
				if a.asJSON {
					return a.printJSON(drafts)
				}
				fmt.Fprintf(a.out, "%d rows would be imported\n", len(drafts))
				return nil
			}

			res, err := importer.NewImporter(a.store, a.log).Import(cmd.Context(), f)
			if err != nil && !errs.IsCode(err, errs.CodePartialFailure) {
				return err
			}
			if a.asJSON {
				if perr := a.printJSON(res); perr != nil {
					return perr
				}
				return err
			}
			fmt.Fprintf(a.out, "Imported %d rows, %d failed\n", res.SuccessCount, res.ErrorCount)
			for _, e := range res.Errors {
				fmt.Fprintf(a.out, "  row %d: %s\n", e.Row, e.Error)
			}
			return err
		},
	}
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only show how many rows would be imported")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Count the invitation list",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store.GetInvitationGuestStats(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(st)
			}
			fmt.Fprintf(a.out, "Total:        %d\n", st.Total)
			fmt.Fprintf(a.out, "Imported:     %d\n", st.Imported)
			fmt.Fprintf(a.out, "Not imported: %d\n", st.NotImported)
			fmt.Fprintf(a.out, "Groups:       %d\n", st.TotalGroups)
			return nil
		},
	}

	groupsCmd := &cobra.Command{
		Use:   "groups",
		Short: "List group categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := a.store.GetGroupCategories(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(groups)
			}
			for _, g := range groups {
				fmt.Fprintln(a.out, g)
			}
			return nil
		},
	}

	var confirmed bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the whole invitation list",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("refusing to clear the invitation list without --yes")
			}
			n, err := a.store.ClearAllInvitationGuests(cmd.Context())
			if err != nil {
				return err
			}
			changedRows(a.out, n, "invitation guests")
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm deleting every invitation guest")

	cmd.AddCommand(addCmd, updateCmd, deleteCmd, listCmd, importCmd, statsCmd, groupsCmd, clearCmd, a.sendCmd())
	return cmd
}

func (a *app) sendCmd() *cobra.Command {
	var sf filterFlags
	cmd := &cobra.Command{
		Use:   "send [ID]",
		Short: "Send invitations over WhatsApp",
		Long:  "Sends the invitation to one invitation guest, or to every guest matching the filters. An unlinked device prints a QR code to scan first.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := whatsapp.NewService(ctx, &whatsapp.Config{DataDir: a.cfg.WhatsAppDataDir}, a.log)
			if err != nil {
				return err
			}
			if err := svc.Connect(ctx, a.out); err != nil {
				return err
			}
			defer svc.Disconnect()

			sender := invite.NewSender(svc, a.store, a.log)
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := sender.Send(ctx, id); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Invitation sent")
				return nil
			}

			filter, err := sf.filter()
			if err != nil {
				return err
			}
			report, err := sender.SendAll(ctx, filter)
			a.printReport(report)
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(a.out, "Stopped")
				return nil
			}
			return err
		},
	}
	sf.register(cmd.Flags())
	return cmd
}

func (a *app) printReport(r invite.Report) {
	if a.asJSON {
		_ = a.printJSON(r)
		return
	}
	fmt.Fprintf(a.out, "Sent %d, skipped %d without phone, failed %d\n", len(r.Sent), len(r.Skipped), len(r.Failed))
	for _, f := range r.Failed {
		fmt.Fprintf(a.out, "  %s (%s): %s\n", f.Guest.Name, f.Guest.Phone, f.Error)
	}
}

func (a *app) printInvitations(guests []models.InvitationGuest) {
	if len(guests) == 0 {
		fmt.Fprintln(a.out, "No invitation guests found.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tNAME (KM)\tPHONE\tEMAIL\tGROUP\tIMPORTED")
	for _, g := range guests {
		imported := ""
		if g.IsImported {
			imported = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", g.ID, g.Name, g.NameKm, g.Phone, g.Email, g.GroupCategory, imported)
	}
	tw.Flush()
	fmt.Fprintf(a.out, "\n%d invitation guests\n", len(guests))
}
