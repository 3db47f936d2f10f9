package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"wedding-registry/internal/models"
	"wedding-registry/internal/query"
)

type guestFlags struct {
	name, nameKm, phone, note string
	amount, currency, payment string
	invitationID              int64
}

func (f *guestFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.name, "name", "n", "", "Guest name")
	fs.StringVar(&f.nameKm, "name-km", "", "Guest name in Khmer")
	fs.StringVarP(&f.phone, "phone", "p", "", "Phone number")
	fs.StringVar(&f.note, "note", "", "Note")
	fs.StringVarP(&f.amount, "amount", "a", "0", "Gift amount")
	fs.StringVarP(&f.currency, "currency", "c", string(models.CurrencyKHR), "Currency (KHR or USD)")
	fs.StringVar(&f.payment, "payment", string(models.PaymentCash), "Payment type (CASH, ABA or AC)")
	fs.Int64Var(&f.invitationID, "invitation-id", 0, "Linked invitation guest id")
}

func (f *guestFlags) draft() models.GuestDraft {
	d := models.GuestDraft{
		Name:        f.name,
		NameKm:      f.nameKm,
		Phone:       f.phone,
		Note:        f.note,
		Amount:      f.amount,
		Currency:    models.Currency(strings.ToUpper(f.currency)),
		PaymentType: models.PaymentType(strings.ToUpper(f.payment)),
	}
	if f.invitationID > 0 {
		id := f.invitationID
		d.InvitationGuestID = &id
	}
	return d
}

// overlay copies the flags the user set onto an existing guest.
func (f *guestFlags) overlay(fs *pflag.FlagSet, g models.Guest) models.GuestDraft {
	d := models.GuestDraft{
		Name:              g.Name,
		NameKm:            g.NameKm,
		Phone:             g.Phone,
		Note:              g.Note,
		Amount:            g.Amount.String(),
		Currency:          g.Currency,
		PaymentType:       g.PaymentType,
		InvitationGuestID: g.InvitationGuestID,
	}
	set := f.draft()
	if fs.Changed("name") {
		d.Name = set.Name
	}
	if fs.Changed("name-km") {
		d.NameKm = set.NameKm
	}
	if fs.Changed("phone") {
		d.Phone = set.Phone
	}
	if fs.Changed("note") {
		d.Note = set.Note
	}
	if fs.Changed("amount") {
		d.Amount = set.Amount
	}
	if fs.Changed("currency") {
		d.Currency = set.Currency
	}
	if fs.Changed("payment") {
		d.PaymentType = set.PaymentType
	}
	if fs.Changed("invitation-id") {
		d.InvitationGuestID = set.InvitationGuestID
	}
	return d
}

// relinked returns the new invitation guest id when it differs from the old one.
func relinked(old, next *int64) *int64 {
	if next == nil || (old != nil && *old == *next) {
		return nil
	}
	return next
}

func (a *app) guestCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "guest", Short: "Gift registry guests"}

	var add guestFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a guest and their gift",
		RunE: func(cmd *cobra.Command, args []string) error {
			// a linked invitation guest is marked imported in the same write
			id, err := a.store.AddGuestFromInvitation(cmd.Context(), add.draft())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Guest %d added\n", id)
			return nil
		},
	}
	add.register(addCmd.Flags())
	_ = addCmd.MarkFlagRequired("name")

	var upd guestFlags
	updateCmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a guest; only the given flags are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := a.store.GetGuest(cmd.Context(), id)
			if err != nil {
				return err
			}
			n, err := a.store.UpdateGuest(cmd.Context(), id, upd.overlay(cmd.Flags(), *current))
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("invitation-id") {
				if linked := relinked(current.InvitationGuestID, upd.draft().InvitationGuestID); linked != nil {
					if _, err := a.store.MarkInvitationGuestImported(cmd.Context(), *linked); err != nil {
						return err
					}
				}
			}
			changedRows(a.out, n, "guest")
			return nil
		},
	}
	upd.register(updateCmd.Flags())

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a guest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, err := a.store.DeleteGuest(cmd.Context(), id)
			if err != nil {
				return err
			}
			changedRows(a.out, n, "guest")
			return nil
		},
	}

	var (
		search, payment string
		page, pageSize  int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List guests, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			guests, err := a.store.GetGuests(cmd.Context())
			if err != nil {
				return err
			}
			state := query.NewListState().
				ChangePageSize(pageSize).
				Load(guests).
				ApplyFilter(search, models.PaymentType(strings.ToUpper(payment))).
				ChangePage(page)
			if a.asJSON {
				return a.printJSON(state.Visible())
			}
			a.printGuests(state)
			return nil
		},
	}
	listCmd.Flags().StringVarP(&search, "search", "s", "", "Match name, Khmer name, phone or note")
	listCmd.Flags().StringVar(&payment, "payment", "", "Only this payment type")
	listCmd.Flags().IntVar(&page, "page", 1, "Page number")
	listCmd.Flags().IntVar(&pageSize, "page-size", query.DefaultPageSize, "Guests per page")

	totalsCmd := &cobra.Command{
		Use:   "totals",
		Short: "Show gift totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.store.GetTotals(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(t)
			}
			fmt.Fprintf(a.out, "Guests:     %d\n", t.TotalGuests)
			fmt.Fprintf(a.out, "Total KHR:  %s\n", t.TotalKHR.StringFixed(0))
			fmt.Fprintf(a.out, "Total USD:  %s\n", t.TotalUSD.StringFixed(2))
			fmt.Fprintf(a.out, "Cash total: %s\n", t.CashTotal.String())
			return nil
		},
	}

	var gift guestFlags
	fromInvitationCmd := &cobra.Command{
		Use:   "from-invitation INVITATION_ID",
		Short: "Record a gift from someone on the invitation list and mark them imported",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invID, err := parseID(args[0])
			if err != nil {
				return err
			}
			inv, err := a.store.GetInvitationGuest(cmd.Context(), invID)
			if err != nil {
				return err
			}
			d := gift.draft()
			d.Name, d.NameKm, d.Phone = inv.Name, inv.NameKm, inv.Phone
			if !cmd.Flags().Changed("note") {
				d.Note = inv.Note
			}
			d.InvitationGuestID = &inv.ID
			id, err := a.store.AddGuestFromInvitation(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Guest %d added from invitation %d\n", id, invID)
			return nil
		},
	}
	gift.register(fromInvitationCmd.Flags())

	cmd.AddCommand(addCmd, updateCmd, deleteCmd, listCmd, totalsCmd, fromInvitationCmd)
	return cmd
}

func (a *app) printGuests(state query.ListState) {
	start, end, total := state.Range()
	if total == 0 {
		fmt.Fprintln(a.out, "No guests found.")
		return
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tNAME (KM)\tPHONE\tAMOUNT\tKHR\tUSD\tPAYMENT\tNOTE")
	for _, g := range state.Visible() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s %s\t%s\t%s\t%s\t%s\n",
			g.ID, g.Name, g.NameKm, g.Phone, g.Amount.String(), g.Currency,
			g.AmountKHR.StringFixed(0), g.AmountUSD.StringFixed(2), g.PaymentType, g.Note)
	}
	tw.Flush()

	pages := make([]string, 0, 7)
	for _, p := range state.Pages() {
		label := p.String()
		if !p.Ellipsis && p.Page == state.Page {
			label = "[" + label + "]"
		}
		pages = append(pages, label)
	}
	fmt.Fprintf(a.out, "\nShowing %d-%d of %d  %s\n", start, end, total, strings.Join(pages, " "))
}
