package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mehnda-chinji/internal/api"
	"mehnda-chinji/internal/domain"
)

const dateLayout = "2006-01-02"

func (r *runner) donorsCmd() *cobra.Command {
	donors := &cobra.Command{
		Use:   "donors",
		Short: "Browse blood donors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var filter domain.DonorFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List available donors",
		Args:  cobra.NoArgs,
	}
	list.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		found, err := r.app.Donors.List(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("list donors: %w", err)
		}
		if len(found) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No donors found")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tGROUP\tCITY\tPHONE")
		for _, d := range found {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Name, d.BloodGroup, d.City, d.Phone)
		}
		return w.Flush()
	})
	list.Flags().StringVar(&filter.BloodGroup, "blood-group", "", "blood group such as O+")
	list.Flags().StringVar(&filter.Name, "name", "", "donor name")
	list.Flags().StringVar(&filter.Location, "location", "", "city or village")
	donors.AddCommand(
		annotate(list, areaApp),
		annotate(r.donorRegisterCmd(), areaApp),
		annotate(r.donorStatusCmd(), areaApp),
		annotate(r.donorRemoveCmd(), areaApp),
		annotate(r.donorToggleCmd(), areaApp),
	)
	return donors
}

func (r *runner) donorRegisterCmd() *cobra.Command {
	var (
		reg         api.DonorRegistration
		lastDonated string
		busy        bool
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register as a blood donor",
		Long: `Register as a blood donor. City and village default to the profile.

Examples:
  chinji donors register --blood-group O+ --last-donation 2024-03-01`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		if lastDonated != "" {
			t, err := time.Parse(dateLayout, lastDonated)
			if err != nil {
				return fmt.Errorf("--last-donation: expected YYYY-MM-DD, got %q", lastDonated)
			}
			reg.LastDonationDate = &t
		}
		available := !busy
		reg.Available = &available
		donor, err := r.app.Donors.Register(cmd.Context(), reg)
		if err != nil {
			return fmt.Errorf("register donor: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered as %s donor in %s\n", donor.BloodGroup, donor.City)
		return nil
	})
	cmd.Flags().StringVar(&reg.BloodGroup, "blood-group", "", "blood group such as O+")
	cmd.Flags().StringVar(&reg.City, "city", "", "city, defaults to the profile city")
	cmd.Flags().StringVar(&reg.Village, "village", "", "village, defaults to the profile village")
	cmd.Flags().StringVar(&lastDonated, "last-donation", "", "date of the last donation, YYYY-MM-DD")
	cmd.Flags().BoolVar(&busy, "busy", false, "register as not available for now")
	_ = cmd.MarkFlagRequired("blood-group")
	return cmd
}

func (r *runner) donorStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show your donor registration",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		donor, err := r.app.Donors.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("donor status: %w", err)
		}
		printDonor(cmd, donor)
		return nil
	})
	return cmd
}

func (r *runner) donorRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Leave the donor list",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		if err := r.app.Donors.Remove(cmd.Context()); err != nil {
			return fmt.Errorf("remove donor: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Removed from the donor list")
		return nil
	})
	return cmd
}

func (r *runner) donorToggleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Switch between available and busy",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		donor, err := r.app.Donors.ToggleAvailability(cmd.Context())
		if err != nil {
			return fmt.Errorf("toggle availability: %w", err)
		}
		printDonor(cmd, donor)
		return nil
	})
	return cmd
}

func printDonor(cmd *cobra.Command, d *domain.Donor) {
	out := cmd.OutOrStdout()
	if d == nil {
		fmt.Fprintln(out, "Not registered as a donor")
		return
	}
	status := "available"
	if !d.Available {
		status = "busy"
	}
	fmt.Fprintf(out, "%s donor in %s, %s\n", d.BloodGroup, d.City, status)
	if d.LastDonationDate != nil {
		fmt.Fprintf(out, "last donation: %s\n", d.LastDonationDate.Format(dateLayout))
	}
}

func (r *runner) businessesCmd() *cobra.Command {
	businesses := &cobra.Command{
		Use:   "businesses",
		Short: "Browse the business directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var (
		filter  domain.BusinessFilter
		all     bool
		refresh bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List businesses, one page at a time",
		Args:  cobra.NoArgs,
	}
	list.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		l := r.app.Directory.List(filter)
		load := l.Load
		if refresh {
			load = l.Refresh
		}
		if err := load(ctx); err != nil {
			return fmt.Errorf("list businesses: %w", err)
		}
		for all && l.HasNext() {
			if _, err := l.FetchNext(ctx); err != nil {
				return fmt.Errorf("list businesses: %w", err)
			}
		}

		items := l.Items()
		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, "No businesses found")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCITY\tPHONE")
		for _, b := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\n", b.Name, b.City, b.Phone)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if l.HasNext() {
			fmt.Fprintln(out, "More results available, use --all")
		}
		return nil
	})
	list.Flags().StringVar(&filter.Search, "search", "", "search term")
	list.Flags().StringVar(&filter.CategoryID, "category", "", "category id")
	list.Flags().BoolVar(&all, "all", false, "load every page")
	list.Flags().BoolVar(&refresh, "refresh", false, "ignore cached pages")
	businesses.AddCommand(
		annotate(list, areaApp),
		annotate(r.businessAddCmd(), areaApp),
		annotate(r.businessMineCmd(), areaApp),
		annotate(r.businessRemoveCmd(), areaApp),
		annotate(r.businessSearchableCmd("hide", false), areaApp),
		annotate(r.businessSearchableCmd("show", true), areaApp),
		annotate(r.categoriesCmd(), areaApp),
	)
	return businesses
}

func (r *runner) businessAddCmd() *cobra.Command {
	var reg api.BusinessRegistration
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a business in the directory",
		Long: `Register a business in the directory. Run 'chinji businesses categories'
for the category ids.

Examples:
  chinji businesses add --name "Henna House" --category svc-mehndi`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		b, err := r.app.Businesses.Register(cmd.Context(), reg)
		if err != nil {
			return fmt.Errorf("add business: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", b.Name, b.ID)
		return nil
	})
	cmd.Flags().StringVar(&reg.Name, "name", "", "business name")
	cmd.Flags().StringVar(&reg.CategoryID, "category", "", "category id")
	cmd.Flags().StringVar(&reg.Description, "description", "", "short description")
	cmd.Flags().StringVar(&reg.City, "city", "", "city, defaults to the profile city")
	cmd.Flags().StringVar(&reg.Address, "address", "", "street address")
	cmd.Flags().StringVar(&reg.Phone, "phone", "", "contact phone, defaults to the profile phone")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func (r *runner) businessMineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List your own businesses, hidden ones included",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		mine, err := r.app.Businesses.Mine(cmd.Context())
		if err != nil {
			return fmt.Errorf("list your businesses: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(mine) == 0 {
			fmt.Fprintln(out, "You have no businesses")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCITY\tLISTED")
		for _, b := range mine {
			listed := "yes"
			if !b.Searchable {
				listed = "hidden"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ID, b.Name, b.City, listed)
		}
		return w.Flush()
	})
	return cmd
}

func (r *runner) businessRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <business-id>",
		Short: "Delete one of your businesses",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		if err := r.app.Businesses.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("remove business: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Business removed")
		return nil
	})
	return cmd
}

func (r *runner) businessSearchableCmd(use string, searchable bool) *cobra.Command {
	short := "Hide a business from directory searches"
	if searchable {
		short = "List a hidden business in directory searches again"
	}
	cmd := &cobra.Command{
		Use:   use + " <business-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		if err := r.app.Businesses.SetSearchable(cmd.Context(), args[0], searchable); err != nil {
			return fmt.Errorf("%s business: %w", use, err)
		}
		if searchable {
			fmt.Fprintln(cmd.OutOrStdout(), "Business listed")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Business hidden")
		}
		return nil
	})
	return cmd
}

func (r *runner) categoriesCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List business categories",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		cats, err := r.app.Businesses.Categories(cmd.Context(), kind)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME")
		for _, c := range cats {
			fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
		}
		return w.Flush()
	})
	cmd.Flags().StringVar(&kind, "type", api.DefaultCategoryType, "SERVICES or SHOPS")
	return cmd
}
