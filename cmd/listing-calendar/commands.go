package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/username/listing-calendar/internal/calendar"
	"github.com/username/listing-calendar/internal/watch"
	"github.com/username/listing-calendar/pkg/dateutil"
	"go.uber.org/zap"
)

func showCmd() *cobra.Command {
	var month string
	var details bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one month of the calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			vm, _, err := newViewModel(nil)
			if err != nil {
				return err
			}

			if month != "" {
				w, err := parseMonth(month)
				if err != nil {
					return err
				}
				vm.SetWindow(w)
			}

			if _, err := vm.Load(cmd.Context()); err != nil {
				return err
			}

			renderMonth(os.Stdout, vm)
			if details {
				renderRecords(os.Stdout, vm.Month())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Month to show as YYYY-MM (default: current month)")
	cmd.Flags().BoolVar(&details, "details", false, "Also list the raw day records")

	return cmd
}

func editCmd() *cobra.Command {
	var form calendar.FormValues

	cmd := &cobra.Command{
		Use:   "edit DATE",
		Short: "Edit availability and pricing of one date",
		Long: "Edit one date (YYYY-MM-DD). The form starts from the current record of the date;\n" +
			"only the flags given on the command line are changed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := dateutil.ParseDate(args[0])
			if err != nil {
				return err
			}

			vm, _, err := newViewModel(nil)
			if err != nil {
				return err
			}
			vm.SetWindow(calendar.WindowOf(date))

			var rec *calendar.DayRecord
			if month, err := vm.Load(cmd.Context()); err != nil {
				logger.Warn("Failed to load current values, starting from defaults", zap.Error(err))
			} else {
				rec = month.Lookup(date)
			}

			if err := ensureEditable(vm, date, rec); err != nil {
				return err
			}
			values := calendar.FormValuesFromRecord(rec)

			flags := cmd.Flags()
			if flags.Changed("open") {
				values.IsOpen = form.IsOpen
			}
			if flags.Changed("available") {
				values.IsAvailable = form.IsAvailable
			}
			if flags.Changed("price") {
				values.Price = form.Price
			}
			if flags.Changed("min-stay") {
				values.MinimumStay = form.MinimumStay
			}
			if flags.Changed("total-rooms") {
				values.TotalRooms = form.TotalRooms
			}
			if flags.Changed("rooms-blocked") {
				values.RoomsBlocked = form.RoomsBlocked
			}

			outcome := vm.SubmitSingleEdit(cmd.Context(), date, values)
			return finishEdit(cmd.Context(), vm, outcome)
		},
	}

	cmd.Flags().BoolVar(&form.IsOpen, "open", true, "Open the date for bookings (false blocks it)")
	cmd.Flags().BoolVar(&form.IsAvailable, "available", true, "Mark the date available")
	cmd.Flags().Float64Var(&form.Price, "price", 0, "Price for the date")
	cmd.Flags().IntVar(&form.MinimumStay, "min-stay", 1, "Minimum stay in nights")
	cmd.Flags().IntVar(&form.TotalRooms, "total-rooms", 1, "Total rooms (accommodation only)")
	cmd.Flags().IntVar(&form.RoomsBlocked, "rooms-blocked", 0, "Blocked rooms (accommodation only)")

	return cmd
}

func bulkEditCmd() *cobra.Command {
	var (
		isOpen, isAvailable, isSpecialRate bool
		price, originalPrice               float64
		minStay, maxStay                   int
		totalRooms, roomsBlocked           int
		rateType, rateNote                 string
		updates                            calendar.BulkUpdates
	)

	cmd := &cobra.Command{
		Use:   "bulk-edit START END",
		Short: "Apply the same changes to every date of a range",
		Long: "Apply the given flags to every date from START to END inclusive (YYYY-MM-DD).\n" +
			"Fields without a flag are left unchanged.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := dateutil.ParseDate(args[0])
			if err != nil {
				return err
			}
			end, err := dateutil.ParseDate(args[1])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("open") {
				updates.IsOpen = calendar.Ptr(isOpen)
			}
			if flags.Changed("available") {
				updates.IsAvailable = calendar.Ptr(isAvailable)
			}
			if flags.Changed("price") {
				updates.Price = calendar.Ptr(price)
			}
			if flags.Changed("original-price") {
				updates.OriginalPrice = calendar.Ptr(originalPrice)
			}
			if flags.Changed("min-stay") {
				updates.MinimumStay = calendar.Ptr(minStay)
			}
			if flags.Changed("max-stay") {
				updates.MaximumStay = calendar.Ptr(maxStay)
			}
			if flags.Changed("total-rooms") {
				updates.TotalRooms = calendar.Ptr(totalRooms)
			}
			if flags.Changed("rooms-blocked") {
				updates.RoomsBlocked = calendar.Ptr(roomsBlocked)
			}
			if flags.Changed("special-rate") {
				updates.IsSpecialRate = calendar.Ptr(isSpecialRate)
			}
			if flags.Changed("rate-type") {
				updates.RateType = calendar.Ptr(rateType)
			}
			if flags.Changed("rate-note") {
				updates.RateNote = calendar.Ptr(rateNote)
			}

			vm, _, err := newViewModel(nil)
			if err != nil {
				return err
			}
			vm.SetWindow(calendar.WindowOf(start))

			outcome := vm.SubmitBulkEdit(cmd.Context(), start, end, updates)
			return finishEdit(cmd.Context(), vm, outcome)
		},
	}

	cmd.Flags().BoolVar(&isOpen, "open", true, "Open the dates for bookings (false blocks them)")
	cmd.Flags().BoolVar(&isAvailable, "available", true, "Mark the dates available")
	cmd.Flags().Float64Var(&price, "price", 0, "Price for every date")
	cmd.Flags().Float64Var(&originalPrice, "original-price", 0, "Price before discount")
	cmd.Flags().IntVar(&minStay, "min-stay", 1, "Minimum stay in nights")
	cmd.Flags().IntVar(&maxStay, "max-stay", 0, "Maximum stay in nights")
	cmd.Flags().IntVar(&totalRooms, "total-rooms", 1, "Total rooms (accommodation only)")
	cmd.Flags().IntVar(&roomsBlocked, "rooms-blocked", 0, "Blocked rooms (accommodation only)")
	cmd.Flags().BoolVar(&isSpecialRate, "special-rate", false, "Mark the price as a special rate")
	cmd.Flags().StringVar(&rateType, "rate-type", "", "Rate type, e.g. weekend or holiday")
	cmd.Flags().StringVar(&rateNote, "rate-note", "", "Note shown with the rate")
	cmd.Flags().StringVar(&updates.UpdateType, "update-type", "", "Kind of change recorded by the service")
	cmd.Flags().StringVar(&updates.Notes, "notes", "", "Free-form notes recorded with the change")

	return cmd
}

// ensureEditable refuses dates the calendar does not offer for editing
func ensureEditable(vm *calendar.ViewModel, date time.Time, rec *calendar.DayRecord) error {
	if state := vm.DeriveDay(date, rec); !state.Editable() {
		return fmt.Errorf("%s is in the past and cannot be edited", dateutil.FormatDate(date))
	}
	return nil
}

// finishEdit prints the outcome and, on success, reloads and shows the month
func finishEdit(ctx context.Context, vm *calendar.ViewModel, outcome calendar.Outcome) error {
	if !outcome.Success {
		return errors.New(outcome.Message)
	}

	fmt.Printf("✅ %s\n\n", outcome.Message)

	if _, err := vm.Load(ctx); err != nil {
		logger.Warn("Failed to reload calendar after edit", zap.Error(err))
		return nil
	}
	renderMonth(os.Stdout, vm)
	return nil
}

func listingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listings",
		Short: "List the host's listings of the configured kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(nil)

			listings, err := client.ListListings(cmd.Context())
			if err != nil {
				return err
			}

			if len(listings) == 0 {
				fmt.Printf("No %ss found\n", client.Kind())
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tLOCATION")
			for _, l := range listings {
				kind := l.PropertyType
				if kind == "" {
					kind = l.Category
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", l.ID, l.Name, kind, location(l))
			}
			return tw.Flush()
		},
	}
}

func location(l calendar.Listing) string {
	switch {
	case l.City != "" && l.Country != "":
		return l.City + ", " + l.Country
	case l.City != "":
		return l.City
	default:
		return l.Country
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload the current month periodically and serve metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			vm, collector, err := newViewModel(reg)
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

			server := &http.Server{
				Addr:              cfg.Watch.GetMetricsAddr(),
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}

			go func() {
				logger.Info("Serving metrics", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Metrics server failed", zap.Error(err))
				}
			}()

			w := watch.New(vm, collector, cfg.Watch.GetInterval(), logger)
			runErr := w.Run(cmd.Context())

			if last, counts := w.Status(); !last.IsZero() {
				logger.Info("Last successful refresh",
					zap.Time("time", last),
					zap.Int("available", counts[calendar.StatusAvailable]),
					zap.Int("blocked", counts[calendar.StatusBlocked]),
					zap.Int("fully_booked", counts[calendar.StatusFullyBooked]))
			} else {
				logger.Warn("No successful refresh during this run")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Failed to stop metrics server", zap.Error(err))
			}

			return runErr
		},
	}
}

func parseMonth(s string) (calendar.Window, error) {
	t, err := time.ParseInLocation("2006-01", s, time.Local)
	if err != nil {
		return calendar.Window{}, fmt.Errorf("invalid month %q, use YYYY-MM: %w", s, err)
	}
	return calendar.WindowOf(t), nil
}
