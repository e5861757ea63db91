package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/calhub/calhub/internal/device"
)

// timeLayouts are accepted for --start and --end, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseEventTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (expected e.g. %q or %q)",
		value, "2006-01-02 15:04", time.RFC3339)
}

func newAddCmd() *cobra.Command {
	var (
		start    string
		end      string
		duration time.Duration
		allDay   bool
		notes    string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create an event in the app calendar on this device",
		Long: `Create an event in the calhub calendar of the device store. The app
calendar is created on first use; if creation is impossible, the event
goes to the first writable calendar instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			logger := newLogger()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			startAt, err := parseEventTime(start)
			if err != nil {
				return err
			}
			var endAt time.Time
			switch {
			case end != "":
				endAt, err = parseEventTime(end)
				if err != nil {
					return err
				}
			case allDay:
				endAt = startAt.AddDate(0, 0, 1)
			default:
				endAt = startAt.Add(duration)
			}

			metrics, flushMetrics := buildMetrics(ctx, logger)
			defer flushMetrics()

			adapter, err := buildDeviceAdapter(ctx, cfg, logger, device.WithMetrics(metrics))
			if err != nil {
				return fmt.Errorf("failed to open device calendar: %w", err)
			}
			calendarID, err := adapter.EnsureAppCalendar(ctx)
			if err != nil {
				return fmt.Errorf("no calendar to write to: %w", err)
			}

			id, err := adapter.CreateEvent(ctx, calendarID, device.Event{
				Title:  strings.Join(args, " "),
				Notes:  notes,
				Start:  startAt,
				End:    endAt,
				AllDay: allDay,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created event %s in calendar %s.\n", id, calendarID)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Event start time (required)")
	cmd.Flags().StringVar(&end, "end", "", "Event end time (default: start plus --duration)")
	cmd.Flags().DurationVar(&duration, "duration", time.Hour, "Event length when --end is not given")
	cmd.Flags().BoolVar(&allDay, "all-day", false, "Create an all-day event")
	cmd.Flags().StringVar(&notes, "notes", "", "Event description")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}
