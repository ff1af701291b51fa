package main

import (
	"complianceTracker/internal/clock"
	"complianceTracker/internal/handlers/dto"
	"complianceTracker/internal/recurrence"
	"complianceTracker/internal/service"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newDueDatesCmd(opts *rootOptions) *cobra.Command {
	var (
		frequency string
		dueDay    int
		count     int
		from      string
	)

	cmd := &cobra.Command{
		Use:   "due-dates",
		Short: "Показать ближайшие сроки для периодичности и дня",
		Example: "  compliance due-dates --frequency monthly --due-day 31 --count 5 --from 2024-02-10\n" +
			"  compliance due-dates --frequency \"Half Yearly\" --due-day 183",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			clk, err := clock.NewSystem(cfg.Schedule.Timezone)
			if err != nil {
				return err
			}

			freq, err := recurrence.ParseFrequency(frequency)
			if err != nil {
				return err
			}
			if !freq.IsRecurring() {
				return errors.New("as_needed не порождает дат")
			}
			if err := recurrence.ValidateDueDay(freq, dueDay); err != nil {
				return err
			}
			if count < 1 || count > service.MaxPreviewCount {
				return fmt.Errorf("count должен быть от 1 до %d", service.MaxPreviewCount)
			}

			now := clk.Now()
			if from != "" {
				if now, err = dto.ParseDate(from, clk.Location); err != nil {
					return err
				}
			}

			for _, d := range recurrence.NextDueDates(freq, dueDay, now, count) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", dto.FormatDate(d), d.Weekday())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&frequency, "frequency", "f", "monthly", "weekly, fortnightly, monthly, half_yearly, annually")
	cmd.Flags().IntVarP(&dueDay, "due-day", "d", 1, "день внутри периода")
	cmd.Flags().IntVarP(&count, "count", "n", 5, "сколько дат показать")
	cmd.Flags().StringVar(&from, "from", "", "дата отсчёта YYYY-MM-DD (по умолчанию сегодня)")
	return cmd
}
