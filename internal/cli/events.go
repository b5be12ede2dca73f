package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hitoshi/eventman/internal/client"
	"github.com/hitoshi/eventman/internal/model"
)

// eventFlags はcreate/updateが受け付けるイベント属性のフラグ。
type eventFlags struct {
	name        string
	description string
	date        string
	location    string
}

func (f *eventFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "event name")
	cmd.Flags().StringVar(&f.description, "description", "", "event description")
	cmd.Flags().StringVar(&f.date, "date", "", "event date (RFC3339, 2006-01-02T15:04 or 2006-01-02)")
	cmd.Flags().StringVar(&f.location, "location", "", "event location")
}

// apply は指定されたフラグだけをinに上書きする。
func (f *eventFlags) apply(cmd *cobra.Command, in *client.EventInput) error {
	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name = f.name
	}
	if flags.Changed("description") {
		in.Description = f.description
	}
	if flags.Changed("location") {
		in.Location = f.location
	}
	if flags.Changed("date") {
		date, err := model.ParseDate(f.date)
		if err != nil {
			return err
		}
		in.Date = date
	}
	return nil
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer: %q", name, raw)
	}
	return id, nil
}

func (a *app) eventsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List and manage events",
	}
	cmd.AddCommand(
		a.eventsListCommand(),
		a.eventsGetCommand(),
		a.eventsCreateCommand(),
		a.eventsUpdateCommand(),
		a.eventsDeleteCommand(),
	)
	return cmd
}

func (a *app) eventsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := a.client.ListEvents(cmd.Context())
			if err != nil {
				return err
			}
			return printEvents(a.streams.Out, events)
		},
	}
}

func (a *app) eventsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <eventId>",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("event id", args[0])
			if err != nil {
				return err
			}
			ev, err := a.client.GetEvent(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printEvent(a.streams.Out, ev)
		},
	}
}

func (a *app) eventsCreateCommand() *cobra.Command {
	var f eventFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event owned by the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in client.EventInput
			if err := f.apply(cmd, &in); err != nil {
				return err
			}
			ev, err := a.client.CreateEvent(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.streams.Out, "Created event %d\n", ev.ID)
			return printEvent(a.streams.Out, ev)
		},
	}
	f.bind(cmd)
	return cmd
}

func (a *app) eventsUpdateCommand() *cobra.Command {
	var f eventFlags
	cmd := &cobra.Command{
		Use:   "update <eventId>",
		Short: "Update an event you own; omitted flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("event id", args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			me, err := a.client.Me(ctx)
			if err != nil {
				return err
			}
			ev, err := a.client.GetEvent(ctx, id)
			if err != nil {
				return err
			}

			in := client.EventInput{
				Name:        ev.Name,
				Description: ev.Description,
				Date:        ev.Date,
				Location:    ev.Location,
			}
			if err := f.apply(cmd, &in); err != nil {
				return err
			}

			updated, err := a.client.EditEvent(ctx, ev, me.ID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.streams.Out, "Updated event %d\n", updated.ID)
			return printEvent(a.streams.Out, updated)
		},
	}
	f.bind(cmd)
	return cmd
}

func (a *app) eventsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <eventId>",
		Short: "Delete an event you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("event id", args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			me, err := a.client.Me(ctx)
			if err != nil {
				return err
			}
			ev, err := a.client.GetEvent(ctx, id)
			if err != nil {
				return err
			}
			if err := a.client.RemoveEvent(ctx, ev, me.ID); err != nil {
				return err
			}
			fmt.Fprintf(a.streams.Out, "Deleted event %d\n", id)
			return nil
		},
	}
}
