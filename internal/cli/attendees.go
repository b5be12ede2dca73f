package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) attendeesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendees",
		Short: "List and manage event attendance",
	}
	cmd.AddCommand(
		a.attendeesListCommand(),
		a.attendeesJoinCommand(),
		a.attendeesLeaveCommand(),
	)
	return cmd
}

func (a *app) attendeesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <eventId>",
		Short: "List the users attending an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := parseID("event id", args[0])
			if err != nil {
				return err
			}
			users, err := a.client.ListAttendees(cmd.Context(), eventID)
			if err != nil {
				return err
			}
			return printUsers(a.streams.Out, users)
		},
	}
}

// membershipArgs は <eventId> [userId] を解析する。userIdを省略した場合はサインイン中のユーザー。
func (a *app) membershipArgs(ctx context.Context, args []string) (int64, int64, error) {
	eventID, err := parseID("event id", args[0])
	if err != nil {
		return 0, 0, err
	}
	if len(args) > 1 {
		userID, err := parseID("user id", args[1])
		if err != nil {
			return 0, 0, err
		}
		return eventID, userID, nil
	}
	me, err := a.client.Me(ctx)
	if err != nil {
		return 0, 0, err
	}
	return eventID, me.ID, nil
}

func (a *app) attendeesJoinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "join <eventId> [userId]",
		Short: "Add a user (default: yourself) to an event",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eventID, userID, err := a.membershipArgs(ctx, args)
			if err != nil {
				return err
			}
			if _, err := a.client.AddAttendee(ctx, eventID, userID); err != nil {
				return err
			}
			fmt.Fprintf(a.streams.Out, "User %d is attending event %d\n", userID, eventID)
			return nil
		},
	}
}

func (a *app) attendeesLeaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <eventId> [userId]",
		Short: "Remove a user (default: yourself) from an event",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eventID, userID, err := a.membershipArgs(ctx, args)
			if err != nil {
				return err
			}
			if err := a.client.RemoveAttendee(ctx, eventID, userID); err != nil {
				return err
			}
			fmt.Fprintf(a.streams.Out, "User %d is no longer attending event %d\n", userID, eventID)
			return nil
		},
	}
}

func (a *app) attendingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "attending <userId>",
		Short: "List the events a user is attending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID("user id", args[0])
			if err != nil {
				return err
			}
			events, err := a.client.ListUserEvents(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printEvents(a.streams.Out, events)
		},
	}
}
