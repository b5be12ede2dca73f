package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/hitoshi/eventman/internal/model"
)

const dateFormat = "2006-01-02 15:04 MST"

func printEvents(w io.Writer, events []model.Event) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No events")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tNAME\tLOCATION\tOWNER")
	for _, ev := range events {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", ev.ID, formatDate(ev.Date), ev.Name, ev.Location, ev.OwnerID)
	}
	return tw.Flush()
}

func printEvent(w io.Writer, ev *model.Event) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", ev.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", ev.Name)
	fmt.Fprintf(tw, "Date:\t%s\n", formatDate(ev.Date))
	fmt.Fprintf(tw, "Location:\t%s\n", ev.Location)
	fmt.Fprintf(tw, "Owner:\t%d\n", ev.OwnerID)
	if ev.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", ev.Description)
	}
	return tw.Flush()
}

func printUsers(w io.Writer, users []model.User) error {
	if len(users) == 0 {
		_, err := fmt.Fprintln(w, "No attendees")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Name, u.Email)
	}
	return tw.Flush()
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateFormat)
}
