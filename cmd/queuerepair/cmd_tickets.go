package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/queue-repair/internal/service"
)

func newAddCmd(c *cli) *cobra.Command {
	var input service.CreateTicketInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a Pending ticket",
		Long: "Create a Pending ticket. The new id is one more than the highest id on file,\n" +
			"so deleting the newest ticket lets its id be reused by the next add.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			ticket, err := rt.Tickets.CreateTicket(cmd.Context(), input)
			if ticket != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Ticket #%d created for '%s'\n", ticket.ID, ticket.Device)
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&input.Device, "device", "", "Device name (required)")
	f.StringVar(&input.Serial, "serial", "", "Serial number")
	f.StringVar(&input.Issue, "issue", "", "Issue description (required)")
	f.StringVar(&input.Submitted, "submitted", "", "Submitter name")
	f.StringVar(&input.Contact, "contact", "", "Submitter contact")
	return cmd
}

func newListCmd(c *cli) *cobra.Command {
	var search, sortField string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets, optionally filtered and sorted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			view := rt.Tickets.Filter(search)
			tickets := view.Tickets
			if sortField != "" {
				if tickets, err = service.SortTickets(tickets, sortField); err != nil {
					return err
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), c.renderer(cmd).Table(tickets, view.Summary()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive text to match in device, serial, issue or submitter")
	cmd.Flags().StringVar(&sortField, "sort", "", "Field to sort by (id, device, serial, issue, submitted, contact, status, date_repaired, date_submitted)")
	return cmd
}

func newShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a ticket's details block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			ticket, err := rt.Tickets.GetTicket(id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), c.renderer(cmd).Details(*ticket))
			return nil
		},
	}
}

func newRepairedCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "repaired <id>",
		Short: "Mark a ticket as repaired",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.transition(cmd, args[0], func(svc *service.TicketService, id int) (service.TransitionResult, error) {
				return svc.MarkRepaired(cmd.Context(), id)
			})
		},
	}
}

func newCancelCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a ticket's repair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.transition(cmd, args[0], func(svc *service.TicketService, id int) (service.TransitionResult, error) {
				return svc.CancelRepair(cmd.Context(), id)
			})
		},
	}
}

func (c *cli) transition(cmd *cobra.Command, arg string, apply func(*service.TicketService, int) (service.TransitionResult, error)) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	rt, err := c.runtime(cmd)
	if err != nil {
		return err
	}
	result, err := apply(rt.Tickets, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Message)
	return nil
}

func newDeleteCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a ticket after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			ticket, err := rt.Tickets.GetTicket(id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !yes && !confirm(cmd, fmt.Sprintf("Delete ticket #%d (%s)? [y/N]: ", ticket.ID, ticket.Device)) {
				fmt.Fprintln(out, "Deletion canceled")
				return nil
			}
			if _, err := rt.Tickets.DeleteTicket(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(out, "Ticket #%d deleted\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
