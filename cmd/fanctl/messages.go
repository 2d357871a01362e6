package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func messagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "messages",
		Short: "List the club message feed",
		Long: `List the club message feed.

The stored token is attached when present; an anonymous request is
sent as-is and the backend decides whether to answer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := newServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svcs.Close()

			messages, err := svcs.messages.List(cmd.Context(), svcs.session.Current().Token)
			if err != nil {
				return fmt.Errorf("list messages: %w", err)
			}

			if len(messages) == 0 {
				fmt.Println("No messages.")

				return nil
			}

			for _, message := range messages {
				if message.Sender != "" {
					fmt.Printf("%s: %s\n", message.Sender, message.Text)
				} else {
					fmt.Println(message.Text)
				}
			}

			return nil
		},
	}
}
