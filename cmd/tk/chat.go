package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amonks/tasks/chat"
	"github.com/amonks/tasks/server"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message...]",
	Short: "Manage tasks with plain-language messages",
	Long: `Manage tasks with plain-language messages, for example:

  tk chat add buy milk due tomorrow #errands
  tk chat complete 3

With no arguments, read one message per line from stdin.`,
	PersistentPreRunE: openChatApp,
	RunE:              runChat,
}

var (
	chatRemote string
	chatJSON   bool
)

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatRemote, "remote", "", "Send messages to a tk serve instance at this address")
	chatCmd.Flags().BoolVar(&chatJSON, "json", false, "Output replies as JSON")
}

// openChatApp leaves the local store closed when messages go to a remote server.
func openChatApp(cmd *cobra.Command, args []string) error {
	if chatRemote != "" {
		return nil
	}
	return openApp(cmd, args)
}

type responder func(ctx context.Context, message string) (chat.Reply, error)

func runChat(cmd *cobra.Command, args []string) error {
	var respond responder
	if chatRemote != "" {
		respond = server.NewClient(chatRemote).Chat
	} else {
		respond = localResponder(chat.NewBot(app.svc, chat.BotOptions{Logger: app.logger}))
	}

	if len(args) > 0 {
		return chatOnce(cmd.Context(), respond, strings.Join(args, " "), os.Stdout)
	}
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	return chatLoop(cmd.Context(), respond, os.Stdin, os.Stdout, interactive)
}

func localResponder(bot *chat.Bot) responder {
	return func(_ context.Context, message string) (chat.Reply, error) {
		return bot.Respond(message)
	}
}

func chatOnce(ctx context.Context, respond responder, message string, out io.Writer) error {
	reply, err := respond(ctx, message)
	if err != nil {
		return err
	}
	return writeReply(out, reply)
}

func chatLoop(ctx context.Context, respond responder, in io.Reader, out io.Writer, interactive bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		message := strings.TrimSpace(scanner.Text())
		switch message {
		case "":
			continue
		case "quit", "exit":
			return nil
		}
		if err := chatOnce(ctx, respond, message, out); err != nil {
			return err
		}
	}
}

func writeReply(out io.Writer, reply chat.Reply) error {
	if chatJSON {
		return encodeJSON(out, reply)
	}
	_, err := fmt.Fprintln(out, reply.Text)
	return err
}
