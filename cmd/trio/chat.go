package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant; each line is one turn, an empty line or EOF quits",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := loadService()
		if err != nil {
			return err
		}
		defer sc.Stop()
		if sc.Assistant == nil {
			return errors.New("chat needs a language model; set GEMINI_API_KEY and reference llm.yaml")
		}

		ctx, stop := signalContext()
		defer stop()

		session := sc.Assistant.Sessions().Create().ID
		in := bufio.NewScanner(cmd.InOrStdin())
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s is listening.\n", sc.Config.Assistant.Name)
		for {
			fmt.Fprint(out, "> ")
			if !in.Scan() {
				return in.Err()
			}
			line := strings.TrimSpace(in.Text())
			if line == "" {
				return nil
			}
			reply, err := sc.Assistant.Chat(ctx, session, line)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, reply.Text)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
