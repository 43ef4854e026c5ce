package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/wolvina/wolvina-go/internal/wolvina/actions"
	"github.com/wolvina/wolvina-go/internal/wolvina/app"
	"github.com/wolvina/wolvina-go/internal/wolvina/history"
	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

// registryFactory is replaced in tests. Logs go to stderr so stdout stays parseable.
var registryFactory = func(ctx context.Context) *actions.Registry {
	return app.NewWithOutput("cli", os.Stderr).Actions(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "wolvina",
		Short:        "Career advice actions for the Wolvina assistant",
		SilenceUsage: true,
	}
	root.AddCommand(newActionsCmd(), newContextCmd(), newRunCmd())
	return root
}

func newActionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the registered actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range registryFactory(cmd.Context()).Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newContextCmd() *cobra.Command {
	var (
		file   string
		turns  int
		expire int
	)
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the conversation context an advice prompt would receive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			call, err := readCall(file)
			if err != nil {
				return err
			}
			t := call.Tracker
			opts := history.DefaultOptions()
			opts.MaxConversationTurns = turns
			opts.ExpireAfterUserMessages = expire
			out := history.Build(
				history.TurnsFromEvents(t.Events),
				history.Advice{
					Text: t.SlotString(actions.SlotLastAdviceFull, ""),
					ID:   t.SlotString(actions.SlotLastAdviceID, ""),
				},
				opts,
			)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "tracker", "", "tracker or action call JSON file")
	cmd.Flags().IntVar(&turns, "turns", 3, "conversation turns to keep")
	cmd.Flags().IntVar(&expire, "expire", 5, "user messages after which stored advice expires")
	_ = cmd.MarkFlagRequired("tracker")
	return cmd
}

func newRunCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "run ACTION",
		Short: "Run an action against a tracker and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			call, err := readCall(file)
			if err != nil {
				return err
			}
			call.NextAction = args[0]
			resp, err := registryFactory(cmd.Context()).Execute(cmd.Context(), call)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVar(&file, "tracker", "", "tracker or action call JSON file")
	_ = cmd.MarkFlagRequired("tracker")
	return cmd
}

// readCall accepts either a full action call or a bare tracker.
func readCall(path string) (tracker.ActionCall, error) {
	var call tracker.ActionCall
	data, err := os.ReadFile(path)
	if err != nil {
		return call, errors.Wrap(err, "read tracker")
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return call, errors.Wrap(err, "parse tracker")
	}
	if _, ok := probe["tracker"]; ok {
		err = json.Unmarshal(data, &call)
	} else {
		err = json.Unmarshal(data, &call.Tracker)
	}
	if err != nil {
		return call, errors.Wrap(err, "parse tracker")
	}
	if call.SenderID == "" {
		call.SenderID = call.Tracker.SenderID
	}
	return call, nil
}
