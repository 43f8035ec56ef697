package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/storacha/edgeapp/pkg/apps"
	"github.com/storacha/edgeapp/pkg/config"
	"github.com/storacha/edgeapp/pkg/edge"
	"github.com/storacha/edgeapp/pkg/event"
)

func newInvokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Run an application against a recorded edge event",
		Long: `Run an application against a recorded edge event and print the response
the edge function would return. "null" means the event passes through
unchanged.

Without --app the default deployment is used: URI rewriting on viewer
requests and security headers on origin responses.`,
		Example: `  edgeapp invoke --event viewer-request.json
  edgeapp invoke --event - --app hello --binary-support < event.json`,
		Args: cobra.NoArgs,
		RunE: runInvoke,
	}

	cmd.Flags().String("event", "", "Path to the event JSON file, or - for stdin")
	cobra.CheckErr(cmd.MarkFlagRequired("event"))
	cobra.CheckErr(cmd.MarkFlagFilename("event", "json"))
	cmd.Flags().String("app", "", fmt.Sprintf("Application to run for the event's phase, one of: %s", strings.Join(apps.Names(), ", ")))
	cmd.Flags().Bool("binary-support", false, "Send non-text bodies base64 encoded")
	cobra.CheckErr(viper.BindPFlag(string(config.BinarySupport), cmd.Flags().Lookup("binary-support")))

	return cmd
}

func runInvoke(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load[config.Edge](viper.GetViper())
	if err != nil {
		return err
	}

	path, err := cmd.Flags().GetString("event")
	if err != nil {
		return err
	}
	ev, err := readEvent(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	phaseApps := apps.Default()
	if name, _ := cmd.Flags().GetString("app"); name != "" {
		a, err := apps.New(name)
		if err != nil {
			return err
		}
		cf, err := ev.CF()
		if err != nil {
			return err
		}
		phase, ok := cf.Config.Phase()
		if !ok {
			return fmt.Errorf("event has unknown event type %q", cf.Config.EventType)
		}
		phaseApps = apps.Single(phase, a)
	}

	h, err := edge.NewHandler(phaseApps, edge.WithBinarySupport(cfg.BinarySupport))
	if err != nil {
		return err
	}
	resp, err := h.Handle(cmd.Context(), ev)
	if err != nil {
		return fmt.Errorf("handling event: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func readEvent(stdin io.Reader, path string) (event.Event, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return event.Event{}, fmt.Errorf("opening event file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var ev event.Event
	if err := json.NewDecoder(r).Decode(&ev); err != nil {
		return event.Event{}, fmt.Errorf("decoding event: %w", err)
	}
	return ev, nil
}
