package main

import (
	"encoding/json"
	"fmt"
	"io"
	"led-gateway/internal/adapters/output/ledapi"
	"led-gateway/internal/domain/model"
	"strconv"

	"github.com/spf13/cobra"
)

func newLEDsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leds",
		Short: "Query and switch LEDs through the device API",
	}
	pf := cmd.PersistentFlags()
	pf.String("base-url", "", "device API base url including any prefix (LEDAPI_BASE_URL)")
	pf.Duration("timeout", 0, "request timeout (LEDAPI_TIMEOUT)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all LEDs",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.client()
				if err != nil {
					return err
				}
				leds, err := c.ListLEDs(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), leds)
			},
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show one LED",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				c, err := a.client()
				if err != nil {
					return err
				}
				led, err := c.GetLED(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), led)
			},
		},
		switchCmd(a, "on", model.StateOn),
		switchCmd(a, "off", model.StateOff),
		&cobra.Command{
			Use:   "set <id> <state>",
			Short: "Set one LED to on or off",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				state, err := model.ParseState(args[1])
				if err != nil {
					return err
				}
				c, err := a.client()
				if err != nil {
					return err
				}
				led, err := c.SetState(cmd.Context(), id, state)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), led)
			},
		},
		&cobra.Command{
			Use:   "all <state>",
			Short: "Set every LED to on or off",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				state, err := model.ParseState(args[0])
				if err != nil {
					return err
				}
				c, err := a.client()
				if err != nil {
					return err
				}
				leds, err := c.SetAll(cmd.Context(), state)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), leds)
			},
		},
	)
	return cmd
}

func switchCmd(a *app, name string, state model.State) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: "Switch one LED " + name,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			var led model.LED
			if state == model.StateOn {
				led, err = c.TurnOn(cmd.Context(), id)
			} else {
				led, err = c.TurnOff(cmd.Context(), id)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), led)
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health [base-url]",
		Short: "Check that the device API answers, optionally through the gateway",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.settings.LEDAPI.BaseURL = args[0]
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			h, err := c.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			if h.Status != "ok" {
				return fmt.Errorf("health check failed: status %q", h.Status)
			}
			return printJSON(cmd.OutOrStdout(), h)
		},
	}
}

func (a *app) client() (*ledapi.Client, error) {
	s := a.settings.LEDAPI
	return ledapi.NewClient(s.BaseURL, ledapi.WithTimeout(s.Timeout), ledapi.WithLogger(a.logger))
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid led id %q", s)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
