package main

import (
	"fmt"
	httpadapter "led-gateway/internal/adapters/input/http"
	"led-gateway/internal/adapters/output/actuator"
	"led-gateway/internal/adapters/output/persistence"
	"led-gateway/internal/domain/service"
	"led-gateway/internal/metrics"
	"led-gateway/internal/ports"

	"github.com/spf13/cobra"
)

func newDeviceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Serve the device-control API for the LED board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.settings.Device
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			layout, err := persistence.NewJSONLayoutRepository(s.LayoutFile).Get(ctx)
			if err != nil {
				return fmt.Errorf("load layout: %w", err)
			}

			var act ports.Actuator
			switch s.Actuator {
			case "mqtt":
				m := a.settings.MQTT
				mqttAct, client, err := actuator.DialMQTT(actuator.MQTTConfig{
					Broker:         m.Broker,
					ClientID:       m.ClientID,
					TopicPrefix:    m.TopicPrefix,
					QoS:            byte(m.QoS),
					ConnectTimeout: m.ConnectTimeout,
					PublishTimeout: m.PublishTimeout,
				}, a.logger)
				if err != nil {
					return err
				}
				defer client.Disconnect(250)
				act = mqttAct
			default:
				a.logger.Warn("No board attached, running in emulation mode")
				act = actuator.NewEmulated(a.logger)
			}

			svc, err := service.NewLEDService(layout, act, a.logger)
			if err != nil {
				return err
			}

			reg := newRegistry()
			srv := httpadapter.NewServer(svc, a.logger, metrics.NewDevice(reg), reg)

			a.logger.Info("Device API starting",
				"listen", s.ListenAddr,
				"leds", len(layout.LEDs),
				"actuator", act.Status().Name,
			)
			return httpadapter.Serve(ctx, s.ListenAddr, srv.Handler(), a.logger)
		},
	}

	f := cmd.Flags()
	f.String("device-listen", "", "device API listen address (DEVICE_LISTEN_ADDR)")
	f.String("layout", "", "LED layout JSON file (DEVICE_LAYOUT_FILE)")
	f.String("actuator", "", "emulated or mqtt (DEVICE_ACTUATOR)")
	return cmd
}
