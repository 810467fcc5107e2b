package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kilianp07/factorysim/config"
	coremqtt "github.com/kilianp07/factorysim/core/mqtt"
	"github.com/kilianp07/factorysim/infra/mqtt"
)

var cartsWait time.Duration

var cartsCmd = &cobra.Command{
	Use:   "carts",
	Short: "Talk to a running simulator over MQTT",
}

var cartsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List carts reporting their state",
	RunE:  runCartsLs,
}

var cartsMoveCmd = &cobra.Command{
	Use:   "move <cart-id> <x> <y>",
	Short: "Send a grid command and wait for its ack",
	Args:  cobra.ExactArgs(3),
	RunE:  runCartsMove,
}

func init() {
	cartsCmd.PersistentFlags().DurationVar(&cartsWait, "wait", 3*time.Second, "how long to wait for the broker")
	cartsCmd.AddCommand(cartsLsCmd, cartsMoveCmd)
	rootCmd.AddCommand(cartsCmd)
}

func connectCLI(cfg *config.Config, name string) (*mqtt.PahoClient, error) {
	mqttCfg := cfg.MQTT
	suffix := time.Now().UnixNano()
	if mqttCfg.ClientID != "" {
		mqttCfg.ClientID = fmt.Sprintf("%s-%s-%d", mqttCfg.ClientID, name, suffix)
	} else {
		mqttCfg.ClientID = fmt.Sprintf("factorysim-%s-%d", name, suffix)
	}
	mqttCfg.LWTTopic = ""
	client, err := mqtt.NewPahoClient(mqttCfg)
	if err != nil {
		return nil, fmt.Errorf("mqtt client: %w", err)
	}
	return client, nil
}

func runCartsLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := connectCLI(cfg, "ls")
	if err != nil {
		return err
	}
	defer client.Disconnect()

	var mu sync.Mutex
	seen := map[string]coremqtt.StateMessage{}
	err = client.Subscribe(coremqtt.StateWildcard(cfg.Telemetry.TopicPrefix), "state", func(_ paho.Client, msg paho.Message) {
		var st coremqtt.StateMessage
		if json.Unmarshal(msg.Payload(), &st) != nil || st.CartID == "" {
			return
		}
		mu.Lock()
		seen[st.CartID] = st
		mu.Unlock()
	})
	if err != nil {
		return err
	}
	time.Sleep(cartsWait)

	mu.Lock()
	defer mu.Unlock()
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		st := seen[id]
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%v\ttick %d\n", st.CartID, st.Status, st.Position, st.Tick)
	}
	return nil
}

func runCartsMove(cmd *cobra.Command, args []string) error {
	x, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("x: %w", err)
	}
	y, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("y: %w", err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := connectCLI(cfg, "move")
	if err != nil {
		return err
	}
	defer client.Disconnect()

	cartID := args[0]
	prefix := cfg.Telemetry.TopicPrefix
	msg := coremqtt.CommandMessage{CommandID: uuid.NewString(), X: &x, Y: &y}
	acks := make(chan coremqtt.AckMessage, 1)
	err = client.Subscribe(coremqtt.AckTopic(prefix, cartID), "ack", func(_ paho.Client, m paho.Message) {
		var ack coremqtt.AckMessage
		if json.Unmarshal(m.Payload(), &ack) != nil || ack.CommandID != msg.CommandID {
			return
		}
		select {
		case acks <- ack:
		default:
		}
	})
	if err != nil {
		return err
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := client.Publish(coremqtt.CommandTopic(prefix, cartID), "command", payload); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cartsWait)
	defer cancel()
	select {
	case ack := <-acks:
		if !ack.Accepted {
			return fmt.Errorf("command %s rejected: %s", ack.CommandID, ack.Error)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cart %s moving to (%g, %g)\n", cartID, x, y)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("no ack for command %s: %w", msg.CommandID, ctx.Err())
	}
}
