// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Publisher sends key events somewhere.
type Publisher interface {
	Publish(e Event) error
	Close() error
}

// logPublisher only logs events. It is used when no broker is configured.
type logPublisher struct{}

func (logPublisher) Publish(e Event) error {
	log.Printf("key %d %s", e.Key, e.Type)
	return nil
}

func (logPublisher) Close() error {
	return nil
}

// mqttPublisher publishes events to an MQTT broker.
type mqttPublisher struct {
	client paho.Client
	topic  string
}

func newMQTTPublisher(broker, clientID, topic string) (*mqttPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt: connection to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to broker: %w", err)
	}
	return &mqttPublisher{client: client, topic: topic}, nil
}

func (p *mqttPublisher) Publish(e Event) error {
	b, err := FormatPayload(e)
	if err != nil {
		return fmt.Errorf("mqtt: format payload: %w", err)
	}
	// QoS 0, not retained: a missed key press is not replayed.
	token := p.client.Publish(p.topic, 0, false, b)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt: publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish: %w", err)
	}
	return nil
}

func (p *mqttPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
