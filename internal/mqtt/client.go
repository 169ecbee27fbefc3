package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/reefwatch/reefwatch_backend/internal/metrics"
	"github.com/reefwatch/reefwatch_backend/internal/models"
	"github.com/reefwatch/reefwatch_backend/internal/services"
)

// Client wraps the MQTT client with reef telemetry specific functionality
type Client struct {
	client         mqtt.Client
	parser         *services.ReadingParser
	readingHandler func(*models.Reading)
	errorHandler   func(error)
	isConnected    bool
	topicReadings  string
	topicAlerts    string // format string with one %s slot for the tank id
}

// Config holds MQTT connection configuration
type Config struct {
	BrokerURL     string
	ClientID      string
	Username      string
	Password      string
	KeepAlive     time.Duration
	PingTimeout   time.Duration
	ConnectRetry  bool
	TopicReadings string
	TopicAlerts   string
}

// DefaultConfig returns default MQTT configuration
func DefaultConfig() *Config {
	return &Config{
		BrokerURL:     "tcp://localhost:1883",
		ClientID:      "reefwatch_backend",
		KeepAlive:     30 * time.Second,
		PingTimeout:   10 * time.Second,
		ConnectRetry:  true,
		TopicReadings: "reefwatch/tanks/+/readings",
		TopicAlerts:   "reefwatch/tanks/%s/alerts",
	}
}

// NewClient creates a new MQTT client for probe ingest and alerting
func NewClient(config *Config) *Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.BrokerURL)
	opts.SetClientID(config.ClientID)
	opts.SetKeepAlive(config.KeepAlive)
	opts.SetPingTimeout(config.PingTimeout)
	opts.SetCleanSession(true)
	opts.SetConnectRetry(config.ConnectRetry)

	if config.Username != "" {
		opts.SetUsername(config.Username)
	}
	if config.Password != "" {
		opts.SetPassword(config.Password)
	}

	client := &Client{
		parser:        services.NewReadingParser(),
		topicReadings: config.TopicReadings,
		topicAlerts:   config.TopicAlerts,
	}

	opts.SetDefaultPublishHandler(client.defaultMessageHandler)
	opts.SetOnConnectHandler(client.onConnect)
	opts.SetConnectionLostHandler(client.onConnectionLost)

	client.client = mqtt.NewClient(opts)

	return client
}

// Connect establishes connection to MQTT broker
func (c *Client) Connect() error {
	log.Println("Connecting to MQTT broker...")

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Println("Successfully connected to MQTT broker")
	c.isConnected = true
	return nil
}

// Disconnect closes the MQTT connection
func (c *Client) Disconnect() {
	if c.isConnected {
		c.client.Disconnect(250)
		c.isConnected = false
		log.Println("Disconnected from MQTT broker")
	}
}

// IsConnected returns the connection status
func (c *Client) IsConnected() bool {
	return c.isConnected && c.client.IsConnected()
}

// SubscribeToReadings subscribes to the per-tank probe reading topic
func (c *Client) SubscribeToReadings() error {
	if token := c.client.Subscribe(c.topicReadings, 1, c.readingMessageHandler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.topicReadings, token.Error())
	}
	log.Printf("Subscribed to topic: %s", c.topicReadings)
	return nil
}

// SetReadingHandler sets the callback function for parsed probe readings
func (c *Client) SetReadingHandler(handler func(*models.Reading)) {
	c.readingHandler = handler
}

// SetErrorHandler sets the callback function for errors
func (c *Client) SetErrorHandler(handler func(error)) {
	c.errorHandler = handler
}

// readingMessageHandler processes incoming probe reading messages
func (c *Client) readingMessageHandler(client mqtt.Client, msg mqtt.Message) {
	log.Printf("Received probe reading on topic %s: %s", msg.Topic(), string(msg.Payload()))

	tankID, ok := tankIDFromTopic(msg.Topic())
	if !ok {
		log.Printf("Ignoring reading on topic without tank id: %s", msg.Topic())
		metrics.IncReadingRejected("bad_topic")
		return
	}

	// Try parsing as JSON first (preferred format)
	reading, err := c.parser.ParseReadingJSON(tankID, msg.Payload())
	if err != nil {
		// Fallback to the compact key=value format
		reading, err = c.parser.ParseReadingString(tankID, string(msg.Payload()))
		if err != nil {
			log.Printf("Failed to parse probe reading: %v", err)
			metrics.IncReadingRejected("parse_error")
			if c.errorHandler != nil {
				c.errorHandler(fmt.Errorf("probe reading parsing failed: %w", err))
			}
			return
		}
	}

	log.Printf("Parsed probe reading: %s", c.parser.FormatReading(reading))

	if c.readingHandler != nil {
		c.readingHandler(reading)
	}
}

// tankIDFromTopic extracts the tank id from reefwatch/tanks/{id}/readings.
func tankIDFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 || parts[len(parts)-1] != "readings" {
		return "", false
	}
	id := parts[len(parts)-2]
	return id, id != ""
}

// defaultMessageHandler handles messages on unsubscribed topics
func (c *Client) defaultMessageHandler(client mqtt.Client, msg mqtt.Message) {
	log.Printf("Received message on unhandled topic %s: %s", msg.Topic(), string(msg.Payload()))
}

// onConnect callback when connection is established
func (c *Client) onConnect(client mqtt.Client) {
	log.Println("MQTT client connected")
	c.isConnected = true
}

// onConnectionLost callback when connection is lost
func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("MQTT connection lost: %v", err)
	c.isConnected = false

	if c.errorHandler != nil {
		c.errorHandler(fmt.Errorf("MQTT connection lost: %w", err))
	}
}

// alertPayload is the JSON body published to the per-tank alert topic
// when an assessment produces an urgent finding.
type alertPayload struct {
	TankID     string    `json:"tank_id"`
	ReportID   string    `json:"report_id"`
	Severity   string    `json:"severity"`
	Cause      string    `json:"cause"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// PublishAlert publishes the report's top finding to the tank's alert
// topic. Callers decide which severities warrant an alert.
func (c *Client) PublishAlert(report *models.HealthReport) error {
	top, ok := report.TopFinding()
	if !ok {
		return nil
	}

	payload, err := json.Marshal(alertPayload{
		TankID:     report.TankID,
		ReportID:   report.ID,
		Severity:   string(top.Severity),
		Cause:      top.Cause,
		Confidence: top.Confidence,
		Timestamp:  report.GeneratedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	topic := fmt.Sprintf(c.topicAlerts, report.TankID)
	if token := c.client.Publish(topic, 1, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish alert: %w", token.Error())
	}

	metrics.IncAlertPublished()
	log.Printf("Published alert to %s: %s (%s)", topic, top.Cause, top.Severity)
	return nil
}
