package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"bitcoin-node-sim/internal/models"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	LogLevel string
	LogFile  string
	Node     NodeConfig
	RPC      RPCConfig
	HTTP     HTTPConfig
	Console  ConsoleConfig
	Kafka    KafkaConfig
	Contacts ContactsConfig
}

// NodeConfig holds the simulated node settings
type NodeConfig struct {
	Network         models.Network
	WalletAddress   string
	Latency         time.Duration
	StartupLogDelay time.Duration
	AutoStart       bool
}

// RPCConfig holds the optional real Bitcoin Core endpoint
type RPCConfig struct {
	URL       string
	User      string
	Pass      string
	RateLimit float64
	Timeout   time.Duration
}

// HTTPConfig holds the JSON-RPC facade settings
type HTTPConfig struct {
	ListenAddr string
}

// ConsoleConfig controls the interactive console on stdin
type ConsoleConfig struct {
	Enabled bool
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	BrokerAddress string
	Topic         string
}

// ContactsConfig holds the address book location
type ContactsConfig struct {
	DBPath string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Not fatal, as env vars might be set externally
	}

	network, err := models.ParseNetwork(getEnv("NETWORK", "TESTNET"))
	if err != nil {
		return nil, fmt.Errorf("NETWORK: %w", err)
	}

	config := &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
		Node: NodeConfig{
			Network:         network,
			WalletAddress:   getEnv("WALLET_ADDRESS", "tb1ppksphu4jfv0watdurwzzlp9vstryak0mwz05xsqrza4xxp7e3hfs2w6cqj"),
			Latency:         time.Duration(getEnvAsInt("SIMULATED_LATENCY_MS", 300)) * time.Millisecond,
			StartupLogDelay: time.Duration(getEnvAsInt("STARTUP_LOG_DELAY_MS", 400)) * time.Millisecond,
			AutoStart:       getEnvAsBool("NODE_AUTOSTART", true),
		},
		RPC: RPCConfig{
			URL:       getEnv("RPC_URL", ""),
			User:      getEnv("RPC_USER", ""),
			Pass:      getEnv("RPC_PASS", ""),
			RateLimit: getEnvAsFloat("RPC_RATE_LIMIT", 4),
			Timeout:   time.Duration(getEnvAsInt("HTTP_TIMEOUT", 30)) * time.Second,
		},
		HTTP: HTTPConfig{
			ListenAddr: getEnv("LISTEN_ADDR", "127.0.0.1:18443"),
		},
		Console: ConsoleConfig{
			Enabled: getEnvAsBool("CONSOLE_ENABLED", true),
		},
		Kafka: KafkaConfig{
			BrokerAddress: getEnv("KAFKA_BROKER_ADDRESS", ""),
			Topic:         getEnv("KAFKA_TOPIC", "wallet-transactions"),
		},
		Contacts: ContactsConfig{
			DBPath: getEnv("CONTACTS_DB_PATH", "data/contacts"),
		},
	}

	if config.RPC.RateLimit <= 0 {
		return nil, fmt.Errorf("RPC_RATE_LIMIT must be positive, got %v", config.RPC.RateLimit)
	}

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as float64 or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
