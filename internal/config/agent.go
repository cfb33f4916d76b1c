package config

import "github.com/caarlos0/env/v11"

type AgentGatewayConfig struct {
	BaseURL   string `env:"AGENT_GATEWAY_URL" envDefault:"http://localhost:4000/v1"`
	APIKey    string `env:"AGENT_GATEWAY_KEY"`
	Model     string `env:"AGENT_MODEL" envDefault:"gpt-4o-mini"`
	TimeoutMS int    `env:"AGENT_TIMEOUT_MS" envDefault:"30000"`
}

func LoadAgentGateway() (AgentGatewayConfig, error) {
	var cfg AgentGatewayConfig
	err := env.Parse(&cfg)
	return cfg, err
}
