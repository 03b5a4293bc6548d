package buildCFG

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"campusevents/internal/mailer"
)

type ServerConfig struct {
	Port string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type GatewayConfig struct {
	KeyID     string
	KeySecret string
	Currency  string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	return ServerConfig{Port: port}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	host := cfg.GetString("db.host")
	if host == "" {
		return "", nil, nil, fmt.Errorf("db.host is required")
	}

	masterDSN := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.GetString("db.user"),
		cfg.GetString("db.password"),
		host,
		cfg.GetInt("db.port"),
		cfg.GetString("db.name"),
	)

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("db.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("db.max_idle_conns"),
		ConnMaxLifetime: time.Duration(cfg.GetInt("db.conn_max_lifetime_seconds")) * time.Second,
	}

	log.Info().Str("host", host).Msg("DB config assembled")
	return masterDSN, nil, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" {
		return rc, fmt.Errorf("rabbit.url is required")
	}
	if rc.Exchange == "" || rc.Queue == "" {
		return rc, fmt.Errorf("rabbit.exchange and rabbit.queue are required")
	}
	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("RabbitMQ config assembled")
	return rc, nil
}

func BuildGatewayConfig(cfg *config.Config, log *zerolog.Logger) (GatewayConfig, error) {
	gc := GatewayConfig{
		KeyID:     cfg.GetString("razorpay.key_id"),
		KeySecret: cfg.GetString("razorpay.key_secret"),
		Currency:  cfg.GetString("razorpay.currency"),
	}
	if gc.KeyID == "" || gc.KeySecret == "" {
		return gc, fmt.Errorf("razorpay.key_id and razorpay.key_secret are required")
	}
	if gc.Currency == "" {
		gc.Currency = "INR"
	}
	log.Info().Str("currency", gc.Currency).Msg("Payment gateway config assembled")
	return gc, nil
}

func BuildSMTPConfig(cfg *config.Config, log *zerolog.Logger) (mailer.Config, error) {
	mc := mailer.Config{
		Host:     cfg.GetString("smtp.host"),
		Port:     cfg.GetString("smtp.port"),
		From:     cfg.GetString("smtp.from"),
		Password: cfg.GetString("smtp.password"),
	}
	if mc.Host == "" || mc.From == "" {
		return mc, fmt.Errorf("smtp.host and smtp.from are required")
	}
	if mc.Port == "" {
		mc.Port = "587"
	}
	log.Info().Str("host", mc.Host).Msg("SMTP config assembled")
	return mc, nil
}
