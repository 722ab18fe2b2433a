// Command mcp-mqtt-server is a runnable example embedder: it dials a
// real MQTT 5.0 broker with transport/mqttv5, registers a handful of
// demo tools, and runs engine.Engine until interrupted.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mcpmqtt/server-go/auth"
	"github.com/mcpmqtt/server-go/config"
	"github.com/mcpmqtt/server-go/engine"
	"github.com/mcpmqtt/server-go/mcp"
	"github.com/mcpmqtt/server-go/toolregistry"
	"github.com/mcpmqtt/server-go/transport/mqttv5"
)

type addArgs struct {
	A float64 `json:"a" jsonschema:"description=First addend"`
	B float64 `json:"b" jsonschema:"description=Second addend"`
}

type divideArgs struct {
	Numerator   float64 `json:"a"`
	Denominator float64 `json:"b"`
}

type echoArgs struct {
	Message string `json:"message" jsonschema:"minLength=1,description=Text to echo back"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if err := run(logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if level := parseLevel(cfg.LogLevel); level != nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: *level}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var authenticator auth.Authenticator
	switch {
	case cfg.StaticJWKSEnabled():
		authenticator, err = auth.NewFromStaticJWKS(ctx, cfg.AuthIssuer, cfg.AuthAudience, cfg.AuthJWKSURL, auth.WithLeeway(2*time.Minute))
		if err != nil {
			return err
		}
		logger.Info("authentication enabled (static JWKS)", "issuer", cfg.AuthIssuer, "jwks_url", cfg.AuthJWKSURL)
	case cfg.AuthEnabled():
		authenticator, err = auth.NewFromDiscovery(ctx, cfg.AuthIssuer, cfg.AuthAudience, auth.WithLeeway(2*time.Minute))
		if err != nil {
			return err
		}
		logger.Info("authentication enabled (OIDC discovery)", "issuer", cfg.AuthIssuer)
	}

	e := engine.New(
		engine.WithLogger(logger),
		engine.WithAuthenticator(authenticator),
	)
	e.Configure(
		mcp.ImplementationInfo{Name: "mcp-mqtt-server", Version: "0.1.0"},
		mcp.ServerCapabilities{Tools: &mcp.ToolsCapability{}},
	)
	e.SetServiceDescription("Reference MCP-over-MQTT server with demo arithmetic and echo tools.", nil)
	e.SetClientConnectedHandler(func(mcpClientID string) {
		logger.Info("client connected", "mcp_client_id", mcpClientID)
	})
	e.SetClientDisconnectedHandler(func(mcpClientID string) {
		logger.Info("client disconnected", "mcp_client_id", mcpClientID)
	})

	registerDemoTools(e)

	presenceTopic := "$mcp-server/presence/" + cfg.ServerID + "/" + cfg.ServerName
	t, err := mqttv5.Dial(ctx, cfg.BrokerAddr,
		mqttv5.WithClientID("mcp-mqtt-server-"+uuid.NewString()),
		mqttv5.WithLogger(logger),
		mqttv5.WithWill(mqttv5.Will{Topic: presenceTopic, QoS: 1, Retained: true}),
	)
	if err != nil {
		return err
	}

	if !e.Start(t, cfg.ServerID, cfg.ServerName) {
		return errors.New("engine failed to start")
	}
	logger.Info("server started", "server_id", cfg.ServerID, "server_name", cfg.ServerName, "broker", cfg.BrokerAddr)

	<-ctx.Done()
	logger.Info("shutting down")
	e.Stop()
	return nil
}

func registerDemoTools(e *engine.Engine) {
	addTool, addHandler := toolregistry.NewTyped("add",
		func(args addArgs) (*mcp.CallToolResult, error) {
			return mcp.NewTextResult(formatFloat(args.A + args.B)), nil
		},
		toolregistry.WithDescription("Add two numbers"),
	)
	e.RegisterTool(addTool, addHandler)

	divideTool, divideHandler := toolregistry.NewTyped("divide",
		func(args divideArgs) (*mcp.CallToolResult, error) {
			if args.Denominator == 0 {
				return mcp.NewErrorResult("Division by zero"), nil
			}
			return mcp.NewTextResult(formatFloat(args.Numerator / args.Denominator)), nil
		},
		toolregistry.WithDescription("Divide two numbers"),
	)
	e.RegisterTool(divideTool, divideHandler)

	echoTool, echoHandler := toolregistry.NewTyped("echo",
		func(args echoArgs) (*mcp.CallToolResult, error) {
			return mcp.NewTextResult(args.Message), nil
		},
		toolregistry.WithDescription("Echo a message back to the caller"),
	)
	e.RegisterTool(echoTool, echoHandler)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func parseLevel(s string) *slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return nil
	}
	return &l
}
