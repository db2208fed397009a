package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"mantra-sdk/internal/config"
	"mantra-sdk/internal/errors"
	"mantra-sdk/internal/protocols/evm"
	"mantra-sdk/pkg/logger"
)

// Version of the tool server.
const Version = "1.0.0"

// Server exposes the SDK as named tools over stdio or streamable HTTP.
type Server struct {
	adapter   *Adapter
	mcp       *server.MCPServer
	transport string
	httpAddr  string
	decoder   *evm.Decoder
	log       *slog.Logger
}

// NewServer builds the tool server and registers every tool.
func NewServer(adapter *Adapter, cfg config.MCPConfig) *Server {
	s := &Server{
		adapter: adapter,
		mcp: server.NewMCPServer("mantra-sdk", Version,
			server.WithToolCapabilities(false),
			server.WithRecovery()),
		transport: cfg.Transport,
		httpAddr:  cfg.HTTPAddress,
		log:       logger.Named("mcp-server"),
	}
	if decoder, err := evm.NewDecoder(); err == nil {
		s.decoder = decoder
	} else {
		s.log.Warn("calldata decoder unavailable", "error", err)
	}
	s.registerWalletTools()
	s.registerNetworkTools()
	s.registerDexTools()
	s.registerClaimdropTools()
	s.registerSkipTools()
	s.registerEVMTools()
	return s
}

// Run serves until the transport stops or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	switch s.transport {
	case "", "stdio":
		s.log.Info("serving tools over stdio")
		return server.ServeStdio(s.mcp)
	case "http":
		httpServer := server.NewStreamableHTTPServer(s.mcp)
		errCh := make(chan error, 1)
		go func() { errCh <- httpServer.Start(s.httpAddr) }()
		s.log.Info("serving tools over http", "address", s.httpAddr)
		select {
		case <-ctx.Done():
			return httpServer.Shutdown(context.Background())
		case err := <-errCh:
			return err
		}
	default:
		return errors.Newf(errors.CodeConfig, "unknown transport %q", s.transport)
	}
}

// toolError maps an SDK error to a tool result carrying the code.
func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", errors.CodeOf(err), err)), nil
}
