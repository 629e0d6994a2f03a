package stream

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"

	"hostpulse/internal/model"
)

type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// GRPCClient streams snapshots over one client stream and reports host info
// with unary calls. Messages are JSON encoded, no generated stubs needed.
type GRPCClient struct {
	mu sync.Mutex

	logger         *slog.Logger
	addr           string
	tlsConfig      *tls.Config
	tokens         TokenSource
	snapshotMethod string
	hostMethod     string
	conn           *grpc.ClientConn
	snapshotStream grpc.ClientStream
	streamCancel   context.CancelFunc
}

func NewGRPCClient(addr string, tlsCfg *tls.Config, tokens TokenSource, snapshotMethod, hostMethod string, logger *slog.Logger) *GRPCClient {
	encoding.RegisterCodec(jsonCodec{})
	return &GRPCClient{
		logger:         logger,
		addr:           addr,
		tlsConfig:      tlsCfg,
		tokens:         tokens,
		snapshotMethod: snapshotMethod,
		hostMethod:     hostMethod,
	}
}

func (c *GRPCClient) SendSnapshot(ctx context.Context, s model.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureConnLocked(); err != nil {
		return err
	}
	if c.snapshotStream == nil {
		if err := c.openSnapshotStreamLocked(); err != nil {
			return err
		}
	}
	frame := NewSnapshotFrame(s)
	if err := c.snapshotStream.SendMsg(frame); err != nil {
		c.logger.Warn("grpc snapshot send failed, reopening stream", "error", err)
		c.closeStreamLocked()
		if err2 := c.openSnapshotStreamLocked(); err2 != nil {
			return fmt.Errorf("reopen snapshot stream: %w", err2)
		}
		if err2 := c.snapshotStream.SendMsg(frame); err2 != nil {
			return fmt.Errorf("send snapshot frame: %w", err2)
		}
	}
	return nil
}

func (c *GRPCClient) SendHostInfo(ctx context.Context, info model.HostInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureConnLocked(); err != nil {
		return err
	}
	callCtx, err := c.decorateContext(ctx)
	if err != nil {
		return err
	}
	var ack json.RawMessage
	if err := c.conn.Invoke(callCtx, c.hostMethod, NewHostInfoFrame(info), &ack); err != nil {
		return fmt.Errorf("send host info: %w", err)
	}
	return nil
}

func (c *GRPCClient) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeStreamLocked()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *GRPCClient) ensureConnLocked() error {
	if c.conn != nil {
		return nil
	}

	var creds credentials.TransportCredentials
	if c.tlsConfig != nil {
		creds = credentials.NewTLS(c.tlsConfig)
	} else {
		creds = insecure.NewCredentials()
	}

	conn, err := grpc.NewClient(
		c.addr,
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{}), grpc.CallContentSubtype("json")),
	)
	if err != nil {
		return fmt.Errorf("grpc client %s: %w", c.addr, err)
	}
	c.conn = conn
	c.logger.Info("grpc stream configured", "addr", c.addr)
	return nil
}

func (c *GRPCClient) openSnapshotStreamLocked() error {
	if c.conn == nil {
		return fmt.Errorf("grpc conn is nil")
	}
	// The stream outlives any single send, so it gets its own context.
	streamCtx, cancel := context.WithCancel(context.Background())
	decorated, err := c.decorateContext(streamCtx)
	if err != nil {
		cancel()
		return err
	}
	s, err := c.conn.NewStream(decorated, &grpc.StreamDesc{ClientStreams: true}, c.snapshotMethod)
	if err != nil {
		cancel()
		return fmt.Errorf("open snapshot stream: %w", err)
	}
	c.snapshotStream = s
	c.streamCancel = cancel
	return nil
}

func (c *GRPCClient) closeStreamLocked() {
	if c.snapshotStream != nil {
		_ = c.snapshotStream.CloseSend()
		c.snapshotStream = nil
	}
	if c.streamCancel != nil {
		c.streamCancel()
		c.streamCancel = nil
	}
}

func (c *GRPCClient) decorateContext(ctx context.Context) (context.Context, error) {
	auth, err := bearer(c.tokens)
	if err != nil {
		return nil, fmt.Errorf("bearer token: %w", err)
	}
	if auth != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", auth)
	}
	return ctx, nil
}
