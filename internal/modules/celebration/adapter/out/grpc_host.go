package out

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	celebrationrpc "routinectl/internal/modules/celebration/adapter/out/rpc"
	"routinectl/internal/modules/celebration/domain"
	celebrationout "routinectl/internal/modules/celebration/port/out"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const (
	startTimeout = 3 * time.Second
	callTimeout  = 2 * time.Second
)

// GRPCHost launches one plugin process per call and kills it afterwards.
// Celebrations happen once per finished run, so nothing is kept warm.
type GRPCHost struct {
	logger hclog.Logger
}

// NewGRPCHost starts plugin processes on demand. Plugin stderr goes to
// logger; a nil logger discards it.
func NewGRPCHost(logger hclog.Logger) celebrationout.Host {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &GRPCHost{logger: logger}
}

// CheckLifecycle starts the plugin and requires it to announce the
// celebrate capability its manifest claims.
func (h *GRPCHost) CheckLifecycle(ctx context.Context, manifest domain.Manifest) error {
	meta, err := h.GetMetadata(ctx, manifest)
	if err != nil {
		return err
	}
	for _, c := range meta.Capabilities {
		if c == domain.CapabilityCelebrate {
			return nil
		}
	}
	return fmt.Errorf("%w: %s does not announce %s", domain.ErrCapabilityMissing, manifest.Name, domain.CapabilityCelebrate)
}

func (h *GRPCHost) GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error) {
	return withPlugin(ctx, h, manifest, "get metadata", func(ctx context.Context, c celebrationrpc.CelebratorClient) (domain.Metadata, error) {
		meta, err := c.GetMetadata(ctx)
		if err != nil {
			return domain.Metadata{}, err
		}
		out := domain.Metadata{Name: meta.Name, Version: meta.Version}
		for _, c := range meta.Capabilities {
			out.Capabilities = append(out.Capabilities, domain.Capability(c))
		}
		return out, nil
	})
}

func (h *GRPCHost) Celebrate(ctx context.Context, manifest domain.Manifest, summary domain.Summary) ([]string, error) {
	req := &celebrationrpc.CelebrateRequest{HistoryID: summary.HistoryID, Title: summary.Title, Tasks: summary.Tasks}
	if summary.ElapsedMinutes != nil {
		minutes := int32(*summary.ElapsedMinutes)
		req.ElapsedMinutes = &minutes
	}
	return withPlugin(ctx, h, manifest, "celebrate", func(ctx context.Context, c celebrationrpc.CelebratorClient) ([]string, error) {
		resp, err := c.Celebrate(ctx, req)
		if err != nil {
			return nil, err
		}
		return resp.Lines, nil
	})
}

// withPlugin runs call against a freshly started plugin under the call
// timeout, unless ctx already has a deadline.
func withPlugin[T any](ctx context.Context, h *GRPCHost, manifest domain.Manifest, op string, call func(context.Context, celebrationrpc.CelebratorClient) (T, error)) (T, error) {
	var zero T
	proc := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  celebrationrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          celebrationrpc.PluginMap(nil),
		Cmd:              exec.Command(manifest.Binary),
		Managed:          true,
		StartTimeout:     startTimeout,
		Logger:           h.logger.Named(manifest.Name),
	})
	defer proc.Kill()

	conn, err := proc.Client()
	if err != nil {
		return zero, fmt.Errorf("start plugin %s: %w", manifest.Name, err)
	}
	raw, err := conn.Dispense(celebrationrpc.PluginMapKey)
	if err != nil {
		return zero, fmt.Errorf("dispense plugin %s: %w", manifest.Name, err)
	}
	client, ok := raw.(celebrationrpc.CelebratorClient)
	if !ok {
		return zero, fmt.Errorf("plugin %s: unexpected client %T", manifest.Name, raw)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, callTimeout)
		defer cancel()
	}
	out, err := call(ctx, client)
	if err == nil {
		return out, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return zero, fmt.Errorf("%w: %s %s", domain.ErrPluginTimeout, manifest.Name, op)
	}
	return zero, fmt.Errorf("%s %s: %w", manifest.Name, op, err)
}
