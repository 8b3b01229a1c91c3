package main

import (
	"context"
	"fmt"
	"strings"

	celebrationrpc "routinectl/internal/modules/celebration/adapter/out/rpc"

	"github.com/hashicorp/go-plugin"
)

var palette = []string{"*", "+", "o", "~", "."}

type server struct{}

func (s *server) GetMetadata(_ context.Context, _ *celebrationrpc.Empty) (*celebrationrpc.Metadata, error) {
	return &celebrationrpc.Metadata{
		Name:         "confetti",
		Version:      "1.0.0",
		Capabilities: []string{"celebrate"},
	}, nil
}

func (s *server) Celebrate(_ context.Context, in *celebrationrpc.CelebrateRequest) (*celebrationrpc.CelebrateResponse, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "Routine"
	}
	lines := []string{
		confettiRow(in.HistoryID, 24),
		fmt.Sprintf("  %s: all %d done", title, len(in.Tasks)),
	}
	if in.ElapsedMinutes != nil {
		lines = append(lines, fmt.Sprintf("  %d minutes well spent", *in.ElapsedMinutes))
	}
	lines = append(lines, confettiRow(in.HistoryID+1, 24))
	return &celebrationrpc.CelebrateResponse{Lines: lines}, nil
}

// confettiRow is deterministic per seed so repeated runs look the same.
func confettiRow(seed int64, width int) string {
	var b strings.Builder
	for i := 0; i < width; i++ {
		if (int64(i)+seed)%3 == 0 {
			b.WriteByte(' ')
			continue
		}
		b.WriteString(palette[(int64(i)*7+seed)%int64(len(palette))])
	}
	return b.String()
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: celebrationrpc.HandshakeConfig,
		Plugins:         celebrationrpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
