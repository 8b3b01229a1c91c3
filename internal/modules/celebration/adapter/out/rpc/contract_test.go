package rpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

type echoCelebrator struct {
	fail bool
}

func (e echoCelebrator) GetMetadata(context.Context, *Empty) (*Metadata, error) {
	return &Metadata{Name: "echo", Version: "0.1.0", Capabilities: []string{"celebrate"}}, nil
}

func (e echoCelebrator) Celebrate(_ context.Context, in *CelebrateRequest) (*CelebrateResponse, error) {
	if e.fail {
		return nil, errors.New("no confetti left")
	}
	lines := []string{in.Title}
	lines = append(lines, in.Tasks...)
	if in.ElapsedMinutes != nil {
		lines = append(lines, "timed")
	}
	return &CelebrateResponse{Lines: lines}, nil
}

func dialCelebrator(t *testing.T, impl CelebratorServer) CelebratorClient {
	t.Helper()
	listener := bufconn.Listen(1 << 16)
	server := grpc.NewServer()
	RegisterCelebratorServer(server, impl)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///celebrator",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return listener.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewCelebratorClient(conn)
}

func TestCelebratorRoundTripOverJSONCodec(t *testing.T) {
	t.Parallel()
	client := dialCelebrator(t, echoCelebrator{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	meta, err := client.GetMetadata(ctx)
	if err != nil {
		t.Fatalf("get metadata: %v", err)
	}
	if meta.Name != "echo" || len(meta.Capabilities) != 1 || meta.Capabilities[0] != "celebrate" {
		t.Fatalf("unexpected metadata %+v", meta)
	}

	minutes := int32(9)
	resp, err := client.Celebrate(ctx, &CelebrateRequest{HistoryID: 3, Title: "Evening", Tasks: []string{"dishes", "read"}, ElapsedMinutes: &minutes})
	if err != nil {
		t.Fatalf("celebrate: %v", err)
	}
	want := []string{"Evening", "dishes", "read", "timed"}
	if len(resp.Lines) != len(want) {
		t.Fatalf("lines = %v, want %v", resp.Lines, want)
	}
	for i := range want {
		if resp.Lines[i] != want[i] {
			t.Fatalf("lines = %v, want %v", resp.Lines, want)
		}
	}
}

func TestCelebratorServerErrorReachesClient(t *testing.T) {
	t.Parallel()
	client := dialCelebrator(t, echoCelebrator{fail: true})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Celebrate(ctx, &CelebrateRequest{Title: "x"}); err == nil {
		t.Fatalf("expected plugin error to surface")
	}
}
