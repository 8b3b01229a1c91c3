package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// PluginMapKey names the celebrator in a go-plugin plugin map.
const PluginMapKey = "celebrator"

const (
	serviceName = "routinectl.celebration.v1.Celebrator"
	codecName   = "json"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "ROUTINECTL_PLUGIN",
	MagicCookieValue: "routinectl",
}

// Messages travel as JSON so plugins need no generated protobuf code.
type codec struct{}

func (codec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (codec) Name() string                       { return codecName }

func init() {
	encoding.RegisterCodec(codec{})
}

type Empty struct{}

type Metadata struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

type CelebrateRequest struct {
	HistoryID      int64    `json:"history_id"`
	Title          string   `json:"title"`
	Tasks          []string `json:"tasks"`
	ElapsedMinutes *int32   `json:"elapsed_minutes,omitempty"`
}

type CelebrateResponse struct {
	Lines []string `json:"lines"`
}

// CelebratorServer is implemented by plugin binaries.
type CelebratorServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Celebrate(ctx context.Context, in *CelebrateRequest) (*CelebrateResponse, error)
}

// CelebratorClient is what the host gets back from Dispense.
type CelebratorClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Celebrate(ctx context.Context, in *CelebrateRequest) (*CelebrateResponse, error)
}

func fullMethod(name string) string { return "/" + serviceName + "/" + name }

type celebratorClient struct {
	conn grpc.ClientConnInterface
}

func NewCelebratorClient(conn grpc.ClientConnInterface) CelebratorClient {
	return celebratorClient{conn: conn}
}

func (c celebratorClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	return invoke[Metadata](ctx, c.conn, "GetMetadata", &Empty{})
}

func (c celebratorClient) Celebrate(ctx context.Context, in *CelebrateRequest) (*CelebrateResponse, error) {
	return invoke[CelebrateResponse](ctx, c.conn, "Celebrate", in)
}

func invoke[Resp any](ctx context.Context, conn grpc.ClientConnInterface, method string, in any) (*Resp, error) {
	out := new(Resp)
	if err := conn.Invoke(ctx, fullMethod(method), in, out, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, err
	}
	return out, nil
}

// unary adapts one CelebratorServer method to a gRPC handler. The server
// value registered with the service is passed back as srv.
func unary[Req any, Resp any](method string, call func(CelebratorServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			impl, ok := srv.(CelebratorServer)
			if !ok {
				return nil, fmt.Errorf("%s: server does not implement the celebrator", method)
			}
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(impl, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(impl, ctx, req.(*Req))
			})
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CelebratorServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetMetadata", func(s CelebratorServer, ctx context.Context, in *Empty) (*Metadata, error) {
			return s.GetMetadata(ctx, in)
		}),
		unary("Celebrate", func(s CelebratorServer, ctx context.Context, in *CelebrateRequest) (*CelebrateResponse, error) {
			return s.Celebrate(ctx, in)
		}),
	},
	Metadata: "celebration/v1",
}

func RegisterCelebratorServer(server grpc.ServiceRegistrar, impl CelebratorServer) {
	server.RegisterService(&serviceDesc, impl)
}

// GRPCPlugin plugs the celebrator into go-plugin. Impl is only set on the
// plugin side.
type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl CelebratorServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterCelebratorServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewCelebratorClient(conn), nil
}

func PluginMap(impl CelebratorServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{PluginMapKey: &GRPCPlugin{Impl: impl}}
}
