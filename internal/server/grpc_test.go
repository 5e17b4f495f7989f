package server

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func dialBufnet(t *testing.T) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	g := NewGRPCServer(newTestServer(t))
	go func() { _ = g.Serve(lis) }()
	t.Cleanup(g.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func invoke(t *testing.T, conn *grpc.ClientConn, method string, req map[string]any) (*structpb.Struct, error) {
	t.Helper()
	in, err := structpb.NewStruct(req)
	if err != nil {
		t.Fatal(err)
	}
	out := new(structpb.Struct)
	err = conn.Invoke(context.Background(), "/"+ServiceName+"/"+method, in, out)
	return out, err
}

func TestGRPCBasic(t *testing.T) {
	conn := dialBufnet(t)
	out, err := invoke(t, conn, "Basic", map[string]any{"d1": 30, "d7": 12, "arpdau": 0.3, "cpi": 2})
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Fields["decision"].GetStringValue(); got != "shutdown" {
		t.Fatalf("decision = %q", got)
	}
	results := out.Fields["results"].GetStructValue()
	if results.Fields["ltv"].GetStringValue() != "2.49" || results.Fields["paybackDays"].GetStringValue() != "56" {
		t.Fatalf("results = %v", results)
	}
	if n := len(out.Fields["insights"].GetListValue().GetValues()); n != 2 {
		t.Fatalf("insights = %d", n)
	}
}

func TestGRPCAdvanced(t *testing.T) {
	conn := dialBufnet(t)
	out, err := invoke(t, conn, "Advanced", map[string]any{
		"d1": 40, "d3": 25, "d7": 20, "d30": 8,
		"iapArpdau": 0.3, "adArpdau": 0.2,
		"totalSpend": 20000, "totalInstalls": 20000, "kFactor": 0.3,
		"market": "tier1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Fields["rule"].GetStringValue() != "aggressive-expansion" {
		t.Fatalf("rule = %v", out.Fields["rule"])
	}
	mix := out.Fields["results"].GetStructValue().Fields["monetizationMix"].GetStructValue()
	if mix.Fields["iap"].GetStringValue() != "60" || mix.Fields["ads"].GetStringValue() != "40" {
		t.Fatalf("mix = %v", mix)
	}
}

func TestGRPCIntermediate(t *testing.T) {
	conn := dialBufnet(t)
	out, err := invoke(t, conn, "Intermediate", map[string]any{
		"rows": []any{
			map[string]any{"source": "Source 1", "users": 10000, "cpi": 2, "d1": 30, "d1Arpu": 0.15},
		},
		"d30":       5,
		"targetDay": 180,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Fields["results"].GetStructValue().Fields["projectedRoas"].GetStringValue() != "440.5" {
		t.Fatalf("results = %v", out.Fields["results"])
	}
}

func TestGRPCInvalidArgument(t *testing.T) {
	conn := dialBufnet(t)
	_, err := invoke(t, conn, "Basic", map[string]any{"d1": 30, "d7": 12, "arpdau": 0.3, "cpi": 0})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v (%v)", status.Code(err), err)
	}
	_, err = invoke(t, conn, "Basic", map[string]any{"d1": "thirty"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v (%v)", status.Code(err), err)
	}
	_, err = invoke(t, conn, "Basic", map[string]any{"d1": 30, "d7": 12, "arpdau": 0.3, "cpi": 2, "dau": 5000})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("unknown field: code = %v (%v)", status.Code(err), err)
	}
}

func TestGRPCBenchmark(t *testing.T) {
	conn := dialBufnet(t)
	out, err := invoke(t, conn, "Benchmark", map[string]any{"metric": "ltv_cpi", "value": 3.2})
	if err != nil {
		t.Fatal(err)
	}
	if out.Fields["band"].GetStringValue() != "good" || out.Fields["label"].GetStringValue() != "Above Target" {
		t.Fatalf("out = %v", out)
	}
	_, err = invoke(t, conn, "Benchmark", map[string]any{"metric": "arpu", "value": 1})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("code = %v", status.Code(err))
	}
}
