package grpcx

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"strings"
	"testing"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/service"
	"github.com/cwrk-planet/space-service/internal/storage/memory"
	"github.com/cwrk-planet/space-service/internal/view"
	"github.com/cwrk-planet/space-service/pkg/logger"
)

func dial(t *testing.T, opts ...grpc.ServerOption) *grpc.ClientConn {
	t.Helper()
	store := service.NewStore(memory.New())
	spaces := service.NewSpaceService(store)
	users := service.NewUserService(store)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(append(opts,
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(StreamServerInterceptor()),
	)...)
	Register(srv, NewServer(spaces, users))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close() })
	return cc
}

func as(userID string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), mdUserID, userID)
}

func profile(t *testing.T, cc *grpc.ClientConn, name string) domain.UserProfile {
	t.Helper()
	var u domain.UserProfile
	if err := Invoke(context.Background(), cc, "CreateProfile", &CreateProfileRequest{DisplayName: name}, &u); err != nil {
		t.Fatalf("create profile %s: %v", name, err)
	}
	return u
}

func wantCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if status.Code(err) != code {
		t.Fatalf("code = %v, want %v (err %v)", status.Code(err), code, err)
	}
}

func TestSpaceFlow(t *testing.T) {
	cc := dial(t)
	host := profile(t, cc, "Host")
	guest := profile(t, cc, "Guest")

	var created view.Summary
	err := Invoke(as(host.ID), cc, "CreateSpace", &CreateSpaceRequest{Title: "Morning", AskToSpeak: true}, &created)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Space == nil || created.Space.ID == "" || !created.CanModerate || created.Status != view.StatusLive {
		t.Fatalf("created = %+v", created)
	}
	spaceID := created.Space.ID

	var joined JoinSpaceReply
	if err := Invoke(as(guest.ID), cc, "JoinSpace", &JoinSpaceRequest{SpaceID: spaceID}, &joined); err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.Outcome != "joined" || joined.Space.Counts.Listeners != 1 {
		t.Fatalf("join reply = %+v", joined)
	}
	if err := Invoke(as(guest.ID), cc, "JoinSpace", &JoinSpaceRequest{SpaceID: spaceID}, &joined); err != nil {
		t.Fatalf("second join: %v", err)
	}
	if joined.Outcome != "unchanged" {
		t.Fatalf("second join outcome = %q", joined.Outcome)
	}

	var sum view.Summary
	if err := Invoke(as(guest.ID), cc, "RequestToSpeak", &SpaceRequest{SpaceID: spaceID}, &sum); err != nil {
		t.Fatalf("request: %v", err)
	}
	if sum.SpeakStatus != view.SpeakPending {
		t.Fatalf("speak status = %q", sum.SpeakStatus)
	}

	err = Invoke(as(guest.ID), cc, "ApproveRequest", &TargetRequest{SpaceID: spaceID, UserID: guest.ID, AsSpeaker: true}, &sum)
	wantCode(t, err, codes.PermissionDenied)

	if err := Invoke(as(host.ID), cc, "ApproveRequest", &TargetRequest{SpaceID: spaceID, UserID: guest.ID, AsSpeaker: true}, &sum); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if sum.Counts.Speakers != 2 {
		t.Fatalf("counts = %+v", sum.Counts)
	}

	if err := Invoke(as(guest.ID), cc, "GetSpace", &SpaceRequest{SpaceID: spaceID}, &sum); err != nil {
		t.Fatalf("get: %v", err)
	}
	if sum.SpeakStatus != view.SpeakSpeaker || !sum.CanSpeak {
		t.Fatalf("guest view = %+v", sum)
	}

	err = Invoke(as(guest.ID), cc, "EndSpace", &SpaceRequest{SpaceID: spaceID}, &sum)
	wantCode(t, err, codes.PermissionDenied)

	if err := Invoke(as(host.ID), cc, "EndSpace", &SpaceRequest{SpaceID: spaceID}, &sum); err != nil {
		t.Fatalf("end: %v", err)
	}
	if sum.Status != view.StatusEnded {
		t.Fatalf("status = %q", sum.Status)
	}

	other := profile(t, cc, "Late")
	err = Invoke(as(other.ID), cc, "JoinSpace", &JoinSpaceRequest{SpaceID: spaceID}, &joined)
	wantCode(t, err, codes.FailedPrecondition)
}

func TestErrorCodes(t *testing.T) {
	cc := dial(t)
	host := profile(t, cc, "Host")

	var sum view.Summary
	err := Invoke(context.Background(), cc, "CreateSpace", &CreateSpaceRequest{Title: "x"}, &sum)
	wantCode(t, err, codes.Unauthenticated)

	err = Invoke(as(host.ID), cc, "CreateSpace", &CreateSpaceRequest{Title: ""}, &sum)
	wantCode(t, err, codes.InvalidArgument)

	err = Invoke(as(host.ID), cc, "GetSpace", &SpaceRequest{SpaceID: "missing"}, &sum)
	wantCode(t, err, codes.NotFound)

	var list ListSpacesReply
	err = Invoke(context.Background(), cc, "ListSpaces", &ListSpacesRequest{Status: "bogus"}, &list)
	wantCode(t, err, codes.InvalidArgument)
	err = Invoke(context.Background(), cc, "ListSpaces", &ListSpacesRequest{Cursor: "!!not-base64"}, &list)
	wantCode(t, err, codes.InvalidArgument)

	err = Invoke(as(host.ID), cc, "BanParticipant", &TargetRequest{SpaceID: "missing"}, &sum)
	wantCode(t, err, codes.InvalidArgument)
}

func TestListAndUsers(t *testing.T) {
	cc := dial(t)
	host := profile(t, cc, "Host")
	for _, title := range []string{"one", "two", "three"} {
		var sum view.Summary
		if err := Invoke(as(host.ID), cc, "CreateSpace", &CreateSpaceRequest{Title: title}, &sum); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	var page ListSpacesReply
	if err := Invoke(context.Background(), cc, "ListSpaces", &ListSpacesRequest{Limit: 2}, &page); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 2 || page.NextCursor == "" {
		t.Fatalf("page 1 = %d items, cursor %q", len(page.Items), page.NextCursor)
	}
	if err := Invoke(context.Background(), cc, "ListSpaces", &ListSpacesRequest{Limit: 2, Cursor: page.NextCursor}, &page); err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("page 2 = %d items", len(page.Items))
	}

	var u domain.UserProfile
	if err := Invoke(context.Background(), cc, "FreeUser", &UserRequest{UserID: host.ID}, &u); err != nil {
		t.Fatalf("free: %v", err)
	}
	if u.Taken {
		t.Fatalf("user still taken")
	}
	if err := Invoke(context.Background(), cc, "MarkUserTaken", &UserRequest{UserID: host.ID}, &u); err != nil {
		t.Fatalf("mark taken: %v", err)
	}
	if !u.Taken {
		t.Fatalf("user not taken")
	}
	err := Invoke(context.Background(), cc, "FreeUser", &UserRequest{UserID: "nobody"}, &u)
	wantCode(t, err, codes.NotFound)
}

func TestCallLogCarriesTraceID(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	prev := slog.Default()
	defer slog.SetDefault(prev)
	var buf bytes.Buffer
	logger.Init(logger.Config{Env: logger.EnvDev, Backend: logger.BackendStd, Output: &buf})

	cc := dial(t, grpc.StatsHandler(otelgrpc.NewServerHandler()))
	ctx := metadata.AppendToOutgoingContext(context.Background(),
		"traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	var list ListSpacesReply
	if err := Invoke(ctx, cc, "ListSpaces", &ListSpacesRequest{}, &list); err != nil {
		t.Fatalf("list: %v", err)
	}

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, "ListSpaces") {
			line = l
		}
	}
	if !strings.Contains(line, "trace_id=4bf92f3577b34da6a3ce929d0e0e4736") {
		t.Fatalf("call log = %q", line)
	}
}
