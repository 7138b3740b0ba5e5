package grpcx

import (
	"context"

	"github.com/cwrk-planet/space-service/internal/domain"
	"github.com/cwrk-planet/space-service/internal/view"

	"google.golang.org/grpc"
)

const ServiceName = "space.v1.SpaceService"

// SpaceServiceServer is the method set registered under ServiceName.
type SpaceServiceServer interface {
	CreateSpace(context.Context, *CreateSpaceRequest) (*view.Summary, error)
	GetSpace(context.Context, *SpaceRequest) (*view.Summary, error)
	ListSpaces(context.Context, *ListSpacesRequest) (*ListSpacesReply, error)
	EndSpace(context.Context, *SpaceRequest) (*view.Summary, error)
	JoinSpace(context.Context, *JoinSpaceRequest) (*JoinSpaceReply, error)
	LeaveSpace(context.Context, *SpaceRequest) (*view.Summary, error)
	MuteParticipant(context.Context, *MuteRequest) (*view.Summary, error)
	RequestToSpeak(context.Context, *SpaceRequest) (*view.Summary, error)
	ApproveRequest(context.Context, *TargetRequest) (*view.Summary, error)
	RejectRequest(context.Context, *TargetRequest) (*view.Summary, error)
	GrantSpeakingRole(context.Context, *TargetRequest) (*view.Summary, error)
	ApproveJoinRequest(context.Context, *TargetRequest) (*view.Summary, error)
	RejectJoinRequest(context.Context, *TargetRequest) (*view.Summary, error)
	InviteUser(context.Context, *TargetRequest) (*view.Summary, error)
	BanParticipant(context.Context, *TargetRequest) (*view.Summary, error)
	CreateProfile(context.Context, *CreateProfileRequest) (*domain.UserProfile, error)
	MarkUserTaken(context.Context, *UserRequest) (*domain.UserProfile, error)
	FreeUser(context.Context, *UserRequest) (*domain.UserProfile, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SpaceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateSpace", SpaceServiceServer.CreateSpace),
		unary("GetSpace", SpaceServiceServer.GetSpace),
		unary("ListSpaces", SpaceServiceServer.ListSpaces),
		unary("EndSpace", SpaceServiceServer.EndSpace),
		unary("JoinSpace", SpaceServiceServer.JoinSpace),
		unary("LeaveSpace", SpaceServiceServer.LeaveSpace),
		unary("MuteParticipant", SpaceServiceServer.MuteParticipant),
		unary("RequestToSpeak", SpaceServiceServer.RequestToSpeak),
		unary("ApproveRequest", SpaceServiceServer.ApproveRequest),
		unary("RejectRequest", SpaceServiceServer.RejectRequest),
		unary("GrantSpeakingRole", SpaceServiceServer.GrantSpeakingRole),
		unary("ApproveJoinRequest", SpaceServiceServer.ApproveJoinRequest),
		unary("RejectJoinRequest", SpaceServiceServer.RejectJoinRequest),
		unary("InviteUser", SpaceServiceServer.InviteUser),
		unary("BanParticipant", SpaceServiceServer.BanParticipant),
		unary("CreateProfile", SpaceServiceServer.CreateProfile),
		unary("MarkUserTaken", SpaceServiceServer.MarkUserTaken),
		unary("FreeUser", SpaceServiceServer.FreeUser),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "space/v1/space.proto",
}

// unary builds the handler the generated code would contain for one method.
func unary[Req, Resp any](name string, call func(SpaceServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SpaceServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SpaceServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Invoke calls method on cc with the JSON codec.
func Invoke(ctx context.Context, cc grpc.ClientConnInterface, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	return cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}
