// Package handler は PersonnelService の gRPC 実装を提供します。
// メッセージは google.protobuf.Struct で表現し、キーは snake_case とします。
package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName は gRPC のサービス名です。
const ServiceName = "personnel.v1.PersonnelService"

// PersonnelServiceServer は PersonnelService のサーバー側インターフェースです。
type PersonnelServiceServer interface {
	CreateEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SearchEmployees(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEmployeeSummaries(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateTransfer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTransfer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTransfers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateTransferStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteTransfer(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(PersonnelServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// PersonnelServiceDesc は grpc.Server に登録するサービス定義です。
var PersonnelServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PersonnelServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method("CreateEmployee", PersonnelServiceServer.CreateEmployee),
		method("GetEmployee", PersonnelServiceServer.GetEmployee),
		method("UpdateEmployee", PersonnelServiceServer.UpdateEmployee),
		method("DeleteEmployee", PersonnelServiceServer.DeleteEmployee),
		method("SearchEmployees", PersonnelServiceServer.SearchEmployees),
		method("ListEmployeeSummaries", PersonnelServiceServer.ListEmployeeSummaries),
		method("CreateTransfer", PersonnelServiceServer.CreateTransfer),
		method("GetTransfer", PersonnelServiceServer.GetTransfer),
		method("ListTransfers", PersonnelServiceServer.ListTransfers),
		method("UpdateTransferStatus", PersonnelServiceServer.UpdateTransferStatus),
		method("DeleteTransfer", PersonnelServiceServer.DeleteTransfer),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "personnel/v1/personnel.proto",
}

// RegisterPersonnelServiceServer は srv を s に登録します。
func RegisterPersonnelServiceServer(s grpc.ServiceRegistrar, srv PersonnelServiceServer) {
	s.RegisterService(&PersonnelServiceDesc, srv)
}

// FullMethod はメソッド名から "/service/method" 形式の名前を返します。
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func method(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := FullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PersonnelServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PersonnelServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
