package server

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// File_studyplanner_v1_planner_proto describes PlannerService so that
// server reflection can serve it. Every method takes and returns a
// google.protobuf.Struct.
var File_studyplanner_v1_planner_proto protoreflect.FileDescriptor

func init() {
	fd, err := buildFileDescriptor()
	if err != nil {
		panic(fmt.Sprintf("studyplanner/v1/planner.proto: %v", err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("studyplanner/v1/planner.proto: %v", err))
	}
	File_studyplanner_v1_planner_proto = fd
}

func buildFileDescriptor() (protoreflect.FileDescriptor, error) {
	const structType = ".google.protobuf.Struct"

	methods := make([]*descriptorpb.MethodDescriptorProto, 0, len(ServiceDesc.Methods))
	for _, m := range ServiceDesc.Methods {
		methods = append(methods, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(m.MethodName),
			InputType:  proto.String(structType),
			OutputType: proto.String(structType),
		})
	}

	fdp := &descriptorpb.FileDescriptorProto{
		Name:       proto.String(ServiceDesc.Metadata.(string)),
		Package:    proto.String("studyplanner.v1"),
		Dependency: []string{"google/protobuf/struct.proto"},
		Syntax:     proto.String("proto3"),
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name:   proto.String("PlannerService"),
			Method: methods,
		}},
	}
	return protodesc.NewFile(fdp, protoregistry.GlobalFiles)
}
