package grpc

import (
	pkggrpc "github.com/0xsj/overwatch-pkg/grpc"
)

// toGRPCError maps domain errors to status errors by their error kind.
func toGRPCError(err error) error {
	if err == nil {
		return nil
	}
	return pkggrpc.ToStatus(err).Err()
}
