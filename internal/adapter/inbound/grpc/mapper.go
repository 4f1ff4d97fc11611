package grpc

import (
	"encoding/json"

	"google.golang.org/protobuf/types/known/structpb"
)

// Message field names.
const (
	FieldPaymentSessionID = "paymentSessionId"
	FieldRedirectURI      = "redirectUri"
)

func sessionIDField(req *structpb.Struct) string {
	return req.GetFields()[FieldPaymentSessionID].GetStringValue()
}

// toStruct converts v to a Struct through its JSON form, so field names
// match the HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}
