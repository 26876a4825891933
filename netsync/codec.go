package netsync

import "github.com/ethereum/go-ethereum/rlp"

// EncodeStatus serializes a Status for the wire. I must be an RLP-encodable
// type (a fixed-size array, unsigned integer, string, or a type implementing
// rlp.Encoder) for this to succeed.
func EncodeStatus[I comparable](status Status[I]) ([]byte, error) {
	return rlp.EncodeToBytes(&status)
}

// DecodeStatus parses a Status previously produced by EncodeStatus.
func DecodeStatus[I comparable](data []byte) (Status[I], error) {
	var status Status[I]
	err := rlp.DecodeBytes(data, &status)
	return status, err
}

// EncodeBlockRequest serializes a BlockRequest for the wire.
func EncodeBlockRequest[I comparable](req BlockRequest[I]) ([]byte, error) {
	return rlp.EncodeToBytes(&req)
}

// DecodeBlockRequest parses a BlockRequest previously produced by
// EncodeBlockRequest.
func DecodeBlockRequest[I comparable](data []byte) (BlockRequest[I], error) {
	var req BlockRequest[I]
	err := rlp.DecodeBytes(data, &req)
	return req, err
}

// EncodeBlockResponse serializes a BlockResponse for the wire. Each entry in
// Blocks is already opaque bytes, so it round-trips regardless of the
// concrete block type in use.
func EncodeBlockResponse[I comparable](resp BlockResponse[I]) ([]byte, error) {
	return rlp.EncodeToBytes(&resp)
}

// DecodeBlockResponse parses a BlockResponse previously produced by
// EncodeBlockResponse.
func DecodeBlockResponse[I comparable](data []byte) (BlockResponse[I], error) {
	var resp BlockResponse[I]
	err := rlp.DecodeBytes(data, &resp)
	return resp, err
}
