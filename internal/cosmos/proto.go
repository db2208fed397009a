package cosmos

import (
	"encoding/binary"

	"mantra-sdk/internal/errors"
)

// The ABCI query surface only needs two protobuf shapes: messages whose
// fields are all length-delimited strings or bytes (wasm smart-query
// request/response, bank query request, Coin). The helpers below encode
// and decode exactly that, nothing more.

func appendLengthDelimited(buf []byte, fieldNumber int, value []byte) []byte {
	buf = append(buf, byte(fieldNumber<<3|2))
	buf = binary.AppendUvarint(buf, uint64(len(value)))
	return append(buf, value...)
}

// encodeSmartQueryRequest frames a cosmwasm QuerySmartContractStateRequest:
// field 1 contract address, field 2 raw query JSON.
func encodeSmartQueryRequest(contract string, queryJSON []byte) []byte {
	buf := appendLengthDelimited(nil, 1, []byte(contract))
	return appendLengthDelimited(buf, 2, queryJSON)
}

// encodeAllBalancesRequest frames a bank QueryAllBalancesRequest:
// field 1 owner address.
func encodeAllBalancesRequest(address string) []byte {
	return appendLengthDelimited(nil, 1, []byte(address))
}

// decodeLengthDelimited splits a message into its length-delimited fields,
// preserving repetition order per field number. Non-length-delimited wire
// types are rejected since no expected response contains them.
func decodeLengthDelimited(msg []byte) (map[int][][]byte, error) {
	fields := make(map[int][][]byte)
	for len(msg) > 0 {
		tag, n := binary.Uvarint(msg)
		if n <= 0 {
			return nil, errors.New(errors.CodeSerialization, "malformed protobuf tag")
		}
		msg = msg[n:]

		fieldNumber := int(tag >> 3)
		wireType := int(tag & 0x7)
		if wireType != 2 {
			return nil, errors.Newf(errors.CodeSerialization,
				"unexpected wire type %d for field %d", wireType, fieldNumber)
		}

		length, n := binary.Uvarint(msg)
		if n <= 0 || uint64(len(msg)-n) < length {
			return nil, errors.New(errors.CodeSerialization, "truncated protobuf field")
		}
		msg = msg[n:]
		fields[fieldNumber] = append(fields[fieldNumber], msg[:length])
		msg = msg[length:]
	}
	return fields, nil
}

// decodeSmartQueryResponse extracts the JSON payload from a cosmwasm
// QuerySmartContractStateResponse (field 1 data).
func decodeSmartQueryResponse(msg []byte) ([]byte, error) {
	fields, err := decodeLengthDelimited(msg)
	if err != nil {
		return nil, err
	}
	data := fields[1]
	if len(data) == 0 {
		return nil, errors.New(errors.CodeSerialization, "smart query response missing data field")
	}
	return data[0], nil
}

// decodeAllBalancesResponse extracts the repeated Coin entries from a bank
// QueryAllBalancesResponse (field 1 repeated Coin{denom, amount}).
func decodeAllBalancesResponse(msg []byte) ([]Coin, error) {
	fields, err := decodeLengthDelimited(msg)
	if err != nil {
		return nil, err
	}
	coins := make([]Coin, 0, len(fields[1]))
	for _, raw := range fields[1] {
		coinFields, err := decodeLengthDelimited(raw)
		if err != nil {
			return nil, err
		}
		var coin Coin
		if v := coinFields[1]; len(v) > 0 {
			coin.Denom = string(v[0])
		}
		if v := coinFields[2]; len(v) > 0 {
			coin.Amount = string(v[0])
		}
		coins = append(coins, coin)
	}
	return coins, nil
}
