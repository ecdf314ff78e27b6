package indexer

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"puzzleScope/internal/contracts"
	"puzzleScope/internal/model"
)

func buildLogRecord(chainID uint64, log types.Log, contract contracts.Name, eventType model.ActivityType, timestamp uint64, ingestedAt time.Time) model.LogRecord {
	topics := make([]string, 0, len(log.Topics))
	for _, topic := range log.Topics {
		topics = append(topics, topic.Hex())
	}

	return model.LogRecord{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash.Hex(),
		TxHash:      log.TxHash.Hex(),
		TxIndex:     uint64(log.TxIndex),
		LogIndex:    uint64(log.Index),
		Contract:    string(contract),
		Address:     log.Address.Hex(),
		EventType:   eventType,
		Topics:      topics,
		Data:        hexutil.Encode(log.Data),
		Removed:     log.Removed,
		Timestamp:   timestamp,
		IngestedAt:  ingestedAt.UTC().Format(time.RFC3339Nano),
	}
}

// RecordToLog rebuilds the go-ethereum log from an archived record.
func RecordToLog(record model.LogRecord) (types.Log, error) {
	if !common.IsHexAddress(record.Address) {
		return types.Log{}, fmt.Errorf("invalid address: %q", record.Address)
	}
	topics := make([]common.Hash, 0, len(record.Topics))
	for _, topic := range record.Topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return types.Log{}, fmt.Errorf("invalid topic %q: %w", topic, err)
		}
		if len(data) != common.HashLength {
			return types.Log{}, fmt.Errorf("topic length %d", len(data))
		}
		topics = append(topics, common.BytesToHash(data))
	}
	data, err := hexutil.Decode(record.Data)
	if err != nil {
		return types.Log{}, fmt.Errorf("invalid data: %w", err)
	}
	return types.Log{
		Address:     common.HexToAddress(record.Address),
		Topics:      topics,
		Data:        data,
		BlockNumber: record.BlockNumber,
		TxHash:      common.HexToHash(record.TxHash),
		TxIndex:     uint(record.TxIndex),
		BlockHash:   common.HexToHash(record.BlockHash),
		Index:       uint(record.LogIndex),
		Removed:     record.Removed,
	}, nil
}
