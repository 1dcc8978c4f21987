package db

import (
	"encoding/json"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmxdawn/ethwallet/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// TransferPrefix 交易记录的 key 前缀
const TransferPrefix = "tx-"

// UpDateTransInfo 写入或更新一笔交易记录
func UpDateTransInfo(d Database, rec *types.TransactionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal transfer")
	}
	return d.Put(TransferPrefix+rec.Hash.Hex(), string(data))
}

// GetTransferFromDB 获取与 address 相关的交易记录，新的在前
func GetTransferFromDB(d Database, address common.Address) ([]*types.TransactionRecord, error) {
	res, err := d.List(TransferPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "list transfers")
	}
	data := make([]*types.TransactionRecord, 0, len(res))
	for key, value := range res {
		rec := &types.TransactionRecord{}
		if err := json.Unmarshal([]byte(value), rec); err != nil {
			log.Info().Msgf("GetTransferFromDB UnMarshal %s err is %s ", key, err.Error())
			continue
		}
		if rec.From != address && rec.To != address {
			continue
		}
		data = append(data, rec)
	}
	sort.Slice(data, func(i, j int) bool {
		if data[i].Nonce != data[j].Nonce {
			return data[i].Nonce > data[j].Nonce
		}
		return data[i].TimeStamp > data[j].TimeStamp
	})
	return data, nil
}
