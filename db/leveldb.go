package db

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB 本地文件存储
type LevelDB struct {
	db *leveldb.DB
}

// NewKeyDB 打开（不存在则创建）LevelDB 目录
func NewKeyDB(file string) (*LevelDB, error) {
	ldb, err := leveldb.OpenFile(file, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb %s", file)
	}
	return &LevelDB{db: ldb}, nil
}

// NewMemoryDB 内存中的 LevelDB，进程退出即丢失
func NewMemoryDB() (*LevelDB, error) {
	ldb, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "open memory leveldb")
	}
	return &LevelDB{db: ldb}, nil
}

func (l *LevelDB) Has(key string) (bool, error) {
	return l.db.Has([]byte(key), nil)
}

func (l *LevelDB) Get(key string) (string, error) {
	value, err := l.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (l *LevelDB) List(prefix string) (map[string]string, error) {
	res := make(map[string]string)
	iter := l.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()
	for iter.Next() {
		res[string(iter.Key())] = string(iter.Value())
	}
	return res, iter.Error()
}

func (l *LevelDB) Put(key string, value string) error {
	return l.db.Put([]byte(key), []byte(value), nil)
}

func (l *LevelDB) Delete(key string) error {
	return l.db.Delete([]byte(key), nil)
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}
