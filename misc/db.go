package misc

import (
	"encoding/json"
	"math/big"

	"github.com/boltdb/bolt"
)

const IndexBucket = "index"

func OpenDB(path string, name string) (*bolt.DB, error) {
	return bolt.Open(path+name+".db", 0600, nil)
}

func GetBucket(tx *bolt.Tx, bucketName string) *bolt.Bucket {
	return tx.Bucket([]byte(bucketName))
}

func PutBucketBytes(tx *bolt.Tx, bucketName string, id string, value []byte) error {
	return GetBucket(tx, bucketName).Put([]byte(id), value)
}

func GetTxJson(tx *bolt.Tx, bucketName, key string, val interface{}) error {
	return json.Unmarshal(GetBucket(tx, bucketName).Get([]byte(key)), val)
}

func PutTxJson(tx *bolt.Tx, bucketName, key string, val interface{}) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return PutBucketBytes(tx, bucketName, key, b)
}

func InitIndex(tx *bolt.Tx, name string, offset uint64) error {
	b := GetBucket(tx, IndexBucket)
	key := []byte(name)
	if len(b.Get(key)) == 0 {
		return b.Put(key, big.NewInt(int64(offset)).Bytes())
	}
	return nil
}

var one = big.NewInt(1)

// increments index for the specified bucket using the given R/W transaction.
func GetNextIndex(tx *bolt.Tx, bucket string) (string, error) {
	key := []byte(bucket)
	b := GetBucket(tx, IndexBucket)
	n := new(big.Int).SetBytes(b.Get(key))
	return n.String(), b.Put(key, n.Add(n, one).Bytes())
}
