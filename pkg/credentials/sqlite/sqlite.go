// Package sqlite 实现基于 SQLite 的持久化凭据存储
package sqlite

import (
	"context"
	stdcrypto "crypto"
	"crypto/x509"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iniwex5/ike-sigauth/pkg/auth"
	"github.com/iniwex5/ike-sigauth/pkg/credentials"
	"github.com/iniwex5/ike-sigauth/pkg/crypto"
	"github.com/iniwex5/ike-sigauth/pkg/ikev2"
	"github.com/iniwex5/ike-sigauth/pkg/logger"
	"github.com/iniwex5/ike-sigauth/pkg/signature"
)

// DB 凭据数据库
type DB struct {
	Logger *zap.Logger

	db *sql.DB
}

var _ credentials.Store = (*DB)(nil)

// New 创建 DB，表必须已经存在
func New(db *sql.DB) *DB { return &DB{db: db} }

// Init 创建所需的表，不检查已有表的结构
func Init(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS private_keys
			( id_type INTEGER NOT NULL
			, id_data BLOB NOT NULL
			, key_type INTEGER NOT NULL
			, pkcs8 BLOB NOT NULL
			)`,
		`CREATE INDEX IF NOT EXISTS private_keys_id
			ON private_keys(id_type, id_data)`,
		`CREATE TABLE IF NOT EXISTS trusted_keys
			( id_type INTEGER NOT NULL
			, id_data BLOB NOT NULL
			, key_type INTEGER NOT NULL
			, pkix BLOB NOT NULL
			, UNIQUE(id_type, id_data, pkix)
			)`,
		`CREATE INDEX IF NOT EXISTS trusted_keys_id
			ON trusted_keys(id_type, id_data)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("初始化凭据数据库失败: %w", err)
		}
	}
	return nil
}

// Close 关闭数据库连接
func (db *DB) Close() error { return db.db.Close() }

// DB 返回底层的 database/sql DB
func (db *DB) DB() *sql.DB { return db.db }

func (db *DB) log() *zap.Logger {
	if db.Logger != nil {
		return db.Logger
	}
	return logger.Named("credentials.sqlite")
}

func keyTypeOf(key stdcrypto.PublicKey) (signature.KeyType, error) {
	pub, err := crypto.NewPublicKey(key)
	if err != nil {
		return signature.KeyAny, err
	}
	return pub.Type(), nil
}

// AddPrivateKey 保存 id 的私钥 (PKCS#8)
func (db *DB) AddPrivateKey(id ikev2.Identification, key stdcrypto.Signer) error {
	kt, err := keyTypeOf(key.Public())
	if err != nil {
		return err
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("编码私钥失败: %w", err)
	}
	query := `INSERT INTO private_keys (id_type, id_data, key_type, pkcs8) VALUES (?, ?, ?, ?)`
	db.log().Debug("sqlite", logger.String("query", query), logger.Stringer("id", id))
	_, err = db.db.ExecContext(context.Background(), query, int(id.Type), id.Data, int(kt), der)
	return err
}

// AddTrustedKey 保存 id 的可信公钥 (PKIX)，重复添加被忽略
func (db *DB) AddTrustedKey(id ikev2.Identification, key stdcrypto.PublicKey) error {
	kt, err := keyTypeOf(key)
	if err != nil {
		return err
	}
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return fmt.Errorf("编码公钥失败: %w", err)
	}
	query := `INSERT OR IGNORE INTO trusted_keys (id_type, id_data, key_type, pkix) VALUES (?, ?, ?, ?)`
	db.log().Debug("sqlite", logger.String("query", query), logger.Stringer("id", id))
	_, err = db.db.ExecContext(context.Background(), query, int(id.Type), id.Data, int(kt), der)
	return err
}

// PrivateKey 返回最早添加的匹配私钥
func (db *DB) PrivateKey(kt signature.KeyType, id ikev2.Identification, cfg *auth.Config) (crypto.PrivateKey, error) {
	query := `SELECT pkcs8 FROM private_keys
		WHERE id_type = ? AND id_data = ? AND (? = 0 OR key_type = ?)
		ORDER BY rowid LIMIT 1`
	db.log().Debug("sqlite", logger.String("query", query), logger.Stringer("id", id))

	var pkcs8 []byte
	row := db.db.QueryRowContext(context.Background(), query, int(id.Type), id.Data, int(kt), int(kt))
	if err := row.Scan(&pkcs8); errors.Is(err, sql.ErrNoRows) {
		return nil, credentials.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("查询私钥失败: %w", err)
	}

	key, err := x509.ParsePKCS8PrivateKey(pkcs8)
	if err != nil {
		return nil, fmt.Errorf("解析私钥失败: %w", err)
	}
	signer, ok := key.(stdcrypto.Signer)
	if !ok {
		return nil, fmt.Errorf("私钥类型 %T 不能签名", key)
	}
	return crypto.NewPrivateKey(signer)
}

// PublicKeys 逐行读取可信公钥，遍历结束或提前停止时关闭结果集
func (db *DB) PublicKeys(kt signature.KeyType, id ikev2.Identification, cfg *auth.Config, online bool) iter.Seq2[crypto.PublicKey, *auth.Config] {
	return func(yield func(crypto.PublicKey, *auth.Config) bool) {
		log := db.log()
		query := `SELECT pkix FROM trusted_keys
			WHERE id_type = ? AND id_data = ? AND (? = 0 OR key_type = ?)
			ORDER BY rowid`
		log.Debug("sqlite", logger.String("query", query), logger.Stringer("id", id))

		rows, err := db.db.QueryContext(context.Background(), query, int(id.Type), id.Data, int(kt), int(kt))
		if err != nil {
			log.Warn("查询可信公钥失败", logger.Err(err))
			return
		}
		defer func() {
			if err := multierr.Append(rows.Err(), rows.Close()); err != nil {
				log.Warn("读取可信公钥失败", logger.Err(err))
			}
		}()

		for rows.Next() {
			var der []byte
			if err := rows.Scan(&der); err != nil {
				log.Warn("读取可信公钥失败", logger.Err(err))
				return
			}
			raw, err := x509.ParsePKIXPublicKey(der)
			if err != nil {
				log.Debug("跳过无法解析的公钥", logger.Err(err))
				continue
			}
			key, err := crypto.NewPublicKey(raw)
			if err != nil {
				log.Debug("跳过不支持的公钥", logger.Err(err))
				continue
			}
			meta := auth.NewConfig()
			_ = meta.Add(auth.RuleSubjectPublicKey, key)
			if !yield(key, meta) {
				return
			}
		}
	}
}
