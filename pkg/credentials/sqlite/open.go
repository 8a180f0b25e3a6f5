package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed" // 加载 SQLite WASM
)

// Open 创建或打开 SQLite 数据库文件并建表
func Open(filename string) (*DB, error) {
	connector, err := (&driver.SQLite{}).OpenConnector("file:" + filepath.Clean(filename) + "?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("创建 sqlite 连接器失败: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := Init(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}
